package ledger

// Backend is the bucketed key-value store the ledger persists into.
// Values are raw bytes; the ledger encodes them as JSON.
type Backend interface {
	CreateBucket(name []byte) error
	Put(bucket, key, value []byte) error
	Get(bucket, key []byte) ([]byte, error)

	// ForEach visits every pair in bucket in ascending key order.
	ForEach(bucket []byte, fn func(k, v []byte) error) error

	Close() error
}
