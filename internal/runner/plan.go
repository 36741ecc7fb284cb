package runner

// Batch is one fixed-size slice of the run, identified by its position.
type Batch struct {
	Index int // 0-based position in dispatch order
	Start int // global index of the first record
	Size  int
}

// Plan partitions total records into ceil(total/batchSize) batches.
// Every batch has batchSize records except possibly the last, which
// holds the remainder.
func Plan(total, batchSize int) []Batch {
	if total <= 0 || batchSize <= 0 {
		return nil
	}

	count := (total + batchSize - 1) / batchSize
	batches := make([]Batch, count)
	for i := range batches {
		start := i * batchSize
		size := batchSize
		if remaining := total - start; remaining < size {
			size = remaining
		}
		batches[i] = Batch{Index: i, Start: start, Size: size}
	}
	return batches
}
