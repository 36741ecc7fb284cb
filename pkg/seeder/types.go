package seeder

import "context"

// Metadata is the display data attached to every synthetic account.
// It is sent to the auth service as user_metadata.
type Metadata struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	EmailVerified bool   `json:"email_verified"`
}

// AccountRecord is one synthetic account. Records are immutable once
// generated and handed to a Creator exactly once.
type AccountRecord struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Metadata Metadata `json:"user_metadata"`
}

// Creator creates a single account in the remote identity service.
// A nil error means the account exists now; anything else is a failure
// carrying the underlying cause.
type Creator interface {
	Create(ctx context.Context, record AccountRecord) error
}

// CreatorFunc adapts a plain function to the Creator interface.
type CreatorFunc func(ctx context.Context, record AccountRecord) error

func (f CreatorFunc) Create(ctx context.Context, record AccountRecord) error {
	return f(ctx, record)
}
