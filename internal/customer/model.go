package customer

import "time"

// BaseID is the id assigned to the first customer in an empty store.
const BaseID int64 = 1000

// Customer is a registered account holder. PINHash is a bcrypt string; the
// plaintext PIN is never stored.
type Customer struct {
	ID        int64
	NIC       string
	Name      string
	PINHash   string
	DOB       string
	MobileNum string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput carries the fields required to open an account.
type CreateInput struct {
	NIC       string
	Name      string
	PIN       string
	DOB       string
	MobileNum string
}
