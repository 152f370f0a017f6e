package customer

import "errors"

// Error classifications returned by Service. Handlers map them to HTTP
// statuses; callers compare with errors.Is.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidIdentity    = errors.New("invalid NIC format")
	ErrInvalidPIN         = errors.New("pin must be at most 72 bytes")
	ErrDuplicateIdentity  = errors.New("customer with this NIC already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("customer not found")
	ErrStorage            = errors.New("storage failure")
)

// Code returns the machine-readable reason for err, or "internal" for
// anything outside the taxonomy.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, ErrInvalidPIN):
		return "invalid_pin"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "internal"
	}
}
