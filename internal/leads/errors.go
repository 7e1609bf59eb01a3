package leads

import "errors"

var (
	// ErrLeadNotFound is returned when no lead matches the requested id.
	ErrLeadNotFound = errors.New("leads: lead not found")

	// ErrInvalidLead wraps request validation failures.
	ErrInvalidLead = errors.New("leads: invalid lead")
)
