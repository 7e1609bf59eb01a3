package providers

import "errors"

var (
	// ErrProviderNotFound is returned when no provider matches the id.
	ErrProviderNotFound = errors.New("providers: provider not found")

	// ErrInvalidProvider wraps request validation failures.
	ErrInvalidProvider = errors.New("providers: invalid provider")

	// ErrNoFieldsToUpdate is returned for an empty patch.
	ErrNoFieldsToUpdate = errors.New("providers: no fields to update")
)
