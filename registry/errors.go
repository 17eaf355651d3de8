package registry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrNotFound is returned when a vault does not exist at the reference.
	ErrNotFound = errors.New("registry: not found")

	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("registry: unauthorized")

	// ErrForbidden is returned when access is denied.
	ErrForbidden = errors.New("registry: forbidden")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when a manifest is not a valid vault manifest.
	ErrInvalidManifest = errors.New("registry: invalid vault manifest")

	// ErrDigestMismatch is returned when content does not match its expected digest.
	ErrDigestMismatch = errors.New("registry: digest mismatch")

	// ErrTooLarge is returned when a manifest or layer exceeds the configured limit.
	ErrTooLarge = errors.New("registry: content too large")
)
