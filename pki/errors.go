package pki

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrValidation is returned when required input is missing or malformed.
	// It short-circuits before any cryptographic work begins.
	ErrValidation = errors.New("validation failed")

	// ErrCrypto is returned when a cryptographic operation fails: key
	// generation, CSR signature verification, or certificate signing.
	ErrCrypto = errors.New("cryptographic operation failed")

	// ErrResource is returned when request-scoped staging storage cannot be
	// created or released. Cleanup failures are logged, never propagated.
	ErrResource = errors.New("resource failure")

	// ErrInvalidPEM is returned when PEM data cannot be decoded or parsed.
	ErrInvalidPEM = errors.New("invalid PEM data")

	// ErrUnsupportedCurve is returned for an unrecognized curve name.
	// It is a cryptographic failure: errors.Is(err, ErrCrypto) holds.
	ErrUnsupportedCurve = fmt.Errorf("%w: unsupported curve", ErrCrypto)

	// ErrKeyNotFound is returned when the referenced key ID does not exist.
	ErrKeyNotFound = errors.New("key not found")
)
