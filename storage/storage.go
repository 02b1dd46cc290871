// Package storage defines the persistence boundary for serial number
// tracking. Issuance itself is stateless; the one piece of durable state is
// the per-CA serial counter, and only when the operator opts into counter
// serials instead of random ones.
package storage

// SerialStore tracks a monotonically increasing counter per CA certificate
// fingerprint. Next must be atomic: two concurrent calls for the same
// fingerprint never return the same value. A fingerprint seen for the first
// time starts at 1.
type SerialStore interface {
	Next(caFingerprint string) (uint64, error)
}
