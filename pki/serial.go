package pki

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bkern/mqttpki/storage"
)

// SerialSource allocates certificate serial numbers for signing operations.
// Every serial handed out for the same CA certificate must differ from every
// serial previously handed out for it.
type SerialSource interface {
	Next(caCert *x509.Certificate) (*big.Int, error)
}

// CAFingerprint returns the hex SHA-256 digest of the CA certificate DER.
// It identifies a CA across requests without retaining the certificate.
func CAFingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// RandomSerials — stateless default
// ---------------------------------------------------------------------------

// RandomSerials draws 128-bit serial numbers from crypto/rand. With that
// much entropy collisions under one CA are not a practical concern, so no
// state needs to survive the request.
type RandomSerials struct{}

var _ SerialSource = RandomSerials{}

var serialLimit = new(big.Int).Lsh(big.NewInt(1), 128)

// Next returns a fresh random serial. The CA certificate is ignored.
func (RandomSerials) Next(*x509.Certificate) (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: generating serial number: %v", ErrCrypto, err)
	}
	return serial, nil
}

// ---------------------------------------------------------------------------
// CounterSerials — monotonic counter per CA certificate
// ---------------------------------------------------------------------------

// CounterSerials allocates monotonically increasing serials, tracked per CA
// certificate fingerprint in a SerialStore. The store's increment is atomic,
// so concurrent signings against the same CA never repeat a serial.
type CounterSerials struct {
	store storage.SerialStore
}

var _ SerialSource = (*CounterSerials)(nil)

// NewCounterSerials returns a CounterSerials backed by the given store.
func NewCounterSerials(store storage.SerialStore) *CounterSerials {
	return &CounterSerials{store: store}
}

// Next increments and returns the counter for the CA certificate.
func (c *CounterSerials) Next(caCert *x509.Certificate) (*big.Int, error) {
	n, err := c.store.Next(CAFingerprint(caCert))
	if err != nil {
		return nil, fmt.Errorf("%w: allocating serial number: %v", ErrResource, err)
	}
	return new(big.Int).SetUint64(n), nil
}
