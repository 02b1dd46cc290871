package pki

import (
	"crypto"
	"crypto/elliptic"
	"fmt"
	"strings"
)

// KeyStore abstracts private-key operations so issuance can work with
// in-memory software keys today and HSM/KMS-backed keys without changing
// calling code. A KeyID uniquely identifies a key managed by the store; its
// format is implementation-defined.
type KeyStore interface {
	// GenerateKey creates a new ECDSA signing key on the named curve and
	// returns an opaque identifier. For HSM/KMS backends the private key
	// never leaves the device.
	GenerateKey(curve string) (keyID string, err error)

	// Signer returns a [crypto.Signer] for the key identified by keyID.
	// x509.CreateCertificateRequest and x509.CreateCertificate only need
	// Sign and Public().
	Signer(keyID string) (crypto.Signer, error)

	// ExportPEM returns the private key as SEC1 "EC PRIVATE KEY" PEM.
	// Hardware-backed implementations may return ErrKeyNotExportable.
	ExportPEM(keyID string) (string, error)

	// ImportPEM loads a PEM-encoded EC private key into the store and
	// returns its key ID.
	ImportPEM(pemData string) (keyID string, err error)

	// Delete removes the key identified by keyID from the store, wiping
	// any software key material it held.
	Delete(keyID string) error
}

// ErrKeyNotExportable is returned by KeyStore.ExportPEM when the backing
// store does not allow private key material to leave the device.
var ErrKeyNotExportable = fmt.Errorf("private key is not exportable")

// DefaultCurve is used when the caller does not name a curve.
const DefaultCurve = "P-256"

// namedCurves maps accepted curve names to their parameters. OpenSSL-style
// aliases are included because broker provisioning scripts commonly use them.
var namedCurves = map[string]elliptic.Curve{
	"p-256":      elliptic.P256(),
	"prime256v1": elliptic.P256(),
	"secp256r1":  elliptic.P256(),
	"p-384":      elliptic.P384(),
	"secp384r1":  elliptic.P384(),
	"p-521":      elliptic.P521(),
	"secp521r1":  elliptic.P521(),
}

// CurveByName resolves a curve name, case-insensitively. The empty string
// resolves to DefaultCurve.
func CurveByName(name string) (elliptic.Curve, error) {
	if name == "" {
		name = DefaultCurve
	}
	curve, ok := namedCurves[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, name)
	}
	return curve, nil
}
