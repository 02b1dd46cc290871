package pki

import (
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"log/slog"
	"time"
)

// Default validity periods in days.
const (
	DefaultCAValidityDays   = 3650
	DefaultLeafValidityDays = 365
)

// Root CA subject defaults, used for any field the caller leaves empty.
const (
	defaultCACommonName   = "Root CA"
	defaultCAOrganization = "Organization"
	defaultCACountry      = "US"
	defaultCAState        = "California"
	defaultCALocality     = "San Francisco"
)

// CABundle is a root CA key pair plus its self-signed certificate. Like
// every artifact here it exists only in the response; callers persist it
// themselves and supply it back on each signing request.
type CABundle struct {
	KeyPEM  string
	CertPEM string
}

// IssueRootCA generates a key pair on the named curve and a self-signed
// root certificate (issuer == subject) carrying the CA extension profile.
// Unspecified subject fields fall back to the package defaults; validityDays
// <= 0 falls back to DefaultCAValidityDays.
//
// ks may be nil, in which case a fresh SoftwareKeyStore is used.
func IssueRootCA(curve string, id Identity, validityDays int, ks KeyStore) (*CABundle, error) {
	applyCADefaults(&id)
	subject, err := BuildSubject(RoleCA, id)
	if err != nil {
		return nil, err
	}
	profile, err := ProfileFor(RoleCA, nil)
	if err != nil {
		return nil, err
	}
	if validityDays <= 0 {
		validityDays = DefaultCAValidityDays
	}

	if ks == nil {
		ks = NewSoftwareKeyStore()
	}
	keyID, err := ks.GenerateKey(curve)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ks.Delete(keyID); err != nil {
			slog.Warn("releasing staged key failed", "key_id", keyID, "error", err)
		}
	}()

	signer, err := ks.Signer(keyID)
	if err != nil {
		return nil, err
	}

	serial, err := RandomSerials{}.Next(nil)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          serial,
		RawSubject:            subject.Raw,
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, validityDays),
		KeyUsage:              profile.KeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, fmt.Errorf("%w: creating CA certificate: %v", ErrCrypto, err)
	}

	keyPEM, err := ks.ExportPEM(keyID)
	if err != nil {
		return nil, err
	}
	return &CABundle{KeyPEM: keyPEM, CertPEM: EncodeCertificatePEM(der)}, nil
}

func applyCADefaults(id *Identity) {
	if id.CommonName == "" {
		id.CommonName = defaultCACommonName
	}
	if id.Organization == "" {
		id.Organization = defaultCAOrganization
	}
	if id.Country == "" {
		id.Country = defaultCACountry
	}
	if id.State == "" {
		id.State = defaultCAState
	}
	if id.Locality == "" {
		id.Locality = defaultCALocality
	}
}
