package pki

import (
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"log/slog"
)

// CSRBundle is the result of a key + CSR generation: a complete, consistent
// triple. None of it is retained by the issuer after the call returns.
type CSRBundle struct {
	PrivateKeyPEM string
	PublicKeyPEM  string
	CSRPEM        string
}

// GenerateKeyAndCSR generates a fresh ECDSA key pair on the named curve and
// a CSR carrying the role's subject and requested extension profile. The
// public key is always derived from the generated private key.
//
// The operation is atomic from the caller's perspective: either the full
// bundle is returned or an error, with no partial artifact observable. The
// staged key is released from the store on both paths; a release failure is
// logged, never propagated.
//
// ks may be nil, in which case a fresh SoftwareKeyStore is used.
func GenerateKeyAndCSR(role Role, curve string, id Identity, sans []SAN, ks KeyStore) (*CSRBundle, error) {
	// Validation short-circuits before any key material exists.
	subject, err := BuildSubject(role, id)
	if err != nil {
		return nil, err
	}
	profile, err := ProfileFor(role, sans)
	if err != nil {
		return nil, err
	}
	reqExts, err := profile.RequestedExtensions()
	if err != nil {
		return nil, err
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

	dnsNames, ipAddresses := splitSANs(profile.SANs)
	template := &x509.CertificateRequest{
		RawSubject:      subject.Raw,
		DNSNames:        dnsNames,
		IPAddresses:     ipAddresses,
		ExtraExtensions: reqExts,
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, template, signer)
	if err != nil {
		return nil, fmt.Errorf("%w: creating certificate request: %v", ErrCrypto, err)
	}

	privPEM, err := ks.ExportPEM(keyID)
	if err != nil {
		return nil, err
	}
	pubPEM, err := EncodePublicKeyPEM(signer.Public())
	if err != nil {
		return nil, err
	}

	return &CSRBundle{
		PrivateKeyPEM: privPEM,
		PublicKeyPEM:  pubPEM,
		CSRPEM:        EncodeCSRPEM(der),
	}, nil
}
