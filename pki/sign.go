package pki

import (
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"time"
)

// SignRequest holds everything needed to sign a CSR into a leaf certificate.
// CSRPEM, CAKeyPEM and CACertPEM are required. The CA pair is supplied by
// the caller on every request; nothing is retained between calls.
type SignRequest struct {
	Role         Role
	CSRPEM       string
	CAKeyPEM     string
	CACertPEM    string
	ValidityDays int
	SANs         []SAN
}

// SignCertificate signs a CSR with the supplied CA key and certificate,
// producing a leaf certificate.
//
// The subject is copied verbatim from the CSR's encoded DN. The extension
// profile is selected from the requested role and SAN list alone — whatever
// extensions the CSR asked for are ignored, so a CSR cannot grant itself CA
// or server-auth capability.
//
// serials may be nil, in which case random serial numbers are used.
func SignCertificate(req SignRequest, serials SerialSource) (string, error) {
	if req.Role != RoleClient && req.Role != RoleBroker {
		return "", fmt.Errorf("%w: role must be client or broker, got %q", ErrValidation, req.Role)
	}
	if req.CSRPEM == "" {
		return "", fmt.Errorf("%w: csr is required", ErrValidation)
	}
	if req.CAKeyPEM == "" {
		return "", fmt.Errorf("%w: ca key is required", ErrValidation)
	}
	if req.CACertPEM == "" {
		return "", fmt.Errorf("%w: ca certificate is required", ErrValidation)
	}
	profile, err := ProfileFor(req.Role, req.SANs)
	if err != nil {
		return "", err
	}

	csr, err := ParseCSRPEM(req.CSRPEM)
	if err != nil {
		return "", fmt.Errorf("%w: csr: %v", ErrCrypto, err)
	}
	if err := csr.CheckSignature(); err != nil {
		return "", fmt.Errorf("%w: csr signature invalid: %v", ErrCrypto, err)
	}
	caCert, err := ParseCertificatePEM(req.CACertPEM)
	if err != nil {
		return "", fmt.Errorf("%w: ca certificate: %v", ErrCrypto, err)
	}
	caKey, err := ParsePrivateKeyPEM(req.CAKeyPEM)
	if err != nil {
		return "", fmt.Errorf("%w: ca key: %v", ErrCrypto, err)
	}

	if serials == nil {
		serials = RandomSerials{}
	}
	serial, err := serials.Next(caCert)
	if err != nil {
		return "", err
	}

	validityDays := req.ValidityDays
	if validityDays <= 0 {
		validityDays = DefaultLeafValidityDays
	}

	dnsNames, ipAddresses := splitSANs(profile.SANs)
	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          serial,
		RawSubject:            csr.RawSubject,
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, validityDays),
		KeyUsage:              profile.KeyUsage,
		ExtKeyUsage:           profile.ExtKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, csr.PublicKey, caKey)
	if err != nil {
		return "", fmt.Errorf("%w: signing certificate: %v", ErrCrypto, err)
	}
	return EncodeCertificatePEM(der), nil
}
