package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// PEM block types handled by this package.
const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypeCSR         = "CERTIFICATE REQUEST"
	pemTypeECKey       = "EC PRIVATE KEY"
	pemTypePKCS8Key    = "PRIVATE KEY"
	pemTypePublicKey   = "PUBLIC KEY"
)

// EncodeCertificatePEM wraps DER certificate bytes in a PEM block.
func EncodeCertificatePEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: der}))
}

// EncodeCSRPEM wraps DER certificate request bytes in a PEM block.
func EncodeCSRPEM(der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: pemTypeCSR, Bytes: der}))
}

// EncodePublicKeyPEM encodes a public key as PKIX "PUBLIC KEY" PEM.
func EncodePublicKeyPEM(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: encoding public key: %v", ErrCrypto, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der})), nil
}

// ParseCertificatePEM decodes a single PEM certificate.
func ParseCertificatePEM(pemText string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("%w: expected a %s block", ErrInvalidPEM, pemTypeCertificate)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	return cert, nil
}

// ParseCSRPEM decodes a single PEM certificate request.
func ParseCSRPEM(pemText string) (*x509.CertificateRequest, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != pemTypeCSR {
		return nil, fmt.Errorf("%w: expected a %s block", ErrInvalidPEM, pemTypeCSR)
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	return csr, nil
}

// ParsePrivateKeyPEM decodes an ECDSA private key in SEC1 or PKCS#8 PEM form.
func ParsePrivateKeyPEM(pemText string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPEM)
	}
	switch block.Type {
	case pemTypeECKey:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
		}
		return key, nil
	case pemTypePKCS8Key:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
		}
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an ECDSA key", ErrInvalidPEM)
		}
		return ecKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidPEM, block.Type)
	}
}
