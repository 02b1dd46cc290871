package pki

import (
	"crypto/ecdsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net"
	"strings"
)

// validityTimeLayout matches the OpenSSL text output for certificate dates.
const validityTimeLayout = "Jan _2 15:04:05 2006 MST"

// Describe renders a PEM certificate or CSR as human-readable text for
// operator display: version, subject, issuer, validity and extensions. Pure
// decode-and-render; malformed input fails with ErrValidation.
func Describe(pemText string) (string, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return "", fmt.Errorf("%w: no PEM block found", ErrValidation)
	}
	switch block.Type {
	case pemTypeCertificate:
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return describeCertificate(cert), nil
	case pemTypeCSR:
		csr, err := x509.ParseCertificateRequest(block.Bytes)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return describeCSR(csr), nil
	default:
		return "", fmt.Errorf("%w: unexpected PEM type %q", ErrValidation, block.Type)
	}
}

func describeCertificate(cert *x509.Certificate) string {
	var b strings.Builder
	b.WriteString("Certificate:\n")
	b.WriteString("    Data:\n")
	fmt.Fprintf(&b, "        Version: %d (0x%x)\n", cert.Version, cert.Version-1)
	fmt.Fprintf(&b, "        Serial Number:\n            %s\n", formatSerialHex(cert.SerialNumber.Bytes()))
	fmt.Fprintf(&b, "        Signature Algorithm: %s\n", cert.SignatureAlgorithm)
	fmt.Fprintf(&b, "        Issuer: %s\n", rawDNString(cert.RawIssuer, cert.Issuer))
	b.WriteString("        Validity\n")
	fmt.Fprintf(&b, "            Not Before: %s\n", cert.NotBefore.UTC().Format(validityTimeLayout))
	fmt.Fprintf(&b, "            Not After : %s\n", cert.NotAfter.UTC().Format(validityTimeLayout))
	fmt.Fprintf(&b, "        Subject: %s\n", rawDNString(cert.RawSubject, cert.Subject))
	b.WriteString("        Subject Public Key Info:\n")
	fmt.Fprintf(&b, "            Public Key Algorithm: %s\n", publicKeyAlgorithmString(cert.PublicKeyAlgorithm, cert.PublicKey))
	b.WriteString("        X509v3 extensions:\n")

	if cert.BasicConstraintsValid {
		b.WriteString("            X509v3 Basic Constraints: critical\n")
		fmt.Fprintf(&b, "                CA:%s\n", strings.ToUpper(fmt.Sprint(cert.IsCA)))
	}
	if cert.KeyUsage != 0 {
		b.WriteString("            X509v3 Key Usage: critical\n")
		fmt.Fprintf(&b, "                %s\n", strings.Join(keyUsageNames(cert.KeyUsage), ", "))
	}
	if len(cert.ExtKeyUsage) > 0 {
		b.WriteString("            X509v3 Extended Key Usage:\n")
		fmt.Fprintf(&b, "                %s\n", strings.Join(extKeyUsageNames(cert.ExtKeyUsage), ", "))
	}
	if len(cert.SubjectKeyId) > 0 {
		b.WriteString("            X509v3 Subject Key Identifier:\n")
		fmt.Fprintf(&b, "                %s\n", formatSerialHex(cert.SubjectKeyId))
	}
	if len(cert.AuthorityKeyId) > 0 {
		b.WriteString("            X509v3 Authority Key Identifier:\n")
		fmt.Fprintf(&b, "                %s\n", formatSerialHex(cert.AuthorityKeyId))
	}
	if san := sanString(cert.DNSNames, cert.IPAddresses); san != "" {
		b.WriteString("            X509v3 Subject Alternative Name:\n")
		fmt.Fprintf(&b, "                %s\n", san)
	}
	return b.String()
}

func describeCSR(csr *x509.CertificateRequest) string {
	var b strings.Builder
	b.WriteString("Certificate Request:\n")
	b.WriteString("    Data:\n")
	fmt.Fprintf(&b, "        Version: %d (0x%x)\n", csr.Version+1, csr.Version)
	fmt.Fprintf(&b, "        Subject: %s\n", rawDNString(csr.RawSubject, csr.Subject))
	b.WriteString("        Subject Public Key Info:\n")
	fmt.Fprintf(&b, "            Public Key Algorithm: %s\n", publicKeyAlgorithmString(csr.PublicKeyAlgorithm, csr.PublicKey))
	fmt.Fprintf(&b, "        Signature Algorithm: %s\n", csr.SignatureAlgorithm)

	if len(csr.Extensions) == 0 {
		return b.String()
	}
	b.WriteString("        Requested Extensions:\n")
	for _, ext := range csr.Extensions {
		switch {
		case ext.Id.Equal(oidExtBasicConstraints):
			var bc basicConstraints
			if _, err := asn1.Unmarshal(ext.Value, &bc); err == nil {
				fmt.Fprintf(&b, "            X509v3 Basic Constraints:%s\n", criticalSuffix(ext))
				fmt.Fprintf(&b, "                CA:%s\n", strings.ToUpper(fmt.Sprint(bc.IsCA)))
			}
		case ext.Id.Equal(oidExtKeyUsage):
			if ku, err := parseKeyUsage(ext.Value); err == nil {
				fmt.Fprintf(&b, "            X509v3 Key Usage:%s\n", criticalSuffix(ext))
				fmt.Fprintf(&b, "                %s\n", strings.Join(keyUsageNames(ku), ", "))
			}
		case ext.Id.Equal(oidExtExtendedKeyUsage):
			var oids []asn1.ObjectIdentifier
			if _, err := asn1.Unmarshal(ext.Value, &oids); err == nil {
				fmt.Fprintf(&b, "            X509v3 Extended Key Usage:%s\n", criticalSuffix(ext))
				fmt.Fprintf(&b, "                %s\n", strings.Join(ekuOIDNames(oids), ", "))
			}
		case ext.Id.Equal(oidExtSubjectAltName):
			if san := sanString(csr.DNSNames, csr.IPAddresses); san != "" {
				fmt.Fprintf(&b, "            X509v3 Subject Alternative Name:%s\n", criticalSuffix(ext))
				fmt.Fprintf(&b, "                %s\n", san)
			}
		default:
			fmt.Fprintf(&b, "            %s:%s\n", ext.Id, criticalSuffix(ext))
		}
	}
	return b.String()
}

func criticalSuffix(ext pkix.Extension) string {
	if ext.Critical {
		return " critical"
	}
	return ""
}

// rawDNString renders a DN from its raw encoding to preserve attribute
// order; pkix.Name reorders fields on round-trip.
func rawDNString(raw []byte, fallback pkix.Name) string {
	var rdns pkix.RDNSequence
	if _, err := asn1.Unmarshal(raw, &rdns); err == nil {
		return formatRDNSequence(rdns)
	}
	return fallback.String()
}

func publicKeyAlgorithmString(alg x509.PublicKeyAlgorithm, pub any) string {
	if key, ok := pub.(*ecdsa.PublicKey); ok {
		return fmt.Sprintf("ECDSA %s", key.Curve.Params().Name)
	}
	return alg.String()
}

// formatSerialHex renders bytes as colon-separated uppercase hex octets.
func formatSerialHex(b []byte) string {
	s := strings.ToUpper(hex.EncodeToString(b))
	pairs := make([]string, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		pairs = append(pairs, s[i:i+2])
	}
	return strings.Join(pairs, ":")
}

// sanString renders SAN values the way OpenSSL text output does.
func sanString(dnsNames []string, ipAddresses []net.IP) string {
	parts := make([]string, 0, len(dnsNames)+len(ipAddresses))
	for _, name := range dnsNames {
		parts = append(parts, "DNS:"+name)
	}
	for _, ip := range ipAddresses {
		parts = append(parts, "IP Address:"+ip.String())
	}
	return strings.Join(parts, ", ")
}

var keyUsageLabels = []struct {
	usage x509.KeyUsage
	name  string
}{
	{x509.KeyUsageDigitalSignature, "Digital Signature"},
	{x509.KeyUsageContentCommitment, "Non Repudiation"},
	{x509.KeyUsageKeyEncipherment, "Key Encipherment"},
	{x509.KeyUsageDataEncipherment, "Data Encipherment"},
	{x509.KeyUsageKeyAgreement, "Key Agreement"},
	{x509.KeyUsageCertSign, "Certificate Sign"},
	{x509.KeyUsageCRLSign, "CRL Sign"},
	{x509.KeyUsageEncipherOnly, "Encipher Only"},
	{x509.KeyUsageDecipherOnly, "Decipher Only"},
}

func keyUsageNames(ku x509.KeyUsage) []string {
	var names []string
	for _, l := range keyUsageLabels {
		if ku&l.usage != 0 {
			names = append(names, l.name)
		}
	}
	return names
}

func extKeyUsageNames(ekus []x509.ExtKeyUsage) []string {
	var names []string
	for _, eku := range ekus {
		switch eku {
		case x509.ExtKeyUsageServerAuth:
			names = append(names, "TLS Web Server Authentication")
		case x509.ExtKeyUsageClientAuth:
			names = append(names, "TLS Web Client Authentication")
		default:
			names = append(names, fmt.Sprintf("Unknown (%d)", eku))
		}
	}
	return names
}

func ekuOIDNames(oids []asn1.ObjectIdentifier) []string {
	var names []string
	for _, oid := range oids {
		switch {
		case oid.Equal(oidEKUServerAuth):
			names = append(names, "TLS Web Server Authentication")
		case oid.Equal(oidEKUClientAuth):
			names = append(names, "TLS Web Client Authentication")
		default:
			names = append(names, oid.String())
		}
	}
	return names
}

// parseKeyUsage decodes a KeyUsage extension value, the inverse of
// marshalKeyUsage.
func parseKeyUsage(der []byte) (x509.KeyUsage, error) {
	var bits asn1.BitString
	if _, err := asn1.Unmarshal(der, &bits); err != nil {
		return 0, err
	}
	var ku x509.KeyUsage
	for i := 0; i < 9; i++ {
		if bits.At(i) != 0 {
			ku |= 1 << uint(i)
		}
	}
	return ku, nil
}
