package pki

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"net"
	"strings"
)

// ---------------------------------------------------------------------------
// Subject Alternative Names
// ---------------------------------------------------------------------------

// SAN type tags. Anything else is dropped silently rather than rejected,
// matching the permissive handling of the deployments this tool replaces.
const (
	SANTypeDNS = "DNS"
	SANTypeIP  = "IP"
)

// SAN is a single Subject Alternative Name entry.
type SAN struct {
	Type  string
	Value string
}

// ParseSANs normalizes a SAN list: values are trimmed, entries with empty
// values or unknown types are dropped. IP entries must parse as addresses.
func ParseSANs(entries []SAN) ([]SAN, error) {
	var out []SAN
	for _, e := range entries {
		value := strings.TrimSpace(e.Value)
		if value == "" {
			continue
		}
		switch e.Type {
		case SANTypeDNS:
			out = append(out, SAN{Type: SANTypeDNS, Value: value})
		case SANTypeIP:
			if net.ParseIP(value) == nil {
				return nil, fmt.Errorf("%w: invalid IP address %q in subject alternative names", ErrValidation, value)
			}
			out = append(out, SAN{Type: SANTypeIP, Value: value})
		}
	}
	return out, nil
}

// FormatSANs renders SAN entries with a 1-based index per type, so the first
// DNS entry is DNS.1 and the first IP entry is IP.1 regardless of their
// position in the list.
func FormatSANs(sans []SAN) []string {
	counts := make(map[string]int, 2)
	lines := make([]string, 0, len(sans))
	for _, s := range sans {
		counts[s.Type]++
		lines = append(lines, fmt.Sprintf("%s.%d = %s", s.Type, counts[s.Type], s.Value))
	}
	return lines
}

// splitSANs partitions normalized SAN entries for the x509 template fields.
func splitSANs(sans []SAN) (dnsNames []string, ipAddresses []net.IP) {
	for _, s := range sans {
		switch s.Type {
		case SANTypeDNS:
			dnsNames = append(dnsNames, s.Value)
		case SANTypeIP:
			ipAddresses = append(ipAddresses, net.ParseIP(s.Value))
		}
	}
	return dnsNames, ipAddresses
}

// ---------------------------------------------------------------------------
// Extension profiles
// ---------------------------------------------------------------------------

// ExtensionProfile is the fixed X.509v3 extension bundle for a role. The
// profile is always selected by the issuing side; a CSR's own requested
// extensions never influence it.
type ExtensionProfile struct {
	KeyUsage    x509.KeyUsage
	ExtKeyUsage []x509.ExtKeyUsage
	IsCA        bool
	SANs        []SAN
}

// ProfileFor returns the extension profile for a role. SANs are attached
// only for broker profiles and only when at least one valid entry survives
// normalization; an empty SAN extension is never declared.
func ProfileFor(role Role, sans []SAN) (ExtensionProfile, error) {
	switch role {
	case RoleClient:
		return ExtensionProfile{
			KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyAgreement,
			ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		}, nil
	case RoleBroker:
		parsed, err := ParseSANs(sans)
		if err != nil {
			return ExtensionProfile{}, err
		}
		return ExtensionProfile{
			KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageKeyAgreement,
			ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
			SANs:        parsed,
		}, nil
	case RoleCA:
		return ExtensionProfile{
			KeyUsage: x509.KeyUsageDigitalSignature | x509.KeyUsageCRLSign | x509.KeyUsageCertSign,
			IsCA:     true,
		}, nil
	default:
		return ExtensionProfile{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
}

// Extension OIDs.
var (
	oidExtKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtExtendedKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtSubjectAltName   = asn1.ObjectIdentifier{2, 5, 29, 17}
)

// Extended key usage OIDs (RFC 5280 §4.2.1.12).
var (
	oidEKUServerAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
	oidEKUClientAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 2}
)

type basicConstraints struct {
	IsCA bool `asn1:"optional"`
}

// RequestedExtensions encodes the profile's key usage, extended key usage
// and basic constraints as raw extensions for the CSR's extensionRequest
// attribute. SANs are excluded: x509.CreateCertificateRequest emits those
// from the template's DNSNames/IPAddresses fields.
func (p ExtensionProfile) RequestedExtensions() ([]pkix.Extension, error) {
	exts := make([]pkix.Extension, 0, 3)

	ku, err := marshalKeyUsage(p.KeyUsage)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding key usage: %v", ErrCrypto, err)
	}
	exts = append(exts, ku)

	if len(p.ExtKeyUsage) > 0 {
		var oids []asn1.ObjectIdentifier
		for _, eku := range p.ExtKeyUsage {
			switch eku {
			case x509.ExtKeyUsageServerAuth:
				oids = append(oids, oidEKUServerAuth)
			case x509.ExtKeyUsageClientAuth:
				oids = append(oids, oidEKUClientAuth)
			default:
				return nil, fmt.Errorf("%w: unsupported extended key usage %d", ErrCrypto, eku)
			}
		}
		der, err := asn1.Marshal(oids)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding extended key usage: %v", ErrCrypto, err)
		}
		exts = append(exts, pkix.Extension{Id: oidExtExtendedKeyUsage, Value: der})
	}

	bc, err := asn1.Marshal(basicConstraints{IsCA: p.IsCA})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding basic constraints: %v", ErrCrypto, err)
	}
	exts = append(exts, pkix.Extension{Id: oidExtBasicConstraints, Critical: true, Value: bc})

	return exts, nil
}

// marshalKeyUsage encodes a key usage bitmap as the ASN.1 BIT STRING
// extension value. Bit 0 (digitalSignature) is the most significant bit of
// the first octet, so each octet is bit-reversed from the Go bitmap.
func marshalKeyUsage(ku x509.KeyUsage) (pkix.Extension, error) {
	var a [2]byte
	a[0] = reverseBits(byte(ku))
	a[1] = reverseBits(byte(ku >> 8))

	l := 1
	if a[1] != 0 {
		l = 2
	}
	bits := a[:l]

	der, err := asn1.Marshal(asn1.BitString{Bytes: bits, BitLength: bitStringLength(bits)})
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: oidExtKeyUsage, Critical: true, Value: der}, nil
}

func reverseBits(b byte) byte {
	var out byte
	for i := 0; i < 8; i++ {
		out = out<<1 | b&1
		b >>= 1
	}
	return out
}

// bitStringLength returns the number of significant bits, excluding trailing
// zero bits of the last octet.
func bitStringLength(bits []byte) int {
	length := len(bits) * 8
	for i := len(bits) - 1; i >= 0; i-- {
		if bits[i] == 0 {
			length -= 8
			continue
		}
		for b := bits[i]; b&1 == 0; b >>= 1 {
			length--
		}
		break
	}
	return length
}
