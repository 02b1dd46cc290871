package pki

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Role selects the certificate profile: MQTT client leaf, broker leaf, or
// the root CA itself.
type Role string

const (
	RoleClient Role = "client"
	RoleBroker Role = "broker"
	RoleCA     Role = "ca"
)

// Identity holds the user-supplied subject fields. SerialNumber here is the
// free-text subject attribute, not the certificate's serial number.
type Identity struct {
	CommonName         string
	Organization       string
	OrganizationalUnit string
	Country            string
	State              string
	Locality           string
	Email              string
	SerialNumber       string
}

// DN attribute OIDs, in the canonical emission order
// C, ST, L, O, OU, CN, serialNumber, emailAddress.
var (
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidSerialNumber       = asn1.ObjectIdentifier{2, 5, 4, 5}
	oidEmailAddress       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// clientRequiredFields are the subject fields a client CSR must carry in
// addition to the Common Name required by every role.
var clientRequiredFields = []struct {
	name  string
	value func(*Identity) string
}{
	{"organization", func(id *Identity) string { return id.Organization }},
	{"country", func(id *Identity) string { return id.Country }},
	{"state", func(id *Identity) string { return id.State }},
	{"locality", func(id *Identity) string { return id.Locality }},
}

// Subject is a validated, canonically ordered Distinguished Name ready for
// embedding in a CSR or certificate.
type Subject struct {
	// RDNs holds one attribute per RDN in canonical order.
	RDNs pkix.RDNSequence
	// Raw is the DER encoding of RDNs.
	Raw []byte
}

// CommonName returns the CN attribute value.
func (s *Subject) CommonName() string {
	for _, rdn := range s.RDNs {
		for _, atv := range rdn {
			if atv.Type.Equal(oidCommonName) {
				if v, ok := atv.Value.(string); ok {
					return v
				}
			}
		}
	}
	return ""
}

// String renders the DN in its canonical attribute order.
func (s *Subject) String() string {
	return formatRDNSequence(s.RDNs)
}

// BuildSubject validates identity fields for the given role and assembles
// the Distinguished Name. Client CSRs require CN, O, C, ST and L; broker and
// CA subjects require only CN. Absent optional fields are omitted entirely.
func BuildSubject(role Role, id Identity) (*Subject, error) {
	id = normalizeIdentity(id)

	if id.CommonName == "" {
		return nil, fmt.Errorf("%w: common name is required", ErrValidation)
	}
	if role == RoleClient {
		for _, f := range clientRequiredFields {
			if f.value(&id) == "" {
				return nil, fmt.Errorf("%w: %s is required for client certificates", ErrValidation, f.name)
			}
		}
	}

	var rdns pkix.RDNSequence
	add := func(oid asn1.ObjectIdentifier, value string) {
		if value == "" {
			return
		}
		rdns = append(rdns, []pkix.AttributeTypeAndValue{{Type: oid, Value: value}})
	}
	add(oidCountry, id.Country)
	add(oidProvince, id.State)
	add(oidLocality, id.Locality)
	add(oidOrganization, id.Organization)
	add(oidOrganizationalUnit, id.OrganizationalUnit)
	add(oidCommonName, id.CommonName)
	add(oidSerialNumber, id.SerialNumber)
	if id.Email != "" {
		// emailAddress is IA5String per PKCS#9; the default string encoding
		// would produce UTF8String.
		rdns = append(rdns, []pkix.AttributeTypeAndValue{{
			Type: oidEmailAddress,
			Value: asn1.RawValue{
				Class: asn1.ClassUniversal,
				Tag:   asn1.TagIA5String,
				Bytes: []byte(id.Email),
			},
		}})
	}

	raw, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding subject: %v", ErrCrypto, err)
	}
	return &Subject{RDNs: rdns, Raw: raw}, nil
}

// normalizeIdentity trims whitespace and NFC-normalizes every field so that
// visually identical input always produces byte-identical DNs.
func normalizeIdentity(id Identity) Identity {
	n := func(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }
	return Identity{
		CommonName:         n(id.CommonName),
		Organization:       n(id.Organization),
		OrganizationalUnit: n(id.OrganizationalUnit),
		Country:            n(id.Country),
		State:              n(id.State),
		Locality:           n(id.Locality),
		Email:              n(id.Email),
		SerialNumber:       n(id.SerialNumber),
	}
}

// attributeName maps a DN attribute OID to its short name.
func attributeName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid.Equal(oidCountry):
		return "C"
	case oid.Equal(oidProvince):
		return "ST"
	case oid.Equal(oidLocality):
		return "L"
	case oid.Equal(oidOrganization):
		return "O"
	case oid.Equal(oidOrganizationalUnit):
		return "OU"
	case oid.Equal(oidCommonName):
		return "CN"
	case oid.Equal(oidSerialNumber):
		return "serialNumber"
	case oid.Equal(oidEmailAddress):
		return "emailAddress"
	default:
		return oid.String()
	}
}

// formatRDNSequence renders a DN preserving the encoded attribute order,
// unlike pkix.Name which reorders fields on round-trip.
func formatRDNSequence(rdns pkix.RDNSequence) string {
	var parts []string
	for _, rdn := range rdns {
		for _, atv := range rdn {
			var value string
			switch v := atv.Value.(type) {
			case string:
				value = v
			case asn1.RawValue:
				value = string(v.Bytes)
			default:
				value = fmt.Sprint(v)
			}
			parts = append(parts, attributeName(atv.Type)+"="+value)
		}
	}
	return strings.Join(parts, ", ")
}
