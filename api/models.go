package api

// SubjectAltName is a single SAN entry: type is "DNS" or "IP".
type SubjectAltName struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// GenerateClientCSRRequest is the JSON body for POST /csr/client.
// common_name, organization, country, state and locality are required.
type GenerateClientCSRRequest struct {
	CommonName         string `json:"common_name"`
	Organization       string `json:"organization"`
	OrganizationalUnit string `json:"organizational_unit,omitempty"`
	Country            string `json:"country"`
	State              string `json:"state"`
	Locality           string `json:"locality"`
	Email              string `json:"email,omitempty"`
	SerialNumber       string `json:"serial_number,omitempty"`
	Curve              string `json:"curve,omitempty"`
}

// GenerateBrokerCSRRequest is the JSON body for POST /csr/broker.
// Only common_name is required.
type GenerateBrokerCSRRequest struct {
	CommonName         string           `json:"common_name"`
	Organization       string           `json:"organization,omitempty"`
	OrganizationalUnit string           `json:"organizational_unit,omitempty"`
	Country            string           `json:"country,omitempty"`
	State              string           `json:"state,omitempty"`
	Locality           string           `json:"locality,omitempty"`
	Email              string           `json:"email,omitempty"`
	Curve              string           `json:"curve,omitempty"`
	SubjectAltNames    []SubjectAltName `json:"subject_alt_names,omitempty"`
}

// GenerateCSRResponse is returned from the CSR generation endpoints. The
// private key appears here and nowhere else; the server keeps no copy.
type GenerateCSRResponse struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	CSR        string `json:"csr"`
	CSRDetails string `json:"csr_details"`
}

// GenerateRootCARequest is the JSON body for POST /ca. Every field is
// optional; subject fields default server-side.
type GenerateRootCARequest struct {
	CommonName         string `json:"common_name,omitempty"`
	Organization       string `json:"organization,omitempty"`
	OrganizationalUnit string `json:"organizational_unit,omitempty"`
	Country            string `json:"country,omitempty"`
	State              string `json:"state,omitempty"`
	Locality           string `json:"locality,omitempty"`
	Email              string `json:"email,omitempty"`
	Curve              string `json:"curve,omitempty"`
	ValidityDays       int    `json:"validity_days,omitempty"`
}

// GenerateRootCAResponse is returned from POST /ca.
type GenerateRootCAResponse struct {
	CAKey       string `json:"ca_key"`
	CACert      string `json:"ca_cert"`
	CertDetails string `json:"cert_details"`
}

// SignCertRequest is the JSON body for POST /sign/client and
// POST /sign/broker. csr, ca_key and ca_cert are required; the CA pair is
// supplied on every request because the server persists no CA.
type SignCertRequest struct {
	CSR             string           `json:"csr"`
	CAKey           string           `json:"ca_key"`
	CACert          string           `json:"ca_cert"`
	ValidityDays    int              `json:"validity_days,omitempty"`
	SubjectAltNames []SubjectAltName `json:"subject_alt_names,omitempty"`
}

// SignCertResponse is returned from the signing endpoints.
type SignCertResponse struct {
	SignedCert  string `json:"signed_cert"`
	CertDetails string `json:"cert_details"`
}

// InspectRequest is the JSON body for POST /inspect.
type InspectRequest struct {
	PEM string `json:"pem"`
}

// InspectResponse is returned from POST /inspect.
type InspectResponse struct {
	Details string `json:"details"`
}

// ErrorResponse is the single error object returned on any failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
