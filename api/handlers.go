package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bkern/mqttpki/pki"
)

func toSANs(entries []SubjectAltName) []pki.SAN {
	sans := make([]pki.SAN, 0, len(entries))
	for _, e := range entries {
		sans = append(sans, pki.SAN{Type: e.Type, Value: e.Value})
	}
	return sans
}

// GenerateClientCSR handles POST /csr/client. Generates a key pair and a
// client-auth CSR; the key is returned to the caller and discarded.
func (a *API) GenerateClientCSR(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[GenerateClientCSRRequest](w, r)
	if !ok {
		return
	}
	id := pki.Identity{
		CommonName:         req.CommonName,
		Organization:       req.Organization,
		OrganizationalUnit: req.OrganizationalUnit,
		Country:            req.Country,
		State:              req.State,
		Locality:           req.Locality,
		Email:              req.Email,
		SerialNumber:       req.SerialNumber,
	}
	a.respondCSR(w, r, pki.RoleClient, req.Curve, id, nil)
}

// GenerateBrokerCSR handles POST /csr/broker. Like the client variant but
// with the broker profile and optional SANs.
func (a *API) GenerateBrokerCSR(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[GenerateBrokerCSRRequest](w, r)
	if !ok {
		return
	}
	id := pki.Identity{
		CommonName:         req.CommonName,
		Organization:       req.Organization,
		OrganizationalUnit: req.OrganizationalUnit,
		Country:            req.Country,
		State:              req.State,
		Locality:           req.Locality,
		Email:              req.Email,
	}
	a.respondCSR(w, r, pki.RoleBroker, req.Curve, id, toSANs(req.SubjectAltNames))
}

func (a *API) respondCSR(w http.ResponseWriter, r *http.Request, role pki.Role, curve string, id pki.Identity, sans []pki.SAN) {
	bundle, err := pki.GenerateKeyAndCSR(role, curve, id, sans, a.keystore)
	if err != nil {
		a.auditFailure(r, err)
		mapError(w, err)
		return
	}
	details, err := pki.Describe(bundle.CSRPEM)
	if err != nil {
		mapError(w, err)
		return
	}

	attrs := []slog.Attr{
		slog.String("role", string(role)),
		slog.String("common_name", id.CommonName),
	}
	if len(sans) > 0 {
		if parsed, err := pki.ParseSANs(sans); err == nil {
			attrs = append(attrs, slog.String("subject_alt_names", strings.Join(pki.FormatSANs(parsed), ", ")))
		}
	}
	a.audit.log(AuditCSRGenerated, r, attrs...)

	writeJSON(w, http.StatusCreated, GenerateCSRResponse{
		PrivateKey: bundle.PrivateKeyPEM,
		PublicKey:  bundle.PublicKeyPEM,
		CSR:        bundle.CSRPEM,
		CSRDetails: details,
	})
}

// GenerateRootCA handles POST /ca.
func (a *API) GenerateRootCA(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[GenerateRootCARequest](w, r)
	if !ok {
		return
	}
	id := pki.Identity{
		CommonName:         req.CommonName,
		Organization:       req.Organization,
		OrganizationalUnit: req.OrganizationalUnit,
		Country:            req.Country,
		State:              req.State,
		Locality:           req.Locality,
		Email:              req.Email,
	}
	bundle, err := pki.IssueRootCA(req.Curve, id, req.ValidityDays, a.keystore)
	if err != nil {
		a.auditFailure(r, err)
		mapError(w, err)
		return
	}
	details, err := pki.Describe(bundle.CertPEM)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.log(AuditCAGenerated, r, slog.Int("validity_days", req.ValidityDays))

	writeJSON(w, http.StatusCreated, GenerateRootCAResponse{
		CAKey:       bundle.KeyPEM,
		CACert:      bundle.CertPEM,
		CertDetails: details,
	})
}

// SignClientCert handles POST /sign/client.
func (a *API) SignClientCert(w http.ResponseWriter, r *http.Request) {
	a.signCert(w, r, pki.RoleClient)
}

// SignBrokerCert handles POST /sign/broker.
func (a *API) SignBrokerCert(w http.ResponseWriter, r *http.Request) {
	a.signCert(w, r, pki.RoleBroker)
}

func (a *API) signCert(w http.ResponseWriter, r *http.Request, role pki.Role) {
	req, ok := decodeJSON[SignCertRequest](w, r)
	if !ok {
		return
	}
	certPEM, err := pki.SignCertificate(pki.SignRequest{
		Role:         role,
		CSRPEM:       req.CSR,
		CAKeyPEM:     req.CAKey,
		CACertPEM:    req.CACert,
		ValidityDays: req.ValidityDays,
		SANs:         toSANs(req.SubjectAltNames),
	}, a.serials)
	if err != nil {
		a.auditFailure(r, err)
		mapError(w, err)
		return
	}
	details, err := pki.Describe(certPEM)
	if err != nil {
		mapError(w, err)
		return
	}

	cert, err := pki.ParseCertificatePEM(certPEM)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditCertSigned, r,
		slog.String("role", string(role)),
		slog.String("subject", cert.Subject.String()),
		slog.String("serial_number", cert.SerialNumber.Text(16)),
	)

	writeJSON(w, http.StatusCreated, SignCertResponse{
		SignedCert:  certPEM,
		CertDetails: details,
	})
}

// Inspect handles POST /inspect: decode a PEM certificate or CSR for display.
func (a *API) Inspect(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[InspectRequest](w, r)
	if !ok {
		return
	}
	details, err := pki.Describe(req.PEM)
	if err != nil {
		a.auditFailure(r, err)
		mapError(w, err)
		return
	}
	a.audit.log(AuditInspect, r)
	writeJSON(w, http.StatusOK, InspectResponse{Details: details})
}

func (a *API) auditFailure(r *http.Request, err error) {
	a.audit.log(AuditRequestFailed, r,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}
