package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bkern/mqttpki/api"
	"github.com/bkern/mqttpki/pki"
	"github.com/bkern/mqttpki/storage/memory"
)

func setupServer(t *testing.T, opts ...api.Option) *httptest.Server {
	t.Helper()
	opts = append([]api.Option{
		api.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	a := api.New(opts...)
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func clientCSRBody() api.GenerateClientCSRRequest {
	return api.GenerateClientCSRRequest{
		CommonName:   "device-001",
		Organization: "Acme",
		Country:      "US",
		State:        "California",
		Locality:     "San Francisco",
	}
}

// newCA issues a root CA through the API for use in signing tests.
func newCA(t *testing.T, srv *httptest.Server) api.GenerateRootCAResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/ca", api.GenerateRootCARequest{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[api.GenerateRootCAResponse](t, resp)
}

func TestGenerateClientCSR(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", clientCSRBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	body := decodeBody[api.GenerateCSRResponse](t, resp)
	assert.Contains(t, body.PrivateKey, "BEGIN EC PRIVATE KEY")
	assert.Contains(t, body.PublicKey, "BEGIN PUBLIC KEY")
	assert.Contains(t, body.CSR, "BEGIN CERTIFICATE REQUEST")
	assert.Contains(t, body.CSRDetails, "CN=device-001")
	assert.Contains(t, body.CSRDetails, "TLS Web Client Authentication")
}

func TestGenerateClientCSR_MissingFields(t *testing.T) {
	srv := setupServer(t)

	req := clientCSRBody()
	req.Organization = ""
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_error", body.Kind)
	assert.Contains(t, body.Error, "organization")
}

func TestGenerateClientCSR_UnknownField(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", map[string]string{
		"common_name": "device-001",
		"surprise":    "field",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_error", body.Kind)
}

func TestGenerateClientCSR_UnsupportedCurve(t *testing.T) {
	srv := setupServer(t)

	req := clientCSRBody()
	req.Curve = "ed25519"
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", req)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "crypto_error", body.Kind)
}

func TestGenerateBrokerCSR_SANs(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/broker", api.GenerateBrokerCSRRequest{
		CommonName: "broker.local",
		SubjectAltNames: []api.SubjectAltName{
			{Type: "DNS", Value: "broker.local"},
			{Type: "IP", Value: "10.0.0.5"},
			{Type: "URI", Value: "dropped silently"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[api.GenerateCSRResponse](t, resp)
	assert.Contains(t, body.CSRDetails, "TLS Web Server Authentication")
	assert.Contains(t, body.CSRDetails, "DNS:broker.local, IP Address:10.0.0.5")
}

func TestGenerateBrokerCSR_InvalidIPSAN(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/broker", api.GenerateBrokerCSRRequest{
		CommonName:      "broker.local",
		SubjectAltNames: []api.SubjectAltName{{Type: "IP", Value: "300.1.1.1"}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_error", body.Kind)
}

func TestGenerateRootCA_Defaults(t *testing.T) {
	srv := setupServer(t)

	ca := newCA(t, srv)
	assert.Contains(t, ca.CAKey, "BEGIN EC PRIVATE KEY")
	assert.Contains(t, ca.CACert, "BEGIN CERTIFICATE")
	assert.Contains(t, ca.CertDetails, "CN=Root CA")
	assert.Contains(t, ca.CertDetails, "CA:TRUE")

	cert, err := pki.ParseCertificatePEM(ca.CACert)
	require.NoError(t, err)
	assert.True(t, cert.IsCA)
}

func TestSignClientCert(t *testing.T) {
	srv := setupServer(t)
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", clientCSRBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	csr := decodeBody[api.GenerateCSRResponse](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sign/client", api.SignCertRequest{
		CSR:    csr.CSR,
		CAKey:  ca.CAKey,
		CACert: ca.CACert,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[api.SignCertResponse](t, resp)
	assert.Contains(t, body.SignedCert, "BEGIN CERTIFICATE")
	assert.Contains(t, body.CertDetails, "CN=device-001")
	assert.Contains(t, body.CertDetails, "CA:FALSE")
	assert.Contains(t, body.CertDetails, "TLS Web Client Authentication")

	cert, err := pki.ParseCertificatePEM(body.SignedCert)
	require.NoError(t, err)
	caCert, err := pki.ParseCertificatePEM(ca.CACert)
	require.NoError(t, err)
	assert.NoError(t, cert.CheckSignatureFrom(caCert))
}

func TestSignBrokerCert_SANsFromRequest(t *testing.T) {
	srv := setupServer(t)
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/broker", api.GenerateBrokerCSRRequest{
		CommonName: "broker.local",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	csr := decodeBody[api.GenerateCSRResponse](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sign/broker", api.SignCertRequest{
		CSR:    csr.CSR,
		CAKey:  ca.CAKey,
		CACert: ca.CACert,
		SubjectAltNames: []api.SubjectAltName{
			{Type: "DNS", Value: "broker.local"},
			{Type: "IP", Value: "10.0.0.5"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[api.SignCertResponse](t, resp)
	assert.Contains(t, body.CertDetails, "TLS Web Server Authentication")
	assert.Contains(t, body.CertDetails, "DNS:broker.local, IP Address:10.0.0.5")
}

func TestSignCert_MissingCSR(t *testing.T) {
	srv := setupServer(t)
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sign/client", api.SignCertRequest{
		CAKey:  ca.CAKey,
		CACert: ca.CACert,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_error", body.Kind)
}

func TestSignCert_MalformedCSR(t *testing.T) {
	srv := setupServer(t)
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sign/client", api.SignCertRequest{
		CSR:    "not a csr",
		CAKey:  ca.CAKey,
		CACert: ca.CACert,
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "crypto_error", body.Kind)
}

func TestSignCert_CounterSerials(t *testing.T) {
	srv := setupServer(t, api.WithSerialSource(pki.NewCounterSerials(memory.NewStore())))
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/csr/client", clientCSRBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	csr := decodeBody[api.GenerateCSRResponse](t, resp)

	sign := func() int64 {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sign/client", api.SignCertRequest{
			CSR:    csr.CSR,
			CAKey:  ca.CAKey,
			CACert: ca.CACert,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[api.SignCertResponse](t, resp)
		cert, err := pki.ParseCertificatePEM(body.SignedCert)
		require.NoError(t, err)
		return cert.SerialNumber.Int64()
	}

	assert.Equal(t, int64(1), sign())
	assert.Equal(t, int64(2), sign())
}

func TestInspect(t *testing.T) {
	srv := setupServer(t)
	ca := newCA(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inspect", api.InspectRequest{PEM: ca.CACert})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[api.InspectResponse](t, resp)
	assert.Contains(t, body.Details, "Certificate:")
	assert.Contains(t, body.Details, "CN=Root CA")
}

func TestInspect_Malformed(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inspect", api.InspectRequest{PEM: "garbage"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_error", body.Kind)
}

func TestAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := setupServer(t, api.WithAuthTokenHash(hash))

	// No token.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inspect", api.InspectRequest{PEM: "x"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Wrong token.
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/api/v1/inspect",
		strings.NewReader(`{"pem":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Valid token reaches the handler.
	req, err = http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/api/v1/inspect",
		strings.NewReader(`{"pem":"garbage"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestOpenAPIDocumentServed(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "openapi: 3.0.3")
}
