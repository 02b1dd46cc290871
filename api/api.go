// Package api exposes the issuance operations over JSON/HTTP. Every request
// is self-contained: the caller supplies whatever CA material an operation
// needs and receives all artifacts in the response. The handlers hold no
// cryptographic state between requests.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/bkern/mqttpki/pki"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	serials       pki.SerialSource
	keystore      pki.KeyStore
	audit         *auditLogger
	authTokenHash []byte
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithSerialSource sets the serial number allocator used by the signing
// endpoints. Defaults to random 128-bit serials.
func WithSerialSource(serials pki.SerialSource) Option {
	return func(a *API) {
		a.serials = serials
	}
}

// WithKeyStore sets the key store backing key generation. Defaults to a
// software store; an HSM-backed store can be swapped in here.
func WithKeyStore(ks pki.KeyStore) Option {
	return func(a *API) {
		a.keystore = ks
	}
}

// WithAuthTokenHash enables bearer-token authentication. The argument is a
// bcrypt hash of the expected token.
func WithAuthTokenHash(hash []byte) Option {
	return func(a *API) {
		a.authTokenHash = hash
	}
}

// New creates a new API instance.
func New(opts ...Option) *API {
	a := &API{
		serials: pki.RandomSerials{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.keystore == nil {
		a.keystore = pki.NewSoftwareKeyStore()
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(a.AuthMiddleware)
		r.Post("/csr/client", a.GenerateClientCSR)
		r.Post("/csr/broker", a.GenerateBrokerCSR)
		r.Post("/ca", a.GenerateRootCA)
		r.Post("/sign/client", a.SignClientCert)
		r.Post("/sign/broker", a.SignBrokerCert)
		r.Post("/inspect", a.Inspect)
	})

	return r
}
