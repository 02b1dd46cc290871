package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bkern/mqttpki/pki"
)

// Error kinds reported to callers.
const (
	kindValidation = "validation_error"
	kindCrypto     = "crypto_error"
	kindResource   = "resource_error"
	kindInternal   = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// mapError translates pki errors into the response contract: validation
// failures are the caller's fault, everything else is a server-side failure.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pki.ErrValidation):
		writeError(w, http.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, pki.ErrCrypto):
		writeError(w, http.StatusInternalServerError, kindCrypto, err.Error())
	case errors.Is(err, pki.ErrResource):
		writeError(w, http.StatusInternalServerError, kindResource, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
	}
}

// maxBodySize bounds request bodies; PEM artifacts are small.
const maxBodySize = 1 << 20

// decodeJSON reads and decodes a JSON request body into T, writing the error
// response itself when decoding fails.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, kindValidation, fmt.Sprintf("invalid request body: %v", err))
		return v, false
	}
	return v, true
}
