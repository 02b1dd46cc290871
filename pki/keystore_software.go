package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

// ---------------------------------------------------------------------------
// SoftwareKeyStore — default implementation backed by in-memory ECDSA keys
// ---------------------------------------------------------------------------

// SoftwareKeyStore holds ECDSA private keys in memory for the duration of a
// request. Keys are identified by an opaque string generated at creation
// time. Nothing is persisted: the caller exports what it needs and the key
// is discarded with the store.
//
// Safe for concurrent use; issuance requests may share one store.
type SoftwareKeyStore struct {
	mu   sync.Mutex
	keys map[string]*ecdsa.PrivateKey
	rand io.Reader // defaults to crypto/rand.Reader
	seq  int       // monotonic counter for key IDs
}

// Compile-time interface check.
var _ KeyStore = (*SoftwareKeyStore)(nil)

// NewSoftwareKeyStore returns a SoftwareKeyStore ready for use.
func NewSoftwareKeyStore() *SoftwareKeyStore {
	return &SoftwareKeyStore{
		keys: make(map[string]*ecdsa.PrivateKey),
		rand: rand.Reader,
	}
}

func (s *SoftwareKeyStore) nextID() string {
	s.seq++
	return fmt.Sprintf("sw-%d", s.seq)
}

// GenerateKey creates a new ECDSA key pair on the named curve.
func (s *SoftwareKeyStore) GenerateKey(curve string) (string, error) {
	params, err := CurveByName(curve)
	if err != nil {
		return "", err
	}
	priv, err := ecdsa.GenerateKey(params, s.rand)
	if err != nil {
		return "", fmt.Errorf("%w: generating ECDSA %s key: %v", ErrCrypto, params.Params().Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.keys[id] = priv
	return id, nil
}

// Signer returns the *ecdsa.PrivateKey (which implements crypto.Signer).
func (s *SoftwareKeyStore) Signer(keyID string) (crypto.Signer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	priv, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	return priv, nil
}

// ExportPEM encodes the private key as SEC1 "EC PRIVATE KEY" PEM. The
// intermediate DER encoding is staged in a locked buffer and wiped before
// returning on every path.
func (s *SoftwareKeyStore) ExportPEM(keyID string) (string, error) {
	s.mu.Lock()
	priv, ok := s.keys[keyID]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("%w: encoding private key: %v", ErrCrypto, err)
	}
	// NewBufferFromBytes wipes der; Destroy wipes the staged copy.
	staged := memguard.NewBufferFromBytes(der)
	defer staged.Destroy()
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: staged.Bytes()})), nil
}

// ImportPEM parses an EC private key PEM block and stores it. Both SEC1 and
// PKCS#8 encodings are accepted.
func (s *SoftwareKeyStore) ImportPEM(pemData string) (string, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return "", fmt.Errorf("%w: no PEM block found", ErrInvalidPEM)
	}

	var priv *ecdsa.PrivateKey
	var err error

	switch block.Type {
	case "EC PRIVATE KEY":
		priv, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, e := x509.ParsePKCS8PrivateKey(block.Bytes)
		if e != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPEM, e)
		}
		var ok bool
		priv, ok = key.(*ecdsa.PrivateKey)
		if !ok {
			return "", fmt.Errorf("%w: not an ECDSA key", ErrInvalidPEM)
		}
	default:
		return "", fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidPEM, block.Type)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.keys[id] = priv
	return id, nil
}

// Delete removes the key from memory and zeroes its scalar in place.
func (s *SoftwareKeyStore) Delete(keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if priv, ok := s.keys[keyID]; ok {
		bits := priv.D.Bits()
		for i := range bits {
			bits[i] = 0
		}
	}
	delete(s.keys, keyID)
	return nil
}
