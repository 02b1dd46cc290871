package pki_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/bkern/mqttpki/pki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveByName(t *testing.T) {
	tests := []struct {
		name string
		want elliptic.Curve
	}{
		{"", elliptic.P256()},
		{"P-256", elliptic.P256()},
		{"p-256", elliptic.P256()},
		{"PRIME256V1", elliptic.P256()},
		{"secp256r1", elliptic.P256()},
		{"P-384", elliptic.P384()},
		{"secp384r1", elliptic.P384()},
		{"P-521", elliptic.P521()},
		{"secp521r1", elliptic.P521()},
	}
	for _, tc := range tests {
		curve, err := pki.CurveByName(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, curve, tc.name)
	}

	_, err := pki.CurveByName("secp256k1")
	assert.ErrorIs(t, err, pki.ErrUnsupportedCurve)
	assert.ErrorIs(t, err, pki.ErrCrypto)
}

func TestSoftwareKeyStore_GenerateAndSign(t *testing.T) {
	ks := pki.NewSoftwareKeyStore()

	id, err := ks.GenerateKey("P-384")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	signer, err := ks.Signer(id)
	require.NoError(t, err)
	pub, ok := signer.Public().(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, elliptic.P384(), pub.Curve)
}

func TestSoftwareKeyStore_ExportImportRoundTrip(t *testing.T) {
	ks := pki.NewSoftwareKeyStore()

	id, err := ks.GenerateKey("")
	require.NoError(t, err)

	pemData, err := ks.ExportPEM(id)
	require.NoError(t, err)
	assert.Contains(t, pemData, "BEGIN EC PRIVATE KEY")

	imported, err := ks.ImportPEM(pemData)
	require.NoError(t, err)
	assert.NotEqual(t, id, imported)

	orig, err := ks.Signer(id)
	require.NoError(t, err)
	copied, err := ks.Signer(imported)
	require.NoError(t, err)
	assert.True(t, orig.Public().(*ecdsa.PublicKey).Equal(copied.Public()))
}

func TestSoftwareKeyStore_ImportPKCS8(t *testing.T) {
	ks := pki.NewSoftwareKeyStore()

	// PKCS#8-wrapped EC key, as produced by openssl genpkey.
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	id, err := ks.ImportPEM(pkcs8)
	require.NoError(t, err)

	signer, err := ks.Signer(id)
	require.NoError(t, err)
	pub, ok := signer.Public().(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, elliptic.P256(), pub.Curve)
}

func TestSoftwareKeyStore_ImportMalformed(t *testing.T) {
	ks := pki.NewSoftwareKeyStore()

	_, err := ks.ImportPEM("not pem")
	assert.ErrorIs(t, err, pki.ErrInvalidPEM)

	_, err = ks.ImportPEM("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n")
	assert.ErrorIs(t, err, pki.ErrInvalidPEM)
}

func TestSoftwareKeyStore_Delete(t *testing.T) {
	ks := pki.NewSoftwareKeyStore()

	id, err := ks.GenerateKey("")
	require.NoError(t, err)
	require.NoError(t, ks.Delete(id))

	_, err = ks.Signer(id)
	assert.ErrorIs(t, err, pki.ErrKeyNotFound)

	// Deleting a missing key is a no-op.
	assert.NoError(t, ks.Delete(id))
}
