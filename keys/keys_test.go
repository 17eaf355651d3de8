package keys_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/vault/internal/testutil"
	"github.com/meigma/vault/keys"
)

func TestWrapRoundTrip(t *testing.T) {
	t.Parallel()

	k := testutil.Keys(t)
	require.True(t, k.HasPublic())
	require.True(t, k.HasPrivate())

	secret := bytes.Repeat([]byte{0x42}, 32)
	wrapped, err := k.PublicEncrypt(secret)
	require.NoError(t, err)
	assert.Len(t, wrapped, keys.WrappedKeySize)

	got, err := k.PrivateDecrypt(wrapped)
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestPublicOnly(t *testing.T) {
	t.Parallel()

	full := testutil.Keys(t)
	pub := full.PublicOnly()
	assert.True(t, pub.HasPublic())
	assert.False(t, pub.HasPrivate())

	wrapped, err := pub.PublicEncrypt([]byte("key"))
	require.NoError(t, err)

	_, err = pub.PrivateDecrypt(wrapped)
	require.ErrorIs(t, err, keys.ErrNoPrivateKey)

	got, err := full.PrivateDecrypt(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), got)
}

func TestNilCapability(t *testing.T) {
	t.Parallel()

	var k *keys.RSA
	assert.False(t, k.HasPublic())
	assert.False(t, k.HasPrivate())

	_, err := k.PublicEncrypt([]byte("x"))
	require.ErrorIs(t, err, keys.ErrNoPublicKey)
}

func TestKeySize(t *testing.T) {
	t.Parallel()

	small, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = keys.FromPrivateKey(small)
	require.ErrorIs(t, err, keys.ErrKeySize)

	_, err = keys.FromPublicKey(&small.PublicKey)
	require.ErrorIs(t, err, keys.ErrKeySize)
}

func TestPEMRoundTrip(t *testing.T) {
	t.Parallel()

	k := testutil.Keys(t)

	t.Run("private", func(t *testing.T) {
		t.Parallel()
		data, err := k.MarshalPrivatePEM()
		require.NoError(t, err)

		parsed, err := keys.ParsePEM(data)
		require.NoError(t, err)
		assert.True(t, parsed.HasPrivate())
		assertSameKey(t, k, parsed)
	})

	t.Run("public", func(t *testing.T) {
		t.Parallel()
		data, err := k.MarshalPublicPEM()
		require.NoError(t, err)

		parsed, err := keys.ParsePEM(data)
		require.NoError(t, err)
		assert.True(t, parsed.HasPublic())
		assert.False(t, parsed.HasPrivate())

		wrapped, err := parsed.PublicEncrypt([]byte("abc"))
		require.NoError(t, err)
		got, err := k.PrivateDecrypt(wrapped)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
	})

	t.Run("public only cannot marshal private", func(t *testing.T) {
		t.Parallel()
		_, err := k.PublicOnly().MarshalPrivatePEM()
		require.ErrorIs(t, err, keys.ErrNoPrivateKey)
	})
}

func TestParsePEMFormats(t *testing.T) {
	t.Parallel()

	k := testutil.Keys(t)
	priv := extractPrivate(t, k)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	tests := []struct {
		name    string
		block   *pem.Block
		private bool
	}{
		{"pkcs8 private", &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}, true},
		{"pkcs1 public", &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			parsed, err := keys.ParsePEM(pem.EncodeToMemory(tt.block))
			require.NoError(t, err)
			assert.Equal(t, tt.private, parsed.HasPrivate())
		})
	}
}

func TestParsePEMSkipsUnknownBlocks(t *testing.T) {
	t.Parallel()

	k := testutil.Keys(t)
	pub, err := k.MarshalPublicPEM()
	require.NoError(t, err)

	data := append(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: []byte{1}}), pub...)
	parsed, err := keys.ParsePEM(data)
	require.NoError(t, err)
	assert.True(t, parsed.HasPublic())
}

func TestParsePEMNoKey(t *testing.T) {
	t.Parallel()

	_, err := keys.ParsePEM([]byte("not a pem file"))
	require.ErrorIs(t, err, keys.ErrNoKey)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	k := testutil.Keys(t)
	data, err := k.MarshalPrivatePEM()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "vault.pem")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := keys.LoadFile(path)
	require.NoError(t, err)
	assertSameKey(t, k, loaded)

	_, err = keys.LoadFile(filepath.Join(t.TempDir(), "missing.pem"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func assertSameKey(t *testing.T, want, got *keys.RSA) {
	t.Helper()
	wrapped, err := got.PublicEncrypt([]byte("probe"))
	require.NoError(t, err)
	plain, err := want.PrivateDecrypt(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []byte("probe"), plain)
}

func extractPrivate(t *testing.T, k *keys.RSA) *rsa.PrivateKey {
	t.Helper()
	data, err := k.MarshalPrivatePEM()
	require.NoError(t, err)
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	return priv
}
