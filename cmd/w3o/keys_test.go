package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePEM(t *testing.T, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handle.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), 0o600))
	return path
}

func TestLoadHandleKeyIsStable(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	path := writePEM(t, "EC PRIVATE KEY", der)

	first, err := loadHandleKey(path)
	require.NoError(t, err)
	second, err := loadHandleKey(path)
	require.NoError(t, err)
	assert.True(t, first.Equal(key))
	assert.True(t, second.Equal(first), "restarts sign with the same key")
}

func TestLoadHandleKeyPKCS8(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	loaded, err := loadHandleKey(writePEM(t, "PRIVATE KEY", der))
	require.NoError(t, err)
	assert.True(t, loaded.Equal(key))
}

func TestLoadHandleKeyErrors(t *testing.T) {
	_, err := loadHandleKey(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.pem")
	require.NoError(t, os.WriteFile(path, []byte("not pem"), 0o600))
	_, err = loadHandleKey(path)
	assert.Error(t, err)

	other, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(other)
	require.NoError(t, err)
	_, err = loadHandleKey(writePEM(t, "EC PRIVATE KEY", der))
	assert.ErrorContains(t, err, "P-256")
}

func TestLoadHandleKeyEphemeral(t *testing.T) {
	key, err := loadHandleKey("")
	require.NoError(t, err)
	assert.Equal(t, elliptic.P256(), key.Curve)
}
