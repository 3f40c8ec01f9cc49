package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	pemBytes := testPEM(t)

	blob, err := EncryptKeyPEM(pemBytes, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKeyPEM(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, pemBytes, got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptKeyPEM(testPEM(t), "hunter2")
	require.NoError(t, err)

	_, err = DecryptKeyPEM(blob, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestEncryptRejectsNonPEM(t *testing.T) {
	_, err := EncryptKeyPEM([]byte("not a key"), "hunter2")
	require.Error(t, err)
}

func TestEncryptRequiresPassword(t *testing.T) {
	_, err := EncryptKeyPEM(testPEM(t), "")
	require.Error(t, err)
}

func TestLoadKeyPEMPlainFile(t *testing.T) {
	pemBytes := testPEM(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	got, err := LoadKeyPEM(KeyConfig{PEMPath: path})
	require.NoError(t, err)
	assert.Equal(t, pemBytes, got)
}

func TestLoadKeyPEMEncryptedFile(t *testing.T) {
	pemBytes := testPEM(t)
	blob, err := EncryptKeyPEM(pemBytes, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.enc.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadKeyPEM(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, pemBytes, got)
}

func TestLoadKeyPEMNoSource(t *testing.T) {
	_, err := LoadKeyPEM(KeyConfig{})
	require.Error(t, err)
}

func TestLoadKeyPEMRejectsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := LoadKeyPEM(KeyConfig{PEMPath: path})
	require.Error(t, err)
}
