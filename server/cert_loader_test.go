package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomis52/goexample/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeKeyPair writes a self-signed certificate for commonName.
func writeKeyPair(t *testing.T, dir, commonName string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile := filepath.Join(dir, "tls.crt")
	keyFile := filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func commonName(t *testing.T, l *CertLoader) string {
	t.Helper()
	cert, err := l.GetCertificate(nil)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestCertLoader_Reload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	l, err := NewCertLoader(certFile, keyFile, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "first", commonName(t, l))

	writeKeyPair(t, dir, "second")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(certFile, future, future))

	// Within the check interval the cached pair is served.
	assert.Equal(t, "first", commonName(t, l))

	l.interval = 0
	assert.Equal(t, "second", commonName(t, l))
}

func TestCertLoader_KeepsOldPairOnError(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first")

	l, err := NewCertLoader(certFile, keyFile, logging.Discard())
	require.NoError(t, err)
	l.interval = 0

	require.NoError(t, os.Remove(keyFile))
	assert.Equal(t, "first", commonName(t, l))
}

func TestNewCertLoader_MissingFiles(t *testing.T) {
	_, err := NewCertLoader("missing.crt", "missing.key", logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load key pair")
}
