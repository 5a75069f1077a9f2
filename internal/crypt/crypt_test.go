package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return priv
}

func TestWrapUnwrap(t *testing.T) {
	priv := testKey(t)

	plaintext := []byte("username and a blowfish key")
	blob, err := Wrap(&priv.PublicKey, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, blob)

	got, err := Unwrap(priv, blob)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestUnwrapGarbage(t *testing.T) {
	priv := testKey(t)
	_, err := Unwrap(priv, []byte("not an rsa blob"))
	require.Error(t, err)
}

func TestLoadPrivateKey(t *testing.T) {
	priv := testKey(t)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0600))

	got, err := LoadPrivateKey(path)
	require.NoError(t, err)
	require.True(t, priv.Equal(got))
}

func TestLoadPrivateKeyNotPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0600))

	_, err := LoadPrivateKey(path)
	require.Error(t, err)
}

func TestChannelSealOpen(t *testing.T) {
	channel, err := NewChannel([]byte("0123456789abcdef"))
	require.NoError(t, err)

	for _, plaintext := range [][]byte{
		{},
		[]byte("x"),
		[]byte("exactly 8 bytes!"), // multiple of the block size
		[]byte("a longer message spanning several blowfish blocks"),
	} {
		sealed := channel.Seal(plaintext)
		got, err := channel.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, got, "plaintext %q", plaintext)
	}
}

func TestChannelSealRandomized(t *testing.T) {
	channel, err := NewChannel([]byte("0123456789abcdef"))
	require.NoError(t, err)

	// fresh IV per datagram
	require.NotEqual(t, channel.Seal([]byte("same")), channel.Seal([]byte("same")))
}

func TestChannelOpenRejectsBadInput(t *testing.T) {
	channel, err := NewChannel([]byte("0123456789abcdef"))
	require.NoError(t, err)

	_, err = channel.Open([]byte("short"))
	require.ErrorIs(t, err, ErrBadCiphertext)

	// not a whole number of blocks
	sealed := channel.Seal([]byte("payload"))
	_, err = channel.Open(sealed[:len(sealed)-3])
	require.ErrorIs(t, err, ErrBadCiphertext)
}

func TestChannelRejectsEmptyKey(t *testing.T) {
	_, err := NewChannel(nil)
	require.Error(t, err)
}
