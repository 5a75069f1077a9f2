// Package crypt owns the key material lifecycle of the handshake: loading
// the login service's RSA private key, unwrapping the login blob a client
// seals with the matching public key, and the per-connection Blowfish
// channel cipher negotiated during login.
package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// LoadPrivateKey reads a PKCS#8 PEM-encoded RSA private key from path.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block in private key file")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, not RSA", key)
	}
	return rsaKey, nil
}

// Unwrap decrypts a login blob sealed against the service's public key.
func Unwrap(priv *rsa.PrivateKey, blob []byte) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping login blob: %w", err)
	}
	return plaintext, nil
}

// Wrap seals a login blob with the service's public key. Used by clients
// and tests; the server only unwraps.
func Wrap(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	blob, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("wrapping login blob: %w", err)
	}
	return blob, nil
}
