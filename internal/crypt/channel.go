package crypt

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

var ErrBadCiphertext = errors.New("crypt: malformed ciphertext")

// Channel is the symmetric cipher protecting traffic for one connection.
// The key is proposed by the client inside its login request and carried to
// the base service by the pending handoff entry; one Channel value follows
// the connection through the whole handoff.
type Channel struct {
	block cipher.Block
}

// NewChannel creates a channel cipher from the client-proposed key. Blowfish
// accepts keys of 1 to 56 bytes.
func NewChannel(key []byte) (*Channel, error) {
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("channel cipher: %w", err)
	}
	return &Channel{block: block}, nil
}

// Seal encrypts plaintext as iv || CBC(pad(plaintext)).
func (c *Channel) Seal(plaintext []byte) []byte {
	bs := c.block.BlockSize()
	padded := pad(plaintext, bs)

	out := make([]byte, bs+len(padded))
	iv := out[:bs]
	if _, err := rand.Read(iv); err != nil {
		// crypto/rand failing means no secure randomness at all.
		panic(err)
	}
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[bs:], padded)
	return out
}

// Open decrypts a datagram produced by Seal.
func (c *Channel) Open(ciphertext []byte) ([]byte, error) {
	bs := c.block.BlockSize()
	if len(ciphertext) < 2*bs || len(ciphertext)%bs != 0 {
		return nil, ErrBadCiphertext
	}

	iv, body := ciphertext[:bs], ciphertext[bs:]
	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, body)

	return unpad(plaintext, bs)
}

func pad(b []byte, bs int) []byte {
	n := bs - len(b)%bs
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(b []byte, bs int) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrBadCiphertext
	}
	n := int(b[len(b)-1])
	if n == 0 || n > bs || n > len(b) {
		return nil, ErrBadCiphertext
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrBadCiphertext
		}
	}
	return b[:len(b)-n], nil
}
