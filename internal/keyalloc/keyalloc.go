// Package keyalloc produces the two kinds of numeric tokens the handshake
// needs: unguessable one-time login keys and strictly increasing session
// keys.
package keyalloc

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrExhausted is returned when the session key counter has issued every
// value of its 32-bit space. Issuing a wrapped key would collide with a
// live session, so callers must treat this as fatal.
var ErrExhausted = errors.New("keyalloc: session key space exhausted")

// Taken reports whether a candidate login key is already live.
type Taken func(key uint32) bool

// LoginKey draws random 32-bit values until one is not taken. Collisions
// are vanishingly rare for realistic numbers of pending clients, so the
// loop has no bound.
func LoginKey(taken Taken) (uint32, error) {
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("drawing login key: %w", err)
		}
		key := binary.LittleEndian.Uint32(buf[:])
		if !taken(key) {
			return key, nil
		}
	}
}

// SessionCounter issues session keys, starting at 1 and never repeating a
// value for the life of the process.
type SessionCounter struct {
	last uint32
}

func (c *SessionCounter) Next() (uint32, error) {
	if c.last == math.MaxUint32 {
		return 0, ErrExhausted
	}
	c.last++
	return c.last, nil
}
