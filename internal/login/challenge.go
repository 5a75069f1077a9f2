package login

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/usherd/usher/internal/protocol"
	"github.com/usherd/usher/internal/protocol/element"
)

// Challenge is a proof-of-work puzzle: find a nonce below MaxNonce that
// works for the given prefix.
type Challenge struct {
	Prefix   string
	MaxNonce uint32
}

// NewChallenge draws a random 64-bit nonce prefix and bounds the search at
// a fixed fraction of the search space.
func NewChallenge() (Challenge, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Challenge{}, fmt.Errorf("drawing challenge prefix: %w", err)
	}
	return Challenge{
		Prefix:   fmt.Sprintf("%02X", binary.BigEndian.Uint64(buf[:])),
		MaxNonce: protocol.ChallengeMaxNonce,
	}, nil
}

// Verifier checks a claimed solution against the challenge it was issued
// for.
type Verifier interface {
	Verify(issued *Challenge, answer element.ChallengeAnswer) bool
}

// Permissive returns a verifier that accepts any answer. Completion of the
// round trip, not correctness of the solution, is what gates login here.
func Permissive() Verifier { return permissive{} }

type permissive struct{}

func (permissive) Verify(*Challenge, element.ChallengeAnswer) bool { return true }
