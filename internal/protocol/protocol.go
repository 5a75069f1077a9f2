// Package protocol defines the element type identifiers and fixed constants
// of the login/base wire protocol. Each service interprets identifiers in its
// own space, so values may repeat between the two directions.
package protocol

import "math"

// Version of the handshake protocol spoken by both services.
const Version = 1

// ElementID identifies the type of a single element inside a bundle.
type ElementID byte

// Elements understood by the login service.
const (
	LoginRequest    ElementID = 0x00
	Ping            ElementID = 0x02
	ChallengeAnswer ElementID = 0x03
)

// Elements understood by the base service.
const (
	ClientAuth       ElementID = 0x00
	ClientSessionKey ElementID = 0x01
)

// Elements sent to an established client.
const (
	UpdateFrequencyNotification ElementID = 0x02
	CreateBasePlayer            ElementID = 0x05
	TickSync                    ElementID = 0x14
)

// Reply is the reserved identifier for elements that answer an earlier
// request. The correlated request token is carried next to the payload.
const Reply ElementID = 0xff

// LoginResponseKind discriminates the sealed reply to a login request.
type LoginResponseKind byte

const (
	ResponseChallenge LoginResponseKind = 0
	ResponseSuccess   LoginResponseKind = 1
)

const (
	// ChallengeSpace is the nonce search space of the proof-of-work
	// challenge issued during login.
	ChallengeSpace = 1 << 20
	// ChallengeEasiness is the fraction of the search space a client is
	// allowed to explore.
	ChallengeEasiness = 0.9
)

// ChallengeMaxNonce bounds the nonce search at ChallengeEasiness of the
// search space.
var ChallengeMaxNonce = uint32(math.Floor(ChallengeEasiness * ChallengeSpace))

// Bootstrap constants sent to a freshly established client.
const (
	UpdateFrequency uint8  = 10
	PlayerEntityID  uint32 = 37289213
	PlayerEntityTyp uint16 = 11
)

// PlayerEntityData is the opaque initial state of the controlled entity.
var PlayerEntityData = []byte("\x00\x09518858105\x00")
