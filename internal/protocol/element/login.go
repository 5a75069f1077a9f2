// Package element defines the typed protocol elements exchanged during the
// login handshake and session establishment, and their encodings on top of
// the packet codec.
package element

import (
	"github.com/usherd/usher/internal/protocol/packet"
)

// Ping is a keepalive probe, echoed back with the same number.
type Ping struct {
	Num byte
}

func (e Ping) Encode() []byte {
	return packet.New(e.Num).Buf()
}

func DecodePing(b []byte) (Ping, bool) {
	p := packet.Wrap(b)
	num, ok := p.GetByte()
	return Ping{Num: num}, ok
}

// LoginRequest carries the client's credentials and its proposed symmetric
// key. On the wire the whole element payload is sealed with the login
// service's RSA public key; this type describes the unwrapped plaintext.
type LoginRequest struct {
	Username    string
	Password    string
	BlowfishKey []byte
}

func (e LoginRequest) Encode() []byte {
	return packet.New(e.Username, e.Password, byte(len(e.BlowfishKey)), e.BlowfishKey).Buf()
}

func DecodeLoginRequest(b []byte) (LoginRequest, bool) {
	p := packet.Wrap(b)
	var e LoginRequest
	var ok bool
	if e.Username, ok = p.GetString(); !ok {
		return e, false
	}
	if e.Password, ok = p.GetString(); !ok {
		return e, false
	}
	n, ok := p.GetByte()
	if !ok {
		return e, false
	}
	if e.BlowfishKey, ok = p.GetBytes(int(n)); !ok {
		return e, false
	}
	return e, true
}

// LoginChallenge asks the client to solve a proof-of-work puzzle before any
// credentials are issued.
type LoginChallenge struct {
	Prefix   string
	MaxNonce uint32
}

func (e LoginChallenge) Encode() []byte {
	return packet.New(e.Prefix, e.MaxNonce).Buf()
}

func DecodeLoginChallenge(b []byte) (LoginChallenge, bool) {
	p := packet.Wrap(b)
	var e LoginChallenge
	var ok bool
	if e.Prefix, ok = p.GetString(); !ok {
		return e, false
	}
	if e.MaxNonce, ok = p.GetUint32(); !ok {
		return e, false
	}
	return e, true
}

// ChallengeAnswer is the client's claimed solution to the issued challenge.
type ChallengeAnswer struct {
	Prefix string
	Nonce  uint32
}

func (e ChallengeAnswer) Encode() []byte {
	return packet.New(e.Prefix, e.Nonce).Buf()
}

func DecodeChallengeAnswer(b []byte) (ChallengeAnswer, bool) {
	p := packet.Wrap(b)
	var e ChallengeAnswer
	var ok bool
	if e.Prefix, ok = p.GetString(); !ok {
		return e, false
	}
	if e.Nonce, ok = p.GetUint32(); !ok {
		return e, false
	}
	return e, true
}

// LoginSuccess routes the client to the base service: the address to
// reconnect to and the one-time credential to present there.
type LoginSuccess struct {
	BaseAddr      string
	LoginKey      uint32
	ServerMessage string
}

func (e LoginSuccess) Encode() []byte {
	return packet.New(e.BaseAddr, e.LoginKey, e.ServerMessage).Buf()
}

func DecodeLoginSuccess(b []byte) (LoginSuccess, bool) {
	p := packet.Wrap(b)
	var e LoginSuccess
	var ok bool
	if e.BaseAddr, ok = p.GetString(); !ok {
		return e, false
	}
	if e.LoginKey, ok = p.GetUint32(); !ok {
		return e, false
	}
	if e.ServerMessage, ok = p.GetString(); !ok {
		return e, false
	}
	return e, true
}
