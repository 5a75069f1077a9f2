package element

import (
	"github.com/usherd/usher/internal/protocol/packet"
)

// ClientAuth redeems a one-time login key at the base service.
type ClientAuth struct {
	LoginKey uint32
	Attempts byte
	Unknown  uint16
}

func (e ClientAuth) Encode() []byte {
	return packet.New(e.LoginKey, e.Attempts, e.Unknown).Buf()
}

func DecodeClientAuth(b []byte) (ClientAuth, bool) {
	p := packet.Wrap(b)
	var e ClientAuth
	var ok bool
	if e.LoginKey, ok = p.GetUint32(); !ok {
		return e, false
	}
	if e.Attempts, ok = p.GetByte(); !ok {
		return e, false
	}
	if e.Unknown, ok = p.GetUint16(); !ok {
		return e, false
	}
	return e, true
}

// ServerSessionKey is the base service's reply to a successful redemption.
type ServerSessionKey struct {
	SessionKey uint32
}

func (e ServerSessionKey) Encode() []byte {
	return packet.New(e.SessionKey).Buf()
}

func DecodeServerSessionKey(b []byte) (ServerSessionKey, bool) {
	p := packet.Wrap(b)
	var e ServerSessionKey
	var ok bool
	e.SessionKey, ok = p.GetUint32()
	return e, ok
}

// ClientSessionKey confirms the session key back to the base service and
// triggers the one-time bootstrap sequence.
type ClientSessionKey struct {
	SessionKey uint32
}

func (e ClientSessionKey) Encode() []byte {
	return packet.New(e.SessionKey).Buf()
}

func DecodeClientSessionKey(b []byte) (ClientSessionKey, bool) {
	p := packet.Wrap(b)
	var e ClientSessionKey
	var ok bool
	e.SessionKey, ok = p.GetUint32()
	return e, ok
}
