package element

import (
	"github.com/usherd/usher/internal/protocol/packet"
)

// TickSync stamps the following element with the service's current tick,
// truncated to one byte.
type TickSync struct {
	Tick byte
}

func (e TickSync) Encode() []byte {
	return packet.New(e.Tick).Buf()
}

func DecodeTickSync(b []byte) (TickSync, bool) {
	p := packet.Wrap(b)
	tick, ok := p.GetByte()
	return TickSync{Tick: tick}, ok
}

// UpdateFrequencyNotification tells the client the server's tick rate and
// the current game time in whole seconds.
type UpdateFrequencyNotification struct {
	Frequency uint8
	GameTime  uint32
}

func (e UpdateFrequencyNotification) Encode() []byte {
	return packet.New(byte(e.Frequency), e.GameTime).Buf()
}

func DecodeUpdateFrequencyNotification(b []byte) (UpdateFrequencyNotification, bool) {
	p := packet.Wrap(b)
	var e UpdateFrequencyNotification
	freq, ok := p.GetByte()
	if !ok {
		return e, false
	}
	e.Frequency = freq
	if e.GameTime, ok = p.GetUint32(); !ok {
		return e, false
	}
	return e, true
}

// CreateBasePlayer describes the client's controlled entity.
type CreateBasePlayer struct {
	EntityID   uint32
	EntityType uint16
	EntityData []byte
}

func (e CreateBasePlayer) Encode() []byte {
	return packet.New(e.EntityID, e.EntityType, uint16(len(e.EntityData)), e.EntityData).Buf()
}

func DecodeCreateBasePlayer(b []byte) (CreateBasePlayer, bool) {
	p := packet.Wrap(b)
	var e CreateBasePlayer
	var ok bool
	if e.EntityID, ok = p.GetUint32(); !ok {
		return e, false
	}
	if e.EntityType, ok = p.GetUint16(); !ok {
		return e, false
	}
	n, ok := p.GetUint16()
	if !ok {
		return e, false
	}
	if e.EntityData, ok = p.GetBytes(int(n)); !ok {
		return e, false
	}
	return e, true
}
