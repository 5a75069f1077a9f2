// Package bundle implements the multi-element message batch exchanged over a
// host: ordered typed elements, optionally carrying a request token the
// receiver must answer, or answering one themselves.
package bundle

import (
	"errors"
	"io"

	"github.com/usherd/usher/internal/protocol"
	"github.com/usherd/usher/internal/protocol/packet"
)

const (
	flagRequest byte = 1 << 0
	flagReply   byte = 1 << 1
)

var ErrTruncated = errors.New("bundle: truncated element")

// Element is one typed message inside a bundle.
type Element struct {
	ID protocol.ElementID
	// RequestID is nonzero when the sender expects a correlated reply.
	RequestID uint32
	// ReplyTo is nonzero when this element answers an earlier request; the
	// element ID is then protocol.Reply.
	ReplyTo uint32
	Payload []byte
}

// Bundle accumulates elements for sending.
type Bundle struct {
	p *packet.Packet
}

func New() *Bundle {
	return &Bundle{p: packet.New()}
}

// Add appends a free-standing element.
func (b *Bundle) Add(id protocol.ElementID, payload []byte) {
	b.add(id, 0, 0, payload)
}

// AddRequest appends an element carrying a request token the receiver is
// expected to answer with AddReply.
func (b *Bundle) AddRequest(id protocol.ElementID, payload []byte, requestID uint32) {
	b.add(id, requestID, 0, payload)
}

// AddReply appends an element answering the request identified by replyTo.
func (b *Bundle) AddReply(payload []byte, replyTo uint32) {
	b.add(protocol.Reply, 0, replyTo, payload)
}

func (b *Bundle) add(id protocol.ElementID, requestID, replyTo uint32, payload []byte) {
	var flags byte
	if requestID != 0 {
		flags |= flagRequest
	}
	if replyTo != 0 {
		flags |= flagReply
	}
	b.p.Put(byte(id), flags)
	if requestID != 0 {
		b.p.Put(requestID)
	}
	if replyTo != 0 {
		b.p.Put(replyTo)
	}
	b.p.Put(uint16(len(payload)), payload)
}

func (b *Bundle) Bytes() []byte { return b.p.Buf() }

func (b *Bundle) Clear() { b.p.Clear() }

// Reader decodes elements from a received datagram one at a time, in
// arrival order.
type Reader struct {
	p *packet.Packet
}

func NewReader(data []byte) *Reader {
	return &Reader{p: packet.Wrap(data)}
}

// Next returns the next element. It returns io.EOF when the bundle is
// exhausted and ErrTruncated when the remaining bytes do not form a
// complete element.
func (r *Reader) Next() (Element, error) {
	if !r.p.HasRemaining() {
		return Element{}, io.EOF
	}

	var el Element
	id, ok := r.p.GetByte()
	if !ok {
		return Element{}, ErrTruncated
	}
	el.ID = protocol.ElementID(id)

	flags, ok := r.p.GetByte()
	if !ok {
		return Element{}, ErrTruncated
	}
	if flags&flagRequest != 0 {
		if el.RequestID, ok = r.p.GetUint32(); !ok {
			return Element{}, ErrTruncated
		}
	}
	if flags&flagReply != 0 {
		if el.ReplyTo, ok = r.p.GetUint32(); !ok {
			return Element{}, ErrTruncated
		}
	}

	length, ok := r.p.GetUint16()
	if !ok {
		return Element{}, ErrTruncated
	}
	if el.Payload, ok = r.p.GetBytes(int(length)); !ok {
		return Element{}, ErrTruncated
	}

	return el, nil
}
