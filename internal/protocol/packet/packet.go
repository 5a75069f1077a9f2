// Package packet implements the byte-level codec shared by all protocol
// elements: fixed-width little-endian integers and length-prefixed strings.
package packet

import (
	"encoding/binary"
	"log"
)

type Packet struct {
	buf []byte
	pos int
}

func New(args ...interface{}) *Packet {
	p := &Packet{}
	p.Put(args...)
	return p
}

// Wrap returns a packet reading from b. The slice is not copied.
func Wrap(b []byte) *Packet {
	return &Packet{buf: b}
}

func (p *Packet) Len() int { return len(p.buf) }

func (p *Packet) HasRemaining() bool { return p.pos < p.Len() }

// Bytes returns the unread remainder of the packet.
func (p *Packet) Bytes() []byte { return p.buf[p.pos:] }

// Buf returns the full encoded packet regardless of read position.
func (p *Packet) Buf() []byte { return p.buf }

func (p *Packet) Clear() {
	p.buf = p.buf[:0]
	p.pos = 0
}

// Appends all arguments to the packet.
func (p *Packet) Put(args ...interface{}) {
	for _, arg := range args {
		switch v := arg.(type) {
		case byte:
			p.buf = append(p.buf, v)

		case uint16:
			p.buf = binary.LittleEndian.AppendUint16(p.buf, v)

		case uint32:
			p.buf = binary.LittleEndian.AppendUint32(p.buf, v)

		case uint64:
			p.buf = binary.LittleEndian.AppendUint64(p.buf, v)

		case int:
			p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(v))

		case bool:
			if v {
				p.buf = append(p.buf, 1)
			} else {
				p.buf = append(p.buf, 0)
			}

		case []byte:
			p.buf = append(p.buf, v...)

		case string:
			p.putString(v)

		case *Packet:
			p.buf = append(p.buf, v.buf...)

		default:
			log.Printf("unhandled type %T of arg %v\n", v, v)
		}
	}
}

// Appends a string as a one-byte length followed by its bytes. Strings
// longer than 255 bytes are truncated.
func (p *Packet) putString(s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	p.buf = append(p.buf, byte(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *Packet) GetByte() (byte, bool) {
	if p.pos >= p.Len() {
		return 0, false
	}
	b := p.buf[p.pos]
	p.pos++
	return b, true
}

func (p *Packet) GetUint16() (uint16, bool) {
	if p.pos+2 > p.Len() {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(p.buf[p.pos:])
	p.pos += 2
	return v, true
}

func (p *Packet) GetUint32() (uint32, bool) {
	if p.pos+4 > p.Len() {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v, true
}

func (p *Packet) GetUint64() (uint64, bool) {
	if p.pos+8 > p.Len() {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v, true
}

func (p *Packet) GetBool() (bool, bool) {
	b, ok := p.GetByte()
	return b != 0, ok
}

func (p *Packet) GetString() (string, bool) {
	n, ok := p.GetByte()
	if !ok || p.pos+int(n) > p.Len() {
		return "", false
	}
	s := string(p.buf[p.pos : p.pos+int(n)])
	p.pos += int(n)
	return s, true
}

// GetBytes reads exactly n bytes.
func (p *Packet) GetBytes(n int) ([]byte, bool) {
	if n < 0 || p.pos+n > p.Len() {
		return nil, false
	}
	b := p.buf[p.pos : p.pos+n]
	p.pos += n
	return b, true
}
