package packet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundtrip(t *testing.T) {
	p := New(byte(7), uint16(512), uint32(0xdeadbeef), uint64(1<<40), "hello", true, []byte{1, 2, 3})

	b, ok := p.GetByte()
	require.True(t, ok)
	require.Equal(t, byte(7), b)

	u16, ok := p.GetUint16()
	require.True(t, ok)
	require.Equal(t, uint16(512), u16)

	u32, ok := p.GetUint32()
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), u32)

	u64, ok := p.GetUint64()
	require.True(t, ok)
	require.Equal(t, uint64(1<<40), u64)

	s, ok := p.GetString()
	require.True(t, ok)
	require.Equal(t, "hello", s)

	v, ok := p.GetBool()
	require.True(t, ok)
	require.True(t, v)

	rest, ok := p.GetBytes(3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, rest)

	require.False(t, p.HasRemaining())
}

func TestLongStringTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	p := New(long)

	s, ok := p.GetString()
	require.True(t, ok)
	require.Len(t, s, 255)
}

func TestShortReads(t *testing.T) {
	p := Wrap([]byte{1, 2})

	_, ok := p.GetUint32()
	require.False(t, ok)

	// a failed read must not consume anything
	u16, ok := p.GetUint16()
	require.True(t, ok)
	require.Equal(t, uint16(0x0201), u16)

	_, ok = p.GetByte()
	require.False(t, ok)
}

func TestTruncatedString(t *testing.T) {
	p := Wrap([]byte{5, 'a', 'b'})
	_, ok := p.GetString()
	require.False(t, ok)
}
