// Package host wraps one UDP endpoint of a service: a background read loop
// delivering received datagrams on a channel, the send path, and the
// per-address symmetric channel activation that fences off a connection
// once its handoff completes.
package host

import (
	"fmt"
	"net"
	"sync"

	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/net/bundle"
)

// maxDatagram bounds a single received datagram.
const maxDatagram = 0xffff

// Event is one received datagram, already stripped of channel encryption,
// or a transport-level error bound to the sender's address.
type Event struct {
	Addr *net.UDPAddr
	Data []byte
	Err  error
}

type Host struct {
	conn   *net.UDPConn
	events chan Event
	once   sync.Once

	mu       sync.Mutex
	channels map[string]*crypt.Channel
}

// Listen binds a UDP endpoint on addr (host:port).
func Listen(addr string) (*Host, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return &Host{
		conn:     conn,
		events:   make(chan Event, 64),
		channels: map[string]*crypt.Channel{},
	}, nil
}

func (h *Host) Addr() *net.UDPAddr {
	return h.conn.LocalAddr().(*net.UDPAddr)
}

// Service starts the read loop on first call and returns the event channel.
// The channel is closed when the host is closed.
func (h *Host) Service() <-chan Event {
	h.once.Do(func() { go h.readLoop() })
	return h.events
}

func (h *Host) readLoop() {
	defer close(h.events)
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := h.conn.ReadFromUDP(buf)
		if err != nil {
			// closed socket ends the loop
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		if channel := h.channel(addr); channel != nil {
			data, err = channel.Open(data)
			if err != nil {
				h.events <- Event{Addr: addr, Err: err}
				continue
			}
		}

		h.events <- Event{Addr: addr, Data: data}
	}
}

// Send encodes and transmits a bundle to addr, sealing it if a channel
// cipher is active for that address.
func (h *Host) Send(b *bundle.Bundle, addr *net.UDPAddr) error {
	data := b.Bytes()
	if channel := h.channel(addr); channel != nil {
		data = channel.Seal(data)
	}
	if _, err := h.conn.WriteToUDP(data, addr); err != nil {
		return fmt.Errorf("sending to %s: %w", addr, err)
	}
	return nil
}

// SetChannel activates channel encryption for addr. All subsequent traffic
// to and from that address is transparently protected.
func (h *Host) SetChannel(addr *net.UDPAddr, channel *crypt.Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels[addr.String()] = channel
}

func (h *Host) channel(addr *net.UDPAddr) *crypt.Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channels[addr.String()]
}

func (h *Host) Close() error {
	return h.conn.Close()
}
