// Package handoff implements the registry bridging the login and base
// services: a one-time login key maps to the address it was issued to and
// the channel cipher negotiated during login. The login service writes
// entries, the base service consumes them exactly once.
package handoff

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/keyalloc"
)

var (
	// ErrUnknownKey means the login key was never issued, already
	// consumed, or expired.
	ErrUnknownKey = errors.New("handoff: unknown login key")
	// ErrAddrMismatch means the key was redeemed from an address other
	// than the one it was issued to. The entry is burned either way.
	ErrAddrMismatch = errors.New("handoff: address mismatch")
)

// Pending is one issued, not yet redeemed login key.
type Pending struct {
	Addr    *net.UDPAddr
	Channel *crypt.Channel
	created time.Time
}

type Registry struct {
	mu  sync.Mutex
	ttl time.Duration // zero means entries never expire
	m   map[uint32]Pending
}

// NewRegistry creates a registry whose entries expire after ttl. A zero
// ttl disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl: ttl,
		m:   map[uint32]Pending{},
	}
}

// Alloc draws an unused login key and registers a pending entry for addr
// under it. The draw and the insert happen under one lock so two services
// can share the registry.
func (r *Registry) Alloc(addr *net.UDPAddr, channel *crypt.Channel) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, err := keyalloc.LoginKey(func(k uint32) bool {
		_, taken := r.m[k]
		return taken
	})
	if err != nil {
		return 0, err
	}

	r.m[key] = Pending{
		Addr:    addr,
		Channel: channel,
		created: time.Now(),
	}
	return key, nil
}

// Consume removes and returns the entry for key. The entry is removed on
// the first redemption attempt that finds it, even when the redeeming
// address does not match; a second redemption always fails with
// ErrUnknownKey.
func (r *Registry) Consume(key uint32, from *net.UDPAddr) (Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.m[key]
	if !ok || r.expired(p, time.Now()) {
		delete(r.m, key)
		return Pending{}, ErrUnknownKey
	}
	delete(r.m, key)

	if p.Addr.String() != from.String() {
		return Pending{}, ErrAddrMismatch
	}
	return p, nil
}

// Sweep drops expired entries and reports how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, p := range r.m {
		if r.expired(p, now) {
			delete(r.m, key)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

func (r *Registry) expired(p Pending, now time.Time) bool {
	return r.ttl > 0 && now.Sub(p.created) > r.ttl
}
