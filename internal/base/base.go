// Package base implements the base service: it redeems one-time login keys
// issued by the login service, switches the redeeming connection to channel
// encryption, issues session keys, and bootstraps freshly established
// clients into the game.
package base

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/handoff"
	"github.com/usherd/usher/internal/keyalloc"
	"github.com/usherd/usher/internal/net/bundle"
	"github.com/usherd/usher/internal/net/host"
	"github.com/usherd/usher/internal/protocol"
	"github.com/usherd/usher/internal/protocol/element"
)

// Transport is the service's endpoint surface: sending bundles and
// activating channel encryption for an established address.
type Transport interface {
	Send(b *bundle.Bundle, addr *net.UDPAddr) error
	SetChannel(addr *net.UDPAddr, channel *crypt.Channel)
}

type Service struct {
	transport Transport
	handoffs  *handoff.Registry
	clients   *ClientManager
	sessions  keyalloc.SessionCounter
	started   time.Time
	freq      uint8
	log       zerolog.Logger
}

func NewService(transport Transport, handoffs *handoff.Registry, freq uint8, log zerolog.Logger) *Service {
	return &Service{
		transport: transport,
		handoffs:  handoffs,
		clients:   NewClientManager(),
		started:   time.Now(),
		freq:      freq,
		log:       log.With().Str("svc", "base").Logger(),
	}
}

// HandleEvent processes one received datagram. The only non-nil return is
// keyalloc.ErrExhausted, which the caller must treat as fatal.
func (s *Service) HandleEvent(ev host.Event) error {
	log := s.log.With().Stringer("addr", ev.Addr).Logger()

	if ev.Err != nil {
		log.Error().Err(ev.Err).Msg("packet error")
		return nil
	}

	r := bundle.NewReader(ev.Data)
	for {
		el, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Msg("bundle decode error")
			return nil
		}
		more, err := s.handleElement(ev.Addr, el, log)
		if err != nil || !more {
			return err
		}
	}
}

func (s *Service) handleElement(addr *net.UDPAddr, el bundle.Element, log zerolog.Logger) (bool, error) {
	switch el.ID {
	case protocol.ClientAuth:
		return s.handleClientAuth(addr, el, log)

	case protocol.ClientSessionKey:
		return s.handleSessionKeyConfirm(addr, el, log), nil

	default:
		log.Warn().Uint8("element", byte(el.ID)).Msg("unknown element, dropping rest of bundle")
		return false, nil
	}
}

func (s *Service) handleClientAuth(addr *net.UDPAddr, el bundle.Element, log zerolog.Logger) (bool, error) {
	auth, ok := element.DecodeClientAuth(el.Payload)
	if !ok {
		log.Warn().Msg("could not decode client auth")
		return false, nil
	}
	if el.RequestID == 0 {
		log.Warn().Msg("client auth without request token")
		return false, nil
	}

	log.Info().Uint32("login_key", auth.LoginKey).Uint8("attempts", auth.Attempts).Msg("client auth")

	pending, err := s.handoffs.Consume(auth.LoginKey, addr)
	switch {
	case errors.Is(err, handoff.ErrUnknownKey):
		log.Info().Uint32("login_key", auth.LoginKey).Msg("unknown login key, discarding")
		return true, nil
	case errors.Is(err, handoff.ErrAddrMismatch):
		log.Warn().Uint32("login_key", auth.LoginKey).Msg("login key redeemed from wrong address")
		return true, nil
	}

	s.transport.SetChannel(addr, pending.Channel)
	log.Info().Msg("channel encryption enabled")

	sessionKey, err := s.sessions.Next()
	if err != nil {
		return false, err
	}
	s.clients.Add(addr, sessionKey)

	log.Info().Uint32("session_key", sessionKey).Msg("session established")

	b := bundle.New()
	b.AddReply(element.ServerSessionKey{SessionKey: sessionKey}.Encode(), el.RequestID)
	s.send(b, addr, log)
	return true, nil
}

func (s *Service) handleSessionKeyConfirm(addr *net.UDPAddr, el bundle.Element, log zerolog.Logger) bool {
	confirm, ok := element.DecodeClientSessionKey(el.Payload)
	if !ok {
		log.Warn().Msg("could not decode session key confirmation")
		return false
	}

	c := s.clients.Get(addr)
	if c == nil {
		log.Warn().Uint32("session_key", confirm.SessionKey).Msg("confirmation for unknown session")
		return true
	}
	if confirm.SessionKey != c.SessionKey {
		log.Warn().Uint32("got", confirm.SessionKey).Uint32("want", c.SessionKey).Msg("session key mismatch")
		return true
	}

	if !c.BootstrapSent {
		s.sendBootstrap(c, log)
		c.BootstrapSent = true
	}
	return true
}

// sendBootstrap delivers the one-time post-auth sequence: the update
// frequency notification, then the creation of the client's controlled
// entity. Each message is preceded by a tick stamp recomputed at send time.
func (s *Service) sendBootstrap(c *Client, log zerolog.Logger) {
	b := bundle.New()
	b.Add(protocol.TickSync, element.TickSync{Tick: s.tick()}.Encode())
	b.Add(protocol.UpdateFrequencyNotification, element.UpdateFrequencyNotification{
		Frequency: s.freq,
		GameTime:  s.gameTime(),
	}.Encode())
	log.Info().Uint8("frequency", s.freq).Msg("sending update frequency")
	s.send(b, c.Addr, log)

	b = bundle.New()
	b.Add(protocol.TickSync, element.TickSync{Tick: s.tick()}.Encode())
	b.Add(protocol.CreateBasePlayer, element.CreateBasePlayer{
		EntityID:   protocol.PlayerEntityID,
		EntityType: protocol.PlayerEntityTyp,
		EntityData: protocol.PlayerEntityData,
	}.Encode())
	log.Info().Uint32("entity_id", protocol.PlayerEntityID).Msg("sending base player")
	s.send(b, c.Addr, log)
}

// gameTime is the service's uptime in whole seconds.
func (s *Service) gameTime() uint32 {
	return uint32(time.Since(s.started) / time.Second)
}

// tick is the game time truncated to a single byte.
func (s *Service) tick() byte {
	return byte(s.gameTime())
}

func (s *Service) send(b *bundle.Bundle, addr *net.UDPAddr, log zerolog.Logger) {
	if err := s.transport.Send(b, addr); err != nil {
		log.Error().Err(err).Msg("send failed")
	}
}
