// Package login implements the login service: it drives unauthenticated
// clients through the challenge handshake and, once a client has answered
// its challenge, issues the one-time login key redeemed at the base
// service.
package login

import (
	"crypto/rsa"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/handoff"
	"github.com/usherd/usher/internal/net/bundle"
	"github.com/usherd/usher/internal/net/host"
	"github.com/usherd/usher/internal/protocol"
	"github.com/usherd/usher/internal/protocol/element"
	"github.com/usherd/usher/internal/protocol/packet"
)

// Transport is the send half of the service's endpoint.
type Transport interface {
	Send(b *bundle.Bundle, addr *net.UDPAddr) error
}

type Service struct {
	transport Transport
	priv      *rsa.PrivateKey
	baseAddr  string // routing address advertised on success
	handoffs  *handoff.Registry
	clients   *ClientManager
	verifier  Verifier
	motd      string
	log       zerolog.Logger
}

func NewService(transport Transport, priv *rsa.PrivateKey, baseAddr string, handoffs *handoff.Registry, verifier Verifier, motd string, log zerolog.Logger) *Service {
	return &Service{
		transport: transport,
		priv:      priv,
		baseAddr:  baseAddr,
		handoffs:  handoffs,
		clients:   NewClientManager(),
		verifier:  verifier,
		motd:      motd,
		log:       log.With().Str("svc", "login").Logger(),
	}
}

// HandleEvent processes one received datagram. Elements are handled in
// arrival order; the first unrecognized element abandons the rest of the
// bundle.
func (s *Service) HandleEvent(ev host.Event) {
	log := s.log.With().Stringer("addr", ev.Addr).Logger()

	if ev.Err != nil {
		log.Error().Err(ev.Err).Msg("packet error")
		return
	}

	c := s.clients.Get(ev.Addr)
	r := bundle.NewReader(ev.Data)
	for {
		el, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("bundle decode error")
			return
		}
		if !s.handleElement(c, el, log) {
			return
		}
	}
}

func (s *Service) handleElement(c *Client, el bundle.Element, log zerolog.Logger) bool {
	switch el.ID {
	case protocol.Ping:
		return s.handlePing(c, el, log)

	case protocol.LoginRequest:
		return s.handleLoginRequest(c, el, log)

	case protocol.ChallengeAnswer:
		return s.handleChallengeAnswer(c, el, log)

	default:
		log.Warn().Uint8("element", byte(el.ID)).Msg("unknown element, dropping rest of bundle")
		return false
	}
}

func (s *Service) handlePing(c *Client, el bundle.Element, log zerolog.Logger) bool {
	ping, ok := element.DecodePing(el.Payload)
	if !ok {
		log.Warn().Msg("could not decode ping")
		return false
	}
	if el.RequestID == 0 {
		log.Warn().Msg("ping without request token")
		return false
	}

	log.Debug().Uint8("num", ping.Num).Msg("ping")

	b := bundle.New()
	b.AddReply(ping.Encode(), el.RequestID)
	s.send(b, c.Addr, log)
	return true
}

func (s *Service) handleLoginRequest(c *Client, el bundle.Element, log zerolog.Logger) bool {
	if el.RequestID == 0 {
		log.Warn().Msg("login request without request token")
		return false
	}

	plaintext, err := crypt.Unwrap(s.priv, el.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("could not unwrap login request")
		return false
	}
	req, ok := element.DecodeLoginRequest(plaintext)
	if !ok {
		log.Warn().Msg("could not decode login request")
		return false
	}

	channel, err := crypt.NewChannel(req.BlowfishKey)
	if err != nil {
		log.Warn().Err(err).Msg("bad symmetric key in login request")
		return false
	}
	// re-sent login requests simply re-set the key
	c.Channel = channel

	log.Info().Str("username", truncate(req.Username, 54)).Msg("login request")

	if !c.ChallengeComplete {
		return s.sendChallenge(c, el.RequestID, log)
	}
	return s.sendSuccess(c, el.RequestID, log)
}

func (s *Service) sendChallenge(c *Client, requestID uint32, log zerolog.Logger) bool {
	challenge, err := NewChallenge()
	if err != nil {
		log.Error().Err(err).Msg("could not generate challenge")
		return false
	}
	c.Issued = &challenge

	log.Info().Str("prefix", challenge.Prefix).Uint32("max_nonce", challenge.MaxNonce).Msg("issuing challenge")

	resp := element.LoginChallenge{Prefix: challenge.Prefix, MaxNonce: challenge.MaxNonce}
	s.sendResponse(c, protocol.ResponseChallenge, resp.Encode(), requestID, log)
	return true
}

func (s *Service) sendSuccess(c *Client, requestID uint32, log zerolog.Logger) bool {
	key, err := s.handoffs.Alloc(c.Addr, c.Channel)
	if err != nil {
		log.Error().Err(err).Msg("could not allocate login key")
		return false
	}

	log.Info().Str("base_addr", s.baseAddr).Uint32("login_key", key).Msg("login success")

	resp := element.LoginSuccess{
		BaseAddr:      s.baseAddr,
		LoginKey:      key,
		ServerMessage: s.motd,
	}
	s.sendResponse(c, protocol.ResponseSuccess, resp.Encode(), requestID, log)
	return true
}

// sendResponse seals a login response with the client's negotiated channel
// cipher and sends it as a reply correlated to the request.
func (s *Service) sendResponse(c *Client, kind protocol.LoginResponseKind, payload []byte, requestID uint32, log zerolog.Logger) {
	plaintext := packet.New(byte(kind), payload).Buf()
	b := bundle.New()
	b.AddReply(c.Channel.Seal(plaintext), requestID)
	s.send(b, c.Addr, log)
}

func (s *Service) handleChallengeAnswer(c *Client, el bundle.Element, log zerolog.Logger) bool {
	answer, ok := element.DecodeChallengeAnswer(el.Payload)
	if !ok {
		log.Warn().Msg("could not decode challenge answer")
		return false
	}

	if !s.verifier.Verify(c.Issued, answer) {
		log.Warn().Msg("challenge answer rejected")
		return true
	}

	log.Info().Msg("challenge complete")
	c.ChallengeComplete = true
	return true
}

func (s *Service) send(b *bundle.Bundle, addr *net.UDPAddr, log zerolog.Logger) {
	if err := s.transport.Send(b, addr); err != nil {
		log.Error().Err(err).Msg("send failed")
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
