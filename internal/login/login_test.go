package login

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/usherd/usher/internal/crypt"
	"github.com/usherd/usher/internal/handoff"
	"github.com/usherd/usher/internal/net/bundle"
	"github.com/usherd/usher/internal/net/host"
	"github.com/usherd/usher/internal/protocol"
	"github.com/usherd/usher/internal/protocol/element"
	"github.com/usherd/usher/internal/protocol/packet"
)

const baseAddr = "127.0.0.1:20017"

var blowfishKey = []byte("0123456789abcdef")

type recordingTransport struct {
	sent []sentBundle
}

type sentBundle struct {
	data []byte
	addr *net.UDPAddr
}

func (tr *recordingTransport) Send(b *bundle.Bundle, addr *net.UDPAddr) error {
	tr.sent = append(tr.sent, sentBundle{data: append([]byte(nil), b.Bytes()...), addr: addr})
	return nil
}

func (tr *recordingTransport) elements(t *testing.T, i int) []bundle.Element {
	t.Helper()
	require.Greater(t, len(tr.sent), i)

	var els []bundle.Element
	r := bundle.NewReader(tr.sent[i].data)
	for {
		el, err := r.Next()
		if err == io.EOF {
			return els
		}
		require.NoError(t, err)
		els = append(els, el)
	}
}

func newTestService(t *testing.T) (*Service, *recordingTransport, *handoff.Registry, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	transport := &recordingTransport{}
	handoffs := handoff.NewRegistry(0)
	svc := NewService(transport, priv, baseAddr, handoffs, Permissive(), "", zerolog.Nop())
	return svc, transport, handoffs, priv
}

func clientAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func loginRequestEvent(t *testing.T, pub *rsa.PublicKey, addr *net.UDPAddr, requestID uint32) host.Event {
	t.Helper()
	plain := element.LoginRequest{
		Username:    "player",
		Password:    "hunter2",
		BlowfishKey: blowfishKey,
	}.Encode()
	blob, err := crypt.Wrap(pub, plain)
	require.NoError(t, err)

	b := bundle.New()
	b.AddRequest(protocol.LoginRequest, blob, requestID)
	return host.Event{Addr: addr, Data: b.Bytes()}
}

func answerEvent(addr *net.UDPAddr, answer element.ChallengeAnswer) host.Event {
	b := bundle.New()
	b.Add(protocol.ChallengeAnswer, answer.Encode())
	return host.Event{Addr: addr, Data: b.Bytes()}
}

// openResponse unseals a login response reply and returns its kind and
// inner payload.
func openResponse(t *testing.T, el bundle.Element) (protocol.LoginResponseKind, []byte) {
	t.Helper()
	channel, err := crypt.NewChannel(blowfishKey)
	require.NoError(t, err)

	plain, err := channel.Open(el.Payload)
	require.NoError(t, err)

	p := packet.Wrap(plain)
	kind, ok := p.GetByte()
	require.True(t, ok)
	return protocol.LoginResponseKind(kind), p.Bytes()
}

func TestPingEchoed(t *testing.T) {
	svc, transport, _, _ := newTestService(t)
	addr := clientAddr(5000)

	b := bundle.New()
	b.AddRequest(protocol.Ping, element.Ping{Num: 7}.Encode(), 99)
	svc.HandleEvent(host.Event{Addr: addr, Data: b.Bytes()})

	els := transport.elements(t, 0)
	require.Len(t, els, 1)
	require.Equal(t, uint32(99), els[0].ReplyTo)

	pong, ok := element.DecodePing(els[0].Payload)
	require.True(t, ok)
	require.Equal(t, byte(7), pong.Num)
}

func TestFirstLoginRequestIssuesChallenge(t *testing.T) {
	svc, transport, handoffs, priv := newTestService(t)
	addr := clientAddr(5000)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 1))

	els := transport.elements(t, 0)
	require.Len(t, els, 1)
	require.Equal(t, uint32(1), els[0].ReplyTo)

	kind, payload := openResponse(t, els[0])
	require.Equal(t, protocol.ResponseChallenge, kind)

	challenge, ok := element.DecodeLoginChallenge(payload)
	require.True(t, ok)
	require.NotEmpty(t, challenge.Prefix)
	require.Equal(t, protocol.ChallengeMaxNonce, challenge.MaxNonce)

	// no credential issued yet
	require.Zero(t, handoffs.Len())
	require.False(t, svc.clients.Get(addr).ChallengeComplete)
}

func TestCompletedChallengeYieldsLoginKey(t *testing.T) {
	svc, transport, handoffs, priv := newTestService(t)
	addr := clientAddr(5000)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 1))
	svc.HandleEvent(answerEvent(addr, element.ChallengeAnswer{Prefix: "whatever", Nonce: 1}))
	require.True(t, svc.clients.Get(addr).ChallengeComplete)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 2))

	els := transport.elements(t, 1)
	require.Len(t, els, 1)
	require.Equal(t, uint32(2), els[0].ReplyTo)

	kind, payload := openResponse(t, els[0])
	require.Equal(t, protocol.ResponseSuccess, kind)

	success, ok := element.DecodeLoginSuccess(payload)
	require.True(t, ok)
	require.Equal(t, baseAddr, success.BaseAddr)
	require.Equal(t, 1, handoffs.Len())

	// the issued key is redeemable by this address
	_, err := handoffs.Consume(success.LoginKey, addr)
	require.NoError(t, err)
}

func TestSuccessMayBeResent(t *testing.T) {
	svc, transport, handoffs, priv := newTestService(t)
	addr := clientAddr(5000)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 1))
	svc.HandleEvent(answerEvent(addr, element.ChallengeAnswer{}))
	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 2))
	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 3))

	// each re-sent login request allocates a fresh credential
	require.Equal(t, 2, handoffs.Len())
	require.Len(t, transport.sent, 3)
}

func TestChallengeCompleteIsMonotonic(t *testing.T) {
	svc, _, _, priv := newTestService(t)
	addr := clientAddr(5000)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 1))
	require.False(t, svc.clients.Get(addr).ChallengeComplete)

	svc.HandleEvent(answerEvent(addr, element.ChallengeAnswer{}))
	require.True(t, svc.clients.Get(addr).ChallengeComplete)

	// further login requests must not regress the flag
	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 2))
	require.True(t, svc.clients.Get(addr).ChallengeComplete)
}

type prefixVerifier struct{}

func (prefixVerifier) Verify(issued *Challenge, answer element.ChallengeAnswer) bool {
	return issued != nil && answer.Prefix == issued.Prefix && answer.Nonce < issued.MaxNonce
}

func TestStrictVerifierRejectsWrongAnswer(t *testing.T) {
	svc, _, _, priv := newTestService(t)
	svc.verifier = prefixVerifier{}
	addr := clientAddr(5000)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, addr, 1))
	issued := svc.clients.Get(addr).Issued
	require.NotNil(t, issued)

	svc.HandleEvent(answerEvent(addr, element.ChallengeAnswer{Prefix: "wrong", Nonce: 1}))
	require.False(t, svc.clients.Get(addr).ChallengeComplete)

	svc.HandleEvent(answerEvent(addr, element.ChallengeAnswer{Prefix: issued.Prefix, Nonce: 1}))
	require.True(t, svc.clients.Get(addr).ChallengeComplete)
}

func TestUnknownElementHaltsBatch(t *testing.T) {
	svc, transport, _, _ := newTestService(t)
	addr := clientAddr(5000)

	b := bundle.New()
	b.Add(protocol.ElementID(0x7e), []byte("?"))
	b.AddRequest(protocol.Ping, element.Ping{Num: 1}.Encode(), 5)
	svc.HandleEvent(host.Event{Addr: addr, Data: b.Bytes()})

	// the ping behind the unknown element is never answered
	require.Empty(t, transport.sent)
}

func TestGarbageLoginBlobIgnored(t *testing.T) {
	svc, transport, handoffs, _ := newTestService(t)
	addr := clientAddr(5000)

	b := bundle.New()
	b.AddRequest(protocol.LoginRequest, []byte("not an rsa blob"), 1)
	svc.HandleEvent(host.Event{Addr: addr, Data: b.Bytes()})

	require.Empty(t, transport.sent)
	require.Zero(t, handoffs.Len())
}

func TestPacketErrorDoesNotTouchState(t *testing.T) {
	svc, transport, _, _ := newTestService(t)
	addr := clientAddr(5000)

	svc.HandleEvent(host.Event{Addr: addr, Err: crypt.ErrBadCiphertext})

	require.Empty(t, transport.sent)
	require.Zero(t, svc.clients.Len())
}

func TestClientsTrackedPerAddress(t *testing.T) {
	svc, _, _, priv := newTestService(t)

	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, clientAddr(5000), 1))
	svc.HandleEvent(loginRequestEvent(t, &priv.PublicKey, clientAddr(5001), 1))
	svc.HandleEvent(answerEvent(clientAddr(5000), element.ChallengeAnswer{}))

	require.Equal(t, 2, svc.clients.Len())
	require.True(t, svc.clients.Get(clientAddr(5000)).ChallengeComplete)
	require.False(t, svc.clients.Get(clientAddr(5001)).ChallengeComplete)
}
