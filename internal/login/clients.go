package login

import (
	"net"

	"github.com/usherd/usher/internal/crypt"
)

// Client tracks one remote address through the login handshake.
type Client struct {
	Addr *net.UDPAddr
	// Channel is the symmetric cipher proposed in the client's first login
	// request; nil before that point.
	Channel *crypt.Channel
	// ChallengeComplete is false until the client answers the issued
	// challenge. It never regresses to false.
	ChallengeComplete bool
	// Issued holds the parameters of the last issued challenge so a
	// verifier can check answers against them.
	Issued *Challenge
}

type ClientManager struct {
	clients map[string]*Client
}

func NewClientManager() *ClientManager {
	return &ClientManager{clients: map[string]*Client{}}
}

// Get returns the client tracked for addr, creating one on the first
// message from an unseen address.
func (cm *ClientManager) Get(addr *net.UDPAddr) *Client {
	key := addr.String()
	c, ok := cm.clients[key]
	if !ok {
		c = &Client{Addr: addr}
		cm.clients[key] = c
	}
	return c
}

func (cm *ClientManager) Len() int { return len(cm.clients) }
