package base

import (
	"net"
)

// Client tracks one authenticated session on the base service.
type Client struct {
	Addr *net.UDPAddr
	// SessionKey is unique across all clients ever tracked by this
	// service instance.
	SessionKey uint32
	// BootstrapSent guards the one-time post-auth bootstrap sequence.
	BootstrapSent bool
}

type ClientManager struct {
	clients map[string]*Client
}

func NewClientManager() *ClientManager {
	return &ClientManager{clients: map[string]*Client{}}
}

// Add registers an established client for addr.
func (cm *ClientManager) Add(addr *net.UDPAddr, sessionKey uint32) *Client {
	c := &Client{Addr: addr, SessionKey: sessionKey}
	cm.clients[addr.String()] = c
	return c
}

// Get returns the client for addr, or nil if none is established.
func (cm *ClientManager) Get(addr *net.UDPAddr) *Client {
	return cm.clients[addr.String()]
}

func (cm *ClientManager) Len() int { return len(cm.clients) }
