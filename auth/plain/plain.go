// Package plain implements the PLAIN SASL mechanism (RFC 4616).
package plain

import (
	"context"
	"fmt"

	"github.com/emersion/go-sasl"

	imap "github.com/corvid-im/imapwire"
	"github.com/corvid-im/imapwire/auth"
)

// Mechanism name.
const Name = "PLAIN"

// ClientMechanism implements PLAIN authentication for clients, delegating
// the actual response construction to go-sasl's PLAIN client.
type ClientMechanism struct {
	// AuthzID is the authorization identity (usually empty).
	AuthzID string
	// Username is the authentication identity.
	Username string
	// Password is the password.
	Password imap.Secret
}

// Name returns "PLAIN".
func (m *ClientMechanism) Name() string { return Name }

// Start returns the initial response: authzid\0authcid\0passwd.
func (m *ClientMechanism) Start() ([]byte, error) {
	_, ir, err := sasl.NewPlainClient(m.AuthzID, m.Username, string(m.Password.Bytes())).Start()
	return ir, err
}

// Next is not called for PLAIN since the initial response contains everything.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("plain: unexpected challenge")
}

// ServerMechanism implements PLAIN authentication for servers, delegating
// the response parsing to go-sasl once per exchange.
type ServerMechanism struct {
	inner sasl.Server
	done  bool
}

// NewServerMechanism creates a new server-side PLAIN mechanism.
func NewServerMechanism(authenticator auth.Authenticator) *ServerMechanism {
	return &ServerMechanism{
		inner: sasl.NewPlainServer(func(identity, username, password string) error {
			return authenticator.Authenticate(context.Background(), Name, username, []byte(password))
		}),
	}
}

// Name returns "PLAIN".
func (m *ServerMechanism) Name() string { return Name }

// Next processes the client's initial response.
func (m *ServerMechanism) Next(response []byte) ([]byte, bool, error) {
	if m.done {
		return nil, true, fmt.Errorf("plain: mechanism already completed")
	}
	m.done = true
	if response == nil {
		response = []byte{}
	}
	challenge, _, err := m.inner.Next(response)
	return challenge, true, err
}

func init() {
	auth.DefaultRegistry.RegisterServer(Name, func(a auth.Authenticator) auth.ServerMechanism {
		return NewServerMechanism(a)
	})
	auth.DefaultRegistry.RegisterClient(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
