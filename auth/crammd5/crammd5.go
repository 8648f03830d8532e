// Package crammd5 implements the CRAM-MD5 SASL mechanism (RFC 2195).
package crammd5

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	imap "github.com/corvid-im/imapwire"
	"github.com/corvid-im/imapwire/auth"
)

// Mechanism name.
const Name = "CRAM-MD5"

// ClientMechanism implements CRAM-MD5 authentication for clients.
type ClientMechanism struct {
	Username string
	Password imap.Secret
}

// Name returns "CRAM-MD5".
func (m *ClientMechanism) Name() string { return Name }

// Start returns nil (CRAM-MD5 has no initial response).
func (m *ClientMechanism) Start() ([]byte, error) {
	return nil, nil
}

// Next computes the HMAC-MD5 response to the server challenge.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	h := hmac.New(md5.New, m.Password.Bytes())
	h.Write(challenge)
	digest := hex.EncodeToString(h.Sum(nil))
	return []byte(m.Username + " " + digest), nil
}

// ServerMechanism implements CRAM-MD5 authentication for servers.
// CRAM-MD5 requires the server to know the password in plaintext to
// verify the HMAC; the authenticator receives the username and the
// full "username digest" response as credentials.
type ServerMechanism struct {
	auth      auth.Authenticator
	challenge []byte
	step      int
}

// NewServerMechanism creates a new server-side CRAM-MD5 mechanism.
func NewServerMechanism(authenticator auth.Authenticator) *ServerMechanism {
	return &ServerMechanism{auth: authenticator}
}

// Name returns "CRAM-MD5".
func (m *ServerMechanism) Name() string { return Name }

// Next processes the authentication exchange.
func (m *ServerMechanism) Next(response []byte) ([]byte, bool, error) {
	switch m.step {
	case 0:
		m.step++
		nonce, err := randomNonce()
		if err != nil {
			return nil, true, err
		}
		m.challenge = []byte(nonce)
		return m.challenge, false, nil
	case 1:
		m.step++
		parts := strings.SplitN(string(response), " ", 2)
		if len(parts) != 2 {
			return nil, true, fmt.Errorf("cram-md5: invalid response format")
		}
		err := m.auth.Authenticate(context.Background(), Name, parts[0], response)
		return nil, true, err
	default:
		return nil, true, fmt.Errorf("cram-md5: unexpected response")
	}
}

func randomNonce() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("cram-md5: generate nonce: %w", err)
	}
	return fmt.Sprintf("<%x@localhost>", buf[:]), nil
}

func init() {
	auth.DefaultRegistry.RegisterServer(Name, func(a auth.Authenticator) auth.ServerMechanism {
		return NewServerMechanism(a)
	})

	auth.DefaultRegistry.RegisterClient(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
