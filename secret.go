package imapwire

import "crypto/subtle"

// Secret wraps a byte sequence that must never appear in logs or debug
// output: LOGIN passwords, SASL-IR initial-response payloads, OAuth
// bearer/access tokens. It redacts under every formatting verb and
// compares in constant time, so a stray %v on a Command or
// AuthenticateCommand can't leak credentials into a log line.
//
// The zero value is an empty secret, not "no secret"; callers that need
// to distinguish "absent" use a *Secret or check IsZero.
type Secret struct {
	b []byte
}

// NewSecret wraps a string as a Secret.
func NewSecret(s string) Secret {
	return Secret{b: []byte(s)}
}

// NewSecretBytes wraps b as a Secret, copying it so later mutation of
// the caller's slice can't change the wrapped value.
func NewSecretBytes(b []byte) Secret {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Secret{b: cp}
}

// Bytes returns the wrapped bytes. This is the only way to see the
// plaintext; callers that pass a Secret to fmt or a logger get the
// redacted form instead.
func (s Secret) Bytes() []byte {
	return s.b
}

// IsZero reports whether the secret holds no bytes.
func (s Secret) IsZero() bool {
	return len(s.b) == 0
}

// Equal reports whether s and other wrap the same bytes, compared in
// constant time with respect to the byte values (not their length).
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

// String implements fmt.Stringer, redacting the wrapped bytes so %v,
// %s, and Println never print a credential.
func (s Secret) String() string {
	if s.IsZero() {
		return "Secret(empty)"
	}
	return "Secret(REDACTED)"
}

// GoString implements fmt.GoStringer so %#v is redacted the same way.
func (s Secret) GoString() string {
	return s.String()
}
