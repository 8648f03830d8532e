package wire

// LiteralMode distinguishes a synchronizing literal, which requires the
// peer to send a continuation before the literal bytes follow, from a
// non-synchronizing literal (LITERAL+/LITERAL-), which does not.
type LiteralMode int

const (
	// LiteralSync announces "{N}\r\n"; the sender must wait for a "+"
	// continuation before transmitting the literal bytes.
	LiteralSync LiteralMode = iota
	// LiteralNonSync announces "{N+}\r\n"; the literal bytes follow
	// immediately, no continuation is awaited.
	LiteralNonSync
)

// String returns the announcement suffix for the mode ("" or "+").
func (m LiteralMode) String() string {
	if m == LiteralNonSync {
		return "+"
	}
	return ""
}

// FragmentKind distinguishes the two kinds of output fragment.
type FragmentKind int

const (
	// FragmentLine is a span of bytes safe to send to the peer as-is.
	FragmentLine FragmentKind = iota
	// FragmentLiteral is the payload of a literal; the preceding Line
	// fragment ends with that literal's "{N}" or "{N+}" announcement.
	FragmentLiteral
)

// Fragment is one piece of a message's on-wire encoding. The fragmenting
// encoder (§4.B) splits its output at every literal boundary so a caller
// can honor the synchronizing-literal handshake: a client must block for
// a "+" continuation between a Line fragment ending in "{N}\r\n" and the
// Literal fragment that follows it (unless Mode is LiteralNonSync).
type Fragment struct {
	Kind FragmentKind
	Data []byte

	// Mode is only meaningful when Kind == FragmentLiteral.
	Mode LiteralMode
}

// IsSyncLiteral reports whether this fragment is a literal that requires
// the peer's "+" continuation before it may be sent.
func (f Fragment) IsSyncLiteral() bool {
	return f.Kind == FragmentLiteral && f.Mode == LiteralSync
}

// FragmentStream is the ordered, one-shot sequence of fragments produced
// by encoding a single Message. The concatenation of every fragment's
// Data, in order, equals the exact on-wire byte stream (§8 property 2).
//
// A FragmentStream is destructively drained: Next consumes the head
// fragment. It does not need to be restartable (§9 "Fragment
// consumption").
type FragmentStream struct {
	fragments []Fragment
	pos       int
}

// Next returns the next fragment and advances the stream, or ok=false
// once every fragment has been consumed.
func (s *FragmentStream) Next() (Fragment, bool) {
	if s.pos >= len(s.fragments) {
		return Fragment{}, false
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, true
}

// Len returns the number of fragments remaining.
func (s *FragmentStream) Len() int {
	return len(s.fragments) - s.pos
}

// All drains every remaining fragment into a slice, consuming the stream.
func (s *FragmentStream) All() []Fragment {
	rest := s.fragments[s.pos:]
	s.pos = len(s.fragments)
	return rest
}

// Dump concatenates the payloads of every remaining fragment into a
// single byte slice, consuming the stream. This is the exact on-wire
// byte stream for the encoded message (§8 property 2).
func (s *FragmentStream) Dump() []byte {
	total := 0
	for _, f := range s.fragments[s.pos:] {
		total += len(f.Data)
	}
	out := make([]byte, 0, total)
	for _, f := range s.fragments[s.pos:] {
		out = append(out, f.Data...)
	}
	s.pos = len(s.fragments)
	return out
}
