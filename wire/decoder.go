// Package wire provides the IMAP4rev1 wire-protocol codec core: a
// fragmenting encoder that serializes typed messages as Line/Literal
// fragments, and a stateful stream decoder that frames commands out of
// a byte stream while honoring the mid-line literal handshake.
package wire

import "bytes"

// decoderState is the stream decoder's state (§3 "Decoder state").
type decoderState int

const (
	// stateReadLine: scanning buf[consumed:] for the next CRLF.
	stateReadLine decoderState = iota
	// stateReadLiteral: waiting for `needed` more bytes before resuming
	// line scanning.
	stateReadLiteral
)

// CommandParser parses one complete, framed command — the tag through
// its trailing CRLF, with any literal bodies already inlined — into an
// opaque value. The decoder never inspects the result; it is the
// external grammar parser of §4.D, injected so this package stays
// independent of the concrete Command type (defined in the root
// `imapwire` package, which wraps Decoder to recover it). A non-nil
// error is surfaced by Decode as a *ParseError and the framed command
// is discarded.
type CommandParser func(line []byte) (cmd interface{}, err error)

// OutcomeKind distinguishes what Decode produced.
type OutcomeKind int

const (
	// OutcomeCommand: a full command was framed and parsed.
	OutcomeCommand OutcomeKind = iota
	// OutcomeSendLiteralAck: the caller must send a "+" continuation
	// (or application-chosen continuation text) and then resume
	// feeding bytes: LiteralSize bytes plus the rest of the command.
	OutcomeSendLiteralAck
	// OutcomeSendLiteralReject: the caller must respond with a tagged
	// BAD (reason: literal too large) and drop the partially framed
	// command; the decoder has already reset.
	OutcomeSendLiteralReject
)

// Outcome is what Decode returns on a completed step (§6 "Decoder
// events"). A nil *Outcome with a nil error means "need more bytes".
type Outcome struct {
	Kind OutcomeKind
	// Command is set when Kind == OutcomeCommand; the value returned by
	// CommandParser.
	Command interface{}
	// LiteralSize is set for the two literal outcomes: the announced
	// size in bytes.
	LiteralSize int64
	// NonSync is true when the announced literal used the "{N+}" form.
	// Carried for observability; NonSync literals never produce
	// OutcomeSendLiteralAck (no handshake is required), but a reject
	// still reports the mode the peer announced.
	NonSync bool
}

// Decoder is the stateful stream decoder (§4.C): an incremental framer
// that owns a growable buffer, detects embedded literals inside a
// command line, and suspends parsing to request an ack/reject before
// consuming the literal bytes. Decode never performs I/O and never
// blocks; the caller appends received bytes via Write (or ingests
// buffer contents directly) and re-invokes Decode until it returns
// "need more bytes" (nil, nil).
type Decoder struct {
	data     []byte
	consumed int
	state    decoderState
	needed   int64
	mode     LiteralMode

	// MaxLiteralSize bounds the worst-case allocation for one buffered
	// frame (§5 "Memory discipline"); literals announcing a larger size
	// are rejected rather than consumed.
	MaxLiteralSize int64

	// Parser is called once a complete command line (including all of
	// its consumed literals) is framed.
	Parser CommandParser
}

// NewDecoder creates a Decoder bounded by maxLiteralSize bytes per
// literal, calling parser to turn each framed line into a command.
func NewDecoder(maxLiteralSize int64, parser CommandParser) *Decoder {
	return &Decoder{MaxLiteralSize: maxLiteralSize, Parser: parser}
}

// Write appends newly-received bytes to the decoder's buffer. It never
// fails; Decoder implements io.Writer so a caller can io.Copy straight
// from a connection into it between Decode calls.
func (d *Decoder) Write(p []byte) (int, error) {
	d.data = append(d.data, p...)
	return len(p), nil
}

// Buffered returns the number of bytes currently held, consumed or not.
func (d *Decoder) Buffered() int {
	return len(d.data)
}

// Reset discards all buffered bytes and returns the decoder to its
// initial state. Used after a fatal framing error, or when the caller
// is dropping the connection.
func (d *Decoder) Reset() {
	d.data = d.data[:0]
	d.consumed = 0
	d.state = stateReadLine
	d.needed = 0
}

// Decode advances the state machine as far as currently-buffered bytes
// allow. It returns (nil, nil) when more bytes are needed, (*Outcome,
// nil) on a completed command or literal-handshake event, or (nil, err)
// on a framing/literal/parse error. Per §8 property 6, a (nil, nil)
// return leaves the buffer contents unchanged (only the internal
// `consumed` cursor may move).
func (d *Decoder) Decode() (*Outcome, error) {
	for {
		switch d.state {
		case stateReadLiteral:
			if len(d.data) < d.consumed+int(d.needed) {
				return nil, nil
			}
			d.consumed += int(d.needed)
			d.needed = 0
			d.state = stateReadLine

		case stateReadLine:
			rest := d.data[d.consumed:]
			nl := bytes.IndexByte(rest, '\n')
			if nl < 0 {
				return nil, nil
			}

			var precedingCR byte
			if nl > 0 {
				precedingCR = rest[nl-1]
			}
			if precedingCR != '\r' {
				d.Reset()
				return nil, &FramingError{Found: precedingCR}
			}

			lineEnd := d.consumed + nl + 1 // absolute offset just past '\n'
			line := d.data[d.consumed : lineEnd-2]

			hdr, ok, err := scanLiteralHeader(line)
			if err != nil {
				d.Reset()
				return nil, err
			}

			if ok {
				if hdr.Size > d.MaxLiteralSize {
					d.dropThrough(lineEnd)
					return &Outcome{
						Kind:        OutcomeSendLiteralReject,
						LiteralSize: hdr.Size,
						NonSync:     hdr.Mode == LiteralNonSync,
					}, nil
				}

				d.consumed = lineEnd
				d.needed = hdr.Size
				d.mode = hdr.Mode
				d.state = stateReadLiteral
				d.reserve(hdr.Size)

				if hdr.Mode == LiteralSync {
					return &Outcome{Kind: OutcomeSendLiteralAck, LiteralSize: hdr.Size}, nil
				}
				// Non-synchronizing: the sender doesn't wait for an
				// ack, so don't emit one — just keep reading.
				continue
			}

			frame := d.data[:lineEnd]
			cmd, perr := d.Parser(frame)
			if perr != nil {
				d.dropThrough(lineEnd)
				return nil, &ParseError{Err: perr}
			}
			d.dropThrough(lineEnd)
			return &Outcome{Kind: OutcomeCommand, Command: cmd}, nil
		}
	}
}

// dropThrough discards buf[:n] (a fully-consumed command or rejected
// literal announcement) and resets consumed to 0, reusing the
// underlying array.
func (d *Decoder) dropThrough(n int) {
	d.data = append(d.data[:0], d.data[n:]...)
	d.consumed = 0
}

// reserve grows the buffer's capacity so the upcoming literal won't
// force repeated reallocation, without exceeding MaxLiteralSize-bounded
// worst case (§5 "Memory discipline").
func (d *Decoder) reserve(literalSize int64) {
	want := d.consumed + int(literalSize)
	if cap(d.data) >= want {
		return
	}
	grown := make([]byte, len(d.data), want)
	copy(grown, d.data)
	d.data = grown
}
