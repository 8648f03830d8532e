package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corvid-im/imapwire/wire/utf7"
)

// Encoder is the fragmenting encoder (§4.B): a fluent, accumulator-based
// builder that drives leaf encoding rules and splits its output into
// Line/Literal fragments at every literal boundary, so a caller can honor
// the synchronizing-literal handshake. Every method is infallible and
// returns the receiver for chaining, matching the teacher's fluent API;
// the accumulator only ever grows in memory (literals are materialized
// whole, per spec Non-goals).
type Encoder struct {
	buf       []byte
	fragments []Fragment
}

// NewEncoder creates a fresh Encoder with an empty accumulator.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Raw appends raw bytes to the accumulator.
func (e *Encoder) Raw(data []byte) *Encoder {
	e.buf = append(e.buf, data...)
	return e
}

// RawString appends a raw string to the accumulator.
func (e *Encoder) RawString(s string) *Encoder {
	e.buf = append(e.buf, s...)
	return e
}

// Atom writes an atom's raw bytes.
func (e *Encoder) Atom(s string) *Encoder {
	return e.RawString(s)
}

// SP writes a single space.
func (e *Encoder) SP() *Encoder {
	e.buf = append(e.buf, ' ')
	return e
}

// CRLF writes a CRLF.
func (e *Encoder) CRLF() *Encoder {
	e.buf = append(e.buf, '\r', '\n')
	return e
}

// QuotedString writes a quoted string, backslash-escaping '"' and '\'.
func (e *Encoder) QuotedString(s string) *Encoder {
	e.buf = append(e.buf, '"')
	for i := 0; i < len(s); i++ {
		if IsQuotedSpecial(s[i]) {
			e.buf = append(e.buf, '\\')
		}
		e.buf = append(e.buf, s[i])
	}
	e.buf = append(e.buf, '"')
	return e
}

// QuotedChar writes a single character with the same escaping rule as
// QuotedString, without surrounding quotes (used inside an already-open
// quoted string context).
func (e *Encoder) QuotedChar(b byte) *Encoder {
	if IsQuotedSpecial(b) {
		e.buf = append(e.buf, '\\')
	}
	e.buf = append(e.buf, b)
	return e
}

// String writes a string using the best available encoding: atom when
// the charset allows it unquoted, quoted when it's printable without
// CR/LF, or a Sync literal when it contains bytes a quoted string can't
// carry (per the IString rule, §3).
func (e *Encoder) String(s string) *Encoder {
	if NeedsLiteral(s) {
		return e.Literal([]byte(s), LiteralSync)
	}
	if NeedsQuoting(s) {
		return e.QuotedString(s)
	}
	return e.Atom(s)
}

// AString writes an astring: Atom when the charset allows, else the
// String rule.
func (e *Encoder) AString(s string) *Encoder {
	if !NeedsQuoting(s) {
		return e.Atom(s)
	}
	return e.String(s)
}

// NString writes NIL for an absent value, otherwise the IString rule.
func (e *Encoder) NString(s *string) *Encoder {
	if s == nil {
		return e.Nil()
	}
	return e.String(*s)
}

// Nil writes the literal token NIL.
func (e *Encoder) Nil() *Encoder {
	return e.RawString("NIL")
}

// Number writes an unsigned 32-bit number.
func (e *Encoder) Number(n uint32) *Encoder {
	e.buf = strconv.AppendUint(e.buf, uint64(n), 10)
	return e
}

// Number64 writes an unsigned 64-bit number.
func (e *Encoder) Number64(n uint64) *Encoder {
	e.buf = strconv.AppendUint(e.buf, n, 10)
	return e
}

// Literal is the only leaf rule that produces a fragment boundary (§4.A).
// It writes the announcement "{N}\r\n" (or "{N+}\r\n" for a non-
// synchronizing literal) into the accumulator, flushes everything
// accumulated so far — including that announcement — as a Line
// fragment, then appends a Literal fragment carrying data and mode.
// This is precisely the point at which a synchronizing sender must
// block for the peer's "+" continuation (§4.B rationale).
func (e *Encoder) Literal(data []byte, mode LiteralMode) *Encoder {
	e.buf = append(e.buf, '{')
	e.buf = strconv.AppendInt(e.buf, int64(len(data)), 10)
	if mode == LiteralNonSync {
		e.buf = append(e.buf, '+')
	}
	e.buf = append(e.buf, '}', '\r', '\n')
	e.flushLine()
	e.fragments = append(e.fragments, Fragment{Kind: FragmentLiteral, Data: data, Mode: mode})
	return e
}

// BinaryLiteral is Literal's RFC 3516 "~{N}" form; on the wire it differs
// from Literal only in the leading '~' before the brace.
func (e *Encoder) BinaryLiteral(data []byte, mode LiteralMode) *Encoder {
	e.buf = append(e.buf, '~', '{')
	e.buf = strconv.AppendInt(e.buf, int64(len(data)), 10)
	if mode == LiteralNonSync {
		e.buf = append(e.buf, '+')
	}
	e.buf = append(e.buf, '}', '\r', '\n')
	e.flushLine()
	e.fragments = append(e.fragments, Fragment{Kind: FragmentLiteral, Data: data, Mode: mode})
	return e
}

// flushLine pushes the current accumulator as a Line fragment, if
// non-empty, and resets it.
func (e *Encoder) flushLine() {
	if len(e.buf) == 0 {
		return
	}
	line := make([]byte, len(e.buf))
	copy(line, e.buf)
	e.fragments = append(e.fragments, Fragment{Kind: FragmentLine, Data: line})
	e.buf = e.buf[:0]
}

// BeginList writes an opening parenthesis.
func (e *Encoder) BeginList() *Encoder {
	e.buf = append(e.buf, '(')
	return e
}

// EndList writes a closing parenthesis.
func (e *Encoder) EndList() *Encoder {
	e.buf = append(e.buf, ')')
	return e
}

// List writes a parenthesized, space-joined list of strings using the
// AString rule per element ("join_serializable" in §4.A terms).
func (e *Encoder) List(items []string) *Encoder {
	e.buf = append(e.buf, '(')
	for i, item := range items {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.AString(item)
	}
	e.buf = append(e.buf, ')')
	return e
}

// List1OrNil writes NIL for an empty list, otherwise a parenthesized
// list built by calling fn for each index.
func (e *Encoder) List1OrNil(n int, fn func(e *Encoder, i int)) *Encoder {
	if n == 0 {
		return e.Nil()
	}
	e.buf = append(e.buf, '(')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		fn(e, i)
	}
	e.buf = append(e.buf, ')')
	return e
}

// List1AttributeValueOrNil writes NIL for n==0, otherwise a
// parenthesized "(k1 v1 k2 v2 ...)" list: fn is called once per pair
// index and must write exactly "key SP value"; this wraps the pairs in
// parens and puts a single space between successive pairs.
func (e *Encoder) List1AttributeValueOrNil(n int, fn func(e *Encoder, i int)) *Encoder {
	if n == 0 {
		return e.Nil()
	}
	e.buf = append(e.buf, '(')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		fn(e, i)
	}
	e.buf = append(e.buf, ')')
	return e
}

// Flag writes one flag token verbatim: a predefined backslash flag
// (\Seen, \Answered, \Flagged, \Deleted, \Draft), \Recent, the
// permanent-flags wildcard \*, an extension flag (\<atom>), or a bare
// keyword atom. Flags are their own grammar production, not an Atom or
// AString — a leading backslash is legal here even though it is an
// atom-special everywhere else — so the stored bytes are written as-is;
// construction is responsible for only ever storing a valid flag token.
func (e *Encoder) Flag(f string) *Encoder {
	return e.RawString(f)
}

// Flags writes a parenthesized, space-joined list of flags via the Flag
// rule.
func (e *Encoder) Flags(flags []string) *Encoder {
	e.buf = append(e.buf, '(')
	for i, f := range flags {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.Flag(f)
	}
	e.buf = append(e.buf, ')')
	return e
}

// SequenceSet writes a pre-rendered sequence-set or UID-set string
// verbatim: comma-joined ranges, with "*" already substituted for the
// highest-numbered sentinel by the caller (NumSet.String() does exactly
// this rendering; this rule is the point where that string crosses into
// the fragment accumulator, per §4.A's Sequence/SequenceSet rule).
func (e *Encoder) SequenceSet(s string) *Encoder {
	return e.RawString(s)
}

// Section writes a BODY-section-spec interior: a dot-joined, nonzero
// MIME part-number prefix, then the specifier (HEADER, TEXT, MIME,
// HEADER.FIELDS, HEADER.FIELDS.NOT) separated from the part prefix by a
// '.', with a parenthesized AString field list for the two
// HEADER.FIELDS forms. A nil part with no specifier writes nothing (the
// bare "BODY[]" whole-message form).
func (e *Encoder) Section(part []int, specifier string, fields []string) *Encoder {
	for i, p := range part {
		if i > 0 {
			e.buf = append(e.buf, '.')
		}
		e.Number(uint32(p))
	}
	if specifier == "" {
		return e
	}
	if len(part) > 0 {
		e.buf = append(e.buf, '.')
	}
	e.RawString(specifier)
	if specifier == "HEADER.FIELDS" || specifier == "HEADER.FIELDS.NOT" {
		e.SP().List(fields)
	}
	return e
}

// BodyExt writes the MessageDataItemName::BodyExt production: "BODY["
// or "BODY.PEEK[" when peek, the section interior via Section, the
// closing "]", and an optional "<offset.count>" partial suffix.
func (e *Encoder) BodyExt(peek bool, part []int, specifier string, fields []string, partial *Partial) *Encoder {
	if peek {
		e.RawString("BODY.PEEK[")
	} else {
		e.RawString("BODY[")
	}
	e.Section(part, specifier, fields)
	e.RawString("]")
	if partial != nil {
		e.RawString("<")
		e.Number64(uint64(partial.Offset))
		e.RawString(".")
		e.Number64(uint64(partial.Count))
		e.RawString(">")
	}
	return e
}

// Partial is the leaf-encoder's representation of a fetch section's
// "<offset.count>" partial byte range, kept here (rather than importing
// the domain package's SectionPartial) so wire has no dependency on the
// root package.
type Partial struct {
	Offset int64
	Count  int64
}

// Date writes a date in DD-Mon-YYYY quoted form.
func (e *Encoder) Date(t time.Time) *Encoder {
	return e.QuotedString(t.UTC().Format("02-Jan-2006"))
}

// DateTime writes a date-time in "DD-Mon-YYYY HH:MM:SS ±HHMM" quoted
// form, preserving t's own zone offset (not normalized to UTC).
func (e *Encoder) DateTime(t time.Time) *Encoder {
	return e.QuotedString(t.Format("02-Jan-2006 15:04:05 -0700"))
}

// Tag writes a command tag's raw bytes.
func (e *Encoder) Tag(tag string) *Encoder {
	return e.RawString(tag)
}

// Star writes the untagged response prefix "* ".
func (e *Encoder) Star() *Encoder {
	return e.RawString("* ")
}

// Plus writes the continuation request prefix "+ ".
func (e *Encoder) Plus() *Encoder {
	return e.RawString("+ ")
}

// StatusResponse writes a status response: "TAG|* KIND [CODE] text
// CRLF"; an empty tag (or "*") writes the untagged form.
func (e *Encoder) StatusResponse(tag, status, code, text string) *Encoder {
	if tag == "" || tag == "*" {
		e.Star()
	} else {
		e.Tag(tag).SP()
	}
	e.Atom(status)
	if code != "" {
		e.RawString(" [").RawString(code).RawString("]")
	}
	if text != "" {
		e.SP().RawString(text)
	}
	return e.CRLF()
}

// BeginResponse starts an untagged response with the given name.
func (e *Encoder) BeginResponse(name string) *Encoder {
	return e.Star().Atom(name).SP()
}

// NumResponse writes an untagged numeric response, e.g. "* 5 EXISTS".
func (e *Encoder) NumResponse(num uint32, name string) *Encoder {
	return e.Star().Number(num).SP().Atom(name).CRLF()
}

// ContinuationRequest writes a "+" continuation, optionally followed by
// free text. An empty text writes the bare "+ " form (§9 open question
// on empty Continue::Base64).
func (e *Encoder) ContinuationRequest(text string) *Encoder {
	e.Plus()
	if text != "" {
		e.RawString(text)
	}
	return e.CRLF()
}

// MailboxName writes a mailbox name: the bare atom INBOX for the
// case-insensitive INBOX equivalence class, else the AString rule
// applied to name after encoding it to modified UTF-7 (RFC 3501
// §5.1.3) — callers store and construct mailbox names as plain UTF-8;
// this is the one place that crosses into the wire's 7-bit form.
func (e *Encoder) MailboxName(name string) *Encoder {
	if strings.EqualFold(name, "INBOX") {
		return e.Atom("INBOX")
	}
	return e.AString(utf7.Encode(name))
}

// ResponseCode writes a bracketed response code with optional arguments.
func (e *Encoder) ResponseCode(code string, args ...interface{}) *Encoder {
	e.RawString("[").RawString(code)
	for _, arg := range args {
		e.SP()
		e.RawString(fmt.Sprint(arg))
	}
	e.RawString("] ")
	return e
}

// Finish flushes any remaining accumulator content as a final Line
// fragment (a message always ends on a Line, since commands/responses
// terminate with CRLF) and returns the completed, drainable
// FragmentStream. The Encoder must not be reused afterward.
func (e *Encoder) Finish() *FragmentStream {
	e.flushLine()
	return &FragmentStream{fragments: e.fragments}
}
