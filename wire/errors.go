package wire

import "fmt"

// LiteralErrorKind distinguishes the ways a literal announcement can be
// malformed or rejected.
type LiteralErrorKind int

const (
	// LiteralErrNoOpeningBrace: the line ended in '}' but scanning back
	// found no matching '{'. The line is ill-formed; unrecoverable
	// locally.
	LiteralErrNoOpeningBrace LiteralErrorKind = iota
	// LiteralErrBadNumber: the bytes between '{' and '}' were not valid
	// decimal, or did not fit the size domain.
	LiteralErrBadNumber
	// LiteralErrTooLarge: the announced size exceeds the configured
	// max_literal_size. Surfaced as an ActionRequired outcome
	// (SendLiteralReject), never as a returned error.
	LiteralErrTooLarge
)

// FramingError reports that the decoder encountered a line terminator
// other than CRLF. A lone LF without a preceding CR is a framing error;
// IMAP forbids bare LF. Fatal for the current buffer: the caller should
// clear it and close or resynchronize the session.
type FramingError struct {
	// Found is the byte that appeared where '\r' was expected, or 0 if
	// the LF was the first byte of the line.
	Found byte
}

func (e *FramingError) Error() string {
	if e.Found == 0 {
		return "imapwire: line not terminated by CRLF"
	}
	return fmt.Sprintf("imapwire: expected CRLF, found %q before LF", e.Found)
}

// LiteralError reports a malformed literal announcement.
type LiteralError struct {
	Kind LiteralErrorKind
	// Size is set for LiteralErrTooLarge.
	Size int64
	// Raw is the offending bytes between the braces, set for
	// LiteralErrBadNumber.
	Raw string
}

func (e *LiteralError) Error() string {
	switch e.Kind {
	case LiteralErrNoOpeningBrace:
		return "imapwire: literal announcement missing opening '{'"
	case LiteralErrBadNumber:
		return fmt.Sprintf("imapwire: invalid literal size %q", e.Raw)
	case LiteralErrTooLarge:
		return fmt.Sprintf("imapwire: literal of %d bytes exceeds max_literal_size", e.Size)
	default:
		return "imapwire: malformed literal"
	}
}

// ParseError wraps a failure from the external command/response parser
// (§4.D). The one framed command is discarded; the caller typically
// responds BAD and continues.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("imapwire: command parsing failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
