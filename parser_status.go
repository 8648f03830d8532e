package imapwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvid-im/imapwire/wire"
)

// ParseGreeting parses the server's initial untagged status response
// (OK, PREAUTH, or BYE) sent before any command is read.
func ParseGreeting(line []byte) (*Greeting, error) {
	r := wire.NewTokenReader(line)
	if err := r.ExpectByte('*'); err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	status, err := parseStatusResponse(r)
	if err != nil {
		return nil, err
	}
	return &Greeting{Status: status}, nil
}

// ParseContinuation parses a "+" continuation-request line, either bare
// or carrying free text (e.g. a SASL challenge or literal prompt).
func ParseContinuation(line []byte) (*Continuation, error) {
	r := wire.NewTokenReader(line)
	if err := r.ExpectByte('+'); err != nil {
		return nil, err
	}
	if b, ok := r.Peek(); ok && b == ' ' {
		r.ReadSP()
	}
	text, err := r.RestOfLine()
	if err != nil {
		return nil, err
	}
	return &Continuation{Text: text}, nil
}

// ParseResponse parses one server response line: a tagged or untagged
// status response ("A1 OK ...", "* OK ...", "* NO ...") or an untagged
// data response ("* 3 EXISTS", "* LIST (...) ..."). The tag is "*" for
// untagged responses. Data responses whose payload this package doesn't
// model structurally are returned with Args holding the raw trailing
// text, mirroring how parseCommandArgs falls back for unknown verbs.
func ParseResponse(line []byte) (*Command, error) {
	r := wire.NewTokenReader(line)
	tag, err := readTagOrStar(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}

	// A leading digit means "<seq> EXISTS/RECENT/FETCH/EXPUNGE": the
	// response-name follows the number rather than preceding it.
	if b, ok := r.Peek(); ok && b >= '0' && b <= '9' {
		numStr, err := r.ReadAtom()
		if err != nil {
			return nil, err
		}
		if err := r.ReadSP(); err != nil {
			return nil, err
		}
		name, err := r.ReadAtom()
		if err != nil {
			return nil, err
		}
		n, perr := strconv.ParseUint(numStr, 10, 32)
		if perr != nil {
			return nil, fmt.Errorf("imapwire: invalid response sequence number %q: %w", numStr, perr)
		}
		rest, err := restOfLineOrEmpty(r)
		if err != nil {
			return nil, err
		}
		return &Command{Tag: tag, Name: upperASCII(name), Args: &NumericResponse{SeqNum: uint32(n), Text: rest}}, nil
	}

	name, err := r.ReadAtom()
	if err != nil {
		return nil, err
	}
	upperName := upperASCII(name)

	switch upperName {
	case "OK", "NO", "BAD", "BYE", "PREAUTH":
		// The type atom is already consumed, so continue with
		// finishStatusResponse rather than parseStatusResponse (which
		// expects to start at the type atom itself).
		status, rerr := finishStatusResponse(r, StatusResponseType(upperName))
		if rerr != nil {
			return nil, rerr
		}
		return &Command{Tag: tag, Name: upperName, Args: status}, nil
	default:
		if b, ok := r.Peek(); ok && b == ' ' {
			r.ReadSP()
		}
		rest, err := restOfLineOrEmpty(r)
		if err != nil {
			return nil, err
		}
		return &Command{Tag: tag, Name: upperName, Args: &RawResponse{Text: rest}}, nil
	}
}

// NumericResponse holds a "<seq> NAME ..." response's sequence number
// and unparsed trailing text (EXISTS, RECENT, EXPUNGE, FETCH).
type NumericResponse struct {
	SeqNum uint32
	Text   string
}

// RawResponse holds a response whose payload this package doesn't parse
// into a structured type, keeping its trailing text verbatim.
type RawResponse struct {
	Text string
}

// readTagOrStar reads a response tag, which is either a normal command
// tag atom or the literal "*" marking an untagged response (the
// list-wildcard character, so it is never itself a valid atom char).
func readTagOrStar(r *wire.TokenReader) (string, error) {
	if b, ok := r.Peek(); ok && b == '*' {
		r.ReadByte()
		return "*", nil
	}
	return r.ReadAtom()
}

func parseStatusResponse(r *wire.TokenReader) (*StatusResponse, error) {
	typ, err := r.ReadAtom()
	if err != nil {
		return nil, err
	}
	return finishStatusResponse(r, StatusResponseType(strings.ToUpper(typ)))
}

func finishStatusResponse(r *wire.TokenReader, typ StatusResponseType) (*StatusResponse, error) {
	status := &StatusResponse{Type: typ}
	if b, ok := r.Peek(); ok && b == ' ' {
		r.ReadSP()
	} else {
		return status, nil
	}
	if b, ok := r.Peek(); ok && b == '[' {
		r.ReadByte()
		start := r.Pos()
		for {
			bb, ok := r.Peek()
			if !ok {
				return nil, fmt.Errorf("imapwire: unterminated response code")
			}
			if bb == ']' {
				break
			}
			r.ReadByte()
		}
		code := string(r.Slice(start, r.Pos()))
		r.ReadByte() // ']'
		if sp := strings.IndexByte(code, ' '); sp >= 0 {
			status.Code = ResponseCode(strings.ToUpper(code[:sp]))
			status.CodeArg = code[sp+1:]
		} else {
			status.Code = ResponseCode(strings.ToUpper(code))
		}
		if b, ok := r.Peek(); ok && b == ' ' {
			r.ReadSP()
		}
	}
	text, err := restOfLineOrEmpty(r)
	if err != nil {
		return nil, err
	}
	status.Text = text
	return status, nil
}

// restOfLineOrEmpty consumes the rest of the line if one follows,
// tolerating callers that pass a line with no trailing CRLF (e.g. a
// greeting fed straight in by a caller that stripped it already).
func restOfLineOrEmpty(r *wire.TokenReader) (string, error) {
	if r.Len() == 0 {
		return "", nil
	}
	return r.RestOfLine()
}
