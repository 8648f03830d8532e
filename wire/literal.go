package wire

import "strconv"

// literalHeader is the parsed form of a "{N}", "{N+}", or "~{N}" literal
// announcement found at the end of a line.
type literalHeader struct {
	Size   int64
	Mode   LiteralMode
	Binary bool // "~{N}" form (RFC 3516 BINARY), carried alongside Sync/NonSync
}

// scanLiteralHeader looks for a trailing literal announcement on a
// completed line (CRLF already stripped). Per §4.C: scan from the end;
// if the last byte is '}', scan backward for '{'; the bytes strictly
// between are the declared size. Returns ok=false if the line does not
// end in '}' at all (no literal announced — a normal command line).
// Returns an error if it ends in '}' but no matching '{' is found, or
// the number between the braces doesn't parse.
func scanLiteralHeader(line []byte) (hdr literalHeader, ok bool, err error) {
	if len(line) == 0 || line[len(line)-1] != '}' {
		return literalHeader{}, false, nil
	}

	open := -1
	for i := len(line) - 2; i >= 0; i-- {
		switch {
		case line[i] == '{':
			open = i
		case line[i] >= '0' && line[i] <= '9', line[i] == '+':
			continue
		default:
			// Not a digit, '+', or '{': the trailing '}' isn't a
			// literal header (e.g. a bracketed section just happens
			// to end the line).
			return literalHeader{}, false, nil
		}
		if open >= 0 {
			break
		}
	}
	if open < 0 {
		return literalHeader{}, false, &LiteralError{Kind: LiteralErrNoOpeningBrace}
	}

	binary := open > 0 && line[open-1] == '~'

	numStr := string(line[open+1 : len(line)-1])
	nonSync := false
	if len(numStr) > 0 && numStr[len(numStr)-1] == '+' {
		nonSync = true
		numStr = numStr[:len(numStr)-1]
	}

	size, perr := strconv.ParseInt(numStr, 10, 63)
	if perr != nil || size < 0 {
		return literalHeader{}, false, &LiteralError{Kind: LiteralErrBadNumber, Raw: numStr}
	}

	mode := LiteralSync
	if nonSync {
		mode = LiteralNonSync
	}
	return literalHeader{Size: size, Mode: mode, Binary: binary}, true, nil
}
