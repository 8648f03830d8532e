package imapwire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corvid-im/imapwire/wire"
	"github.com/corvid-im/imapwire/wire/utf7"
)

// parseMailbox reads an astring mailbox name, folds the INBOX
// equivalence class to the canonical "INBOX" spelling, and decodes the
// wire's modified UTF-7 form back to plain UTF-8 — the inverse of
// Encoder.MailboxName, so parse(dump(encode(c))) round-trips mailbox
// names containing non-ASCII characters.
func parseMailbox(r *wire.TokenReader) (string, error) {
	name, err := r.ReadAString()
	if err != nil {
		return "", err
	}
	if strings.EqualFold(name, "INBOX") {
		return "INBOX", nil
	}
	decoded, err := utf7.Decode(name)
	if err != nil {
		return "", fmt.Errorf("imapwire: invalid mailbox name %q: %w", name, err)
	}
	return decoded, nil
}

func parseFlagList(r *wire.TokenReader) ([]Flag, error) {
	raw, err := r.ReadFlags()
	if err != nil {
		return nil, err
	}
	flags := make([]Flag, len(raw))
	for i, f := range raw {
		flags[i] = Flag(f)
	}
	return flags, nil
}

// parseSeqSet reads a sequence-set token (digits, ':', ',', '*').
func parseSeqSet(r *wire.TokenReader) (*SeqSet, error) {
	s, err := readSeqSetToken(r)
	if err != nil {
		return nil, err
	}
	return ParseSeqSet(s)
}

func parseUIDSet(r *wire.TokenReader) (*UIDSet, error) {
	s, err := readSeqSetToken(r)
	if err != nil {
		return nil, err
	}
	return ParseUIDSet(s)
}

// readSeqSetToken reads the raw characters of a sequence-set/uid-set:
// digits, ',', ':', and '*'. '*' is an atom-special (list-wildcard), so
// ReadAtom would stop at it; the run is scanned byte by byte instead.
func readSeqSetToken(r *wire.TokenReader) (string, error) {
	start := r.Pos()
	for {
		b, ok := r.Peek()
		if !ok || !((b >= '0' && b <= '9') || b == ',' || b == ':' || b == '*') {
			break
		}
		r.ReadByte()
	}
	if r.Pos() == start {
		return "", fmt.Errorf("imapwire: expected sequence set")
	}
	return string(r.Slice(start, r.Pos())), nil
}

// parseSearchDate reads a quoted or bare date (DD-Mon-YYYY) for SEARCH
// date criteria (SINCE, BEFORE, ON, ...).
func parseSearchDate(r *wire.TokenReader) (time.Time, error) {
	s, err := r.ReadString()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("02-Jan-2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("imapwire: invalid date %q: %w", s, err)
	}
	return t, nil
}

// parseSectionPart parses a MIME part-number path like "1.2.3" into its
// integer components.
func parseSectionPart(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ".")
	part := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("imapwire: invalid section part %q: %w", s, err)
		}
		part = append(part, n)
	}
	return part, nil
}

// parseSearchKey parses one SEARCH key per RFC 3501 §6.4.4, recursively
// for OR/NOT and parenthesized groups, into a single SearchKey node.
func parseSearchKey(r *wire.TokenReader) (SearchKey, error) {
	b, ok := r.Peek()
	if !ok {
		return SearchKey{}, fmt.Errorf("imapwire: expected search key, got end of input")
	}

	// A bare sequence set (no keyword) is itself a search key.
	if b >= '0' && b <= '9' || b == '*' {
		set, err := parseSeqSet(r)
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeySeqNum, SeqNum: set}, nil
	}
	if b == '$' {
		r.ReadByte()
		return SearchKey{Kind: SearchKeySaveResult}, nil
	}

	if b == '(' {
		var children []SearchKey
		err := r.ReadList(func() error {
			sub, err := parseSearchKey(r)
			if err != nil {
				return err
			}
			children = append(children, sub)
			return nil
		})
		if err != nil {
			return SearchKey{}, err
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return SearchKey{Kind: SearchKeyAnd, Children: children}, nil
	}

	key, err := r.ReadAtom()
	if err != nil {
		return SearchKey{}, err
	}

	switch strings.ToUpper(key) {
	case "ALL":
		return SearchKey{Kind: SearchKeyAll}, nil
	case "ANSWERED":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagAnswered}, nil
	case "DELETED":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagDeleted}, nil
	case "FLAGGED":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagFlagged}, nil
	case "SEEN":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagSeen}, nil
	case "DRAFT":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagDraft}, nil
	case "NEW", "RECENT":
		return SearchKey{Kind: SearchKeyFlag, Flag: FlagRecent}, nil
	case "UNANSWERED":
		return SearchKey{Kind: SearchKeyNotFlag, Flag: FlagAnswered}, nil
	case "UNDELETED":
		return SearchKey{Kind: SearchKeyNotFlag, Flag: FlagDeleted}, nil
	case "UNFLAGGED":
		return SearchKey{Kind: SearchKeyNotFlag, Flag: FlagFlagged}, nil
	case "UNSEEN":
		return SearchKey{Kind: SearchKeyNotFlag, Flag: FlagSeen}, nil
	case "UNDRAFT":
		return SearchKey{Kind: SearchKeyNotFlag, Flag: FlagDraft}, nil
	case "KEYWORD", "UNKEYWORD":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		flag, err := r.ReadAtom()
		if err != nil {
			return SearchKey{}, err
		}
		if strings.ToUpper(key) == "KEYWORD" {
			return SearchKey{Kind: SearchKeyFlag, Flag: Flag(flag)}, nil
		}
		return SearchKey{Kind: SearchKeyNotFlag, Flag: Flag(flag)}, nil
	case "BODY":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		s, err := r.ReadString()
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyBody, Body: s}, nil
	case "TEXT":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		s, err := r.ReadString()
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyText, Text: s}, nil
	case "SINCE", "BEFORE", "SENTSINCE", "SENTBEFORE", "SENTON", "ON":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		t, err := parseSearchDate(r)
		if err != nil {
			return SearchKey{}, err
		}
		switch strings.ToUpper(key) {
		case "SINCE":
			return SearchKey{Kind: SearchKeySince, Time: t}, nil
		case "BEFORE":
			return SearchKey{Kind: SearchKeyBefore, Time: t}, nil
		case "SENTSINCE":
			return SearchKey{Kind: SearchKeySentSince, Time: t}, nil
		case "SENTBEFORE":
			return SearchKey{Kind: SearchKeySentBefore, Time: t}, nil
		case "SENTON":
			return SearchKey{Kind: SearchKeySentOn, Time: t}, nil
		default:
			return SearchKey{Kind: SearchKeyOn, Time: t}, nil
		}
	case "LARGER", "SMALLER":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		n, err := r.ReadNumber64()
		if err != nil {
			return SearchKey{}, err
		}
		if strings.ToUpper(key) == "LARGER" {
			return SearchKey{Kind: SearchKeyLarger, Number: int64(n)}, nil
		}
		return SearchKey{Kind: SearchKeySmaller, Number: int64(n)}, nil
	case "YOUNGER", "OLDER":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		n, err := r.ReadNumber64()
		if err != nil {
			return SearchKey{}, err
		}
		if strings.ToUpper(key) == "YOUNGER" {
			return SearchKey{Kind: SearchKeyYounger, Number: int64(n)}, nil
		}
		return SearchKey{Kind: SearchKeyOlder, Number: int64(n)}, nil
	case "HEADER":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		field, err := r.ReadAString()
		if err != nil {
			return SearchKey{}, err
		}
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		value, err := r.ReadString()
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyHeader, Header: SearchKeyHeaderField{Key: field, Value: value}}, nil
	case "UID":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		set, err := parseUIDSet(r)
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyUID, UID: set}, nil
	case "NOT":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		sub, err := parseSearchKey(r)
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyNot, Children: []SearchKey{sub}}, nil
	case "OR":
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		left, err := parseSearchKey(r)
		if err != nil {
			return SearchKey{}, err
		}
		if err := r.ReadSP(); err != nil {
			return SearchKey{}, err
		}
		right, err := parseSearchKey(r)
		if err != nil {
			return SearchKey{}, err
		}
		return SearchKey{Kind: SearchKeyOr, Children: []SearchKey{left, right}}, nil
	default:
		return SearchKey{}, fmt.Errorf("imapwire: unknown search key %q", key)
	}
}

// parseFetchItems parses the FETCH message-data-item list: either a
// macro (ALL/FAST/FULL), a single item, or a parenthesized list,
// returning the requested items in the order the client listed them.
func parseFetchItems(r *wire.TokenReader) ([]FetchItem, error) {
	b, ok := r.Peek()
	if !ok {
		return nil, fmt.Errorf("imapwire: expected fetch items, got end of input")
	}
	if b == '(' {
		var items []FetchItem
		err := r.ReadList(func() error {
			it, err := parseOneFetchItem(r)
			if err != nil {
				return err
			}
			items = append(items, it...)
			return nil
		})
		return items, err
	}

	name, err := readFetchItemName(r)
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(name) {
	case "ALL":
		return FetchItemMacroAll.Expand(), nil
	case "FAST":
		return FetchItemMacroFast.Expand(), nil
	case "FULL":
		return FetchItemMacroFull.Expand(), nil
	default:
		return applyFetchItem(r, name)
	}
}

func parseOneFetchItem(r *wire.TokenReader) ([]FetchItem, error) {
	name, err := readFetchItemName(r)
	if err != nil {
		return nil, err
	}
	return applyFetchItem(r, name)
}

// readFetchItemName reads a fetch-item's name, stopping before '[' or
// '<' (both valid atom characters per wire.isAtomChar, so a plain
// ReadAtom would swallow a BODY[...] section into the name).
func readFetchItemName(r *wire.TokenReader) (string, error) {
	start := r.Pos()
	for {
		b, ok := r.Peek()
		if !ok || b == ' ' || b == ')' || b == '[' || b == '<' || b == '\r' {
			break
		}
		r.ReadByte()
	}
	if r.Pos() == start {
		return "", fmt.Errorf("imapwire: expected fetch item name")
	}
	return string(r.Slice(start, r.Pos())), nil
}

func applyFetchItem(r *wire.TokenReader, name string) ([]FetchItem, error) {
	switch strings.ToUpper(name) {
	case "FLAGS":
		return []FetchItem{{Kind: FetchItemFlags}}, nil
	case "ENVELOPE":
		return []FetchItem{{Kind: FetchItemEnvelope}}, nil
	case "INTERNALDATE":
		return []FetchItem{{Kind: FetchItemInternalDate}}, nil
	case "RFC822.SIZE":
		return []FetchItem{{Kind: FetchItemRFC822Size}}, nil
	case "UID":
		return []FetchItem{{Kind: FetchItemUID}}, nil
	case "BODYSTRUCTURE":
		return []FetchItem{{Kind: FetchItemBodyStructureKind}}, nil
	case "BODY":
		return parseBodySection(r, false)
	case "BODY.PEEK":
		return parseBodySection(r, true)
	case "MODSEQ":
		return []FetchItem{{Kind: FetchItemModSeq}}, nil
	case "PREVIEW":
		return parsePreviewItem(r)
	case "SAVEDATE":
		return []FetchItem{{Kind: FetchItemSaveDate}}, nil
	case "EMAILID":
		return []FetchItem{{Kind: FetchItemEmailID}}, nil
	case "THREADID":
		return []FetchItem{{Kind: FetchItemThreadID}}, nil
	default:
		return nil, fmt.Errorf("imapwire: unknown fetch item %q", name)
	}
}

// parsePreviewItem parses PREVIEW, optionally followed by the "(LAZY)"
// modifier (RFC 8970).
func parsePreviewItem(r *wire.TokenReader) ([]FetchItem, error) {
	item := FetchItem{Kind: FetchItemPreview}
	save := r.Pos()
	if b, ok := r.Peek(); ok && b == ' ' {
		r.ReadSP()
		if b, ok := r.Peek(); ok && b == '(' {
			if err := r.ReadList(func() error {
				atom, err := r.ReadAtom()
				if err != nil {
					return err
				}
				if strings.EqualFold(atom, "LAZY") {
					item.PreviewLazy = true
				}
				return nil
			}); err != nil {
				return nil, err
			}
		} else {
			r.Seek(save)
		}
	}
	return []FetchItem{item}, nil
}

// parseBodySection parses the optional "[section]<partial>" suffix of a
// BODY or BODY.PEEK fetch item. With no '[' at all, it's a bare
// "BODY" request for the structure with extension data stripped.
func parseBodySection(r *wire.TokenReader, peek bool) ([]FetchItem, error) {
	b, ok := r.Peek()
	if !ok || b != '[' {
		return []FetchItem{{Kind: FetchItemBodyKind, StripExt: true}}, nil
	}
	r.ReadByte() // '['

	item := FetchItem{Kind: FetchItemBodySectionKind, Peek: peek}

	// Leading dot-separated MIME part numbers, e.g. "1.2".
	var numeric []string
	for {
		start := r.Pos()
		for {
			b, ok := r.Peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			r.ReadByte()
		}
		if r.Pos() == start {
			break
		}
		numeric = append(numeric, string(r.Slice(start, r.Pos())))
		if b, ok := r.Peek(); ok && b == '.' {
			r.ReadByte()
			continue
		}
		break
	}
	if len(numeric) > 0 {
		part, err := parseSectionPart(strings.Join(numeric, "."))
		if err != nil {
			return nil, err
		}
		item.Part = part
	}

	// Trailing non-numeric specifier (HEADER, TEXT, MIME,
	// HEADER.FIELDS, HEADER.FIELDS.NOT), up to the optional field list
	// or the closing ']'.
	start := r.Pos()
	for {
		b, ok := r.Peek()
		if !ok || b == ']' || b == ' ' {
			break
		}
		r.ReadByte()
	}
	item.Specifier = string(r.Slice(start, r.Pos()))

	if item.Specifier == "HEADER.FIELDS" || item.Specifier == "HEADER.FIELDS.NOT" {
		if err := r.ReadSP(); err != nil {
			return nil, err
		}
		var names []string
		if err := r.ReadList(func() error {
			f, err := r.ReadAString()
			if err != nil {
				return err
			}
			names = append(names, f)
			return nil
		}); err != nil {
			return nil, err
		}
		item.Fields = names
		item.NotFields = item.Specifier == "HEADER.FIELDS.NOT"
	}

	if err := r.ExpectByte(']'); err != nil {
		return nil, err
	}

	if b, ok := r.Peek(); ok && b == '<' {
		r.ReadByte()
		off, err := r.ReadNumber64()
		if err != nil {
			return nil, err
		}
		if err := r.ExpectByte('.'); err != nil {
			return nil, err
		}
		cnt, err := r.ReadNumber64()
		if err != nil {
			return nil, err
		}
		if err := r.ExpectByte('>'); err != nil {
			return nil, err
		}
		item.Partial = &SectionPartial{Offset: int64(off), Count: int64(cnt)}
	}

	return []FetchItem{item}, nil
}
