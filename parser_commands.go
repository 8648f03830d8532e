package imapwire

import (
	"fmt"
	"strings"
	"time"

	"github.com/corvid-im/imapwire/wire"
)

// LoginCommand holds LOGIN's arguments. Password is a Secret (§9
// "Secrets") so a stray %v on the command never leaks the plaintext.
type LoginCommand struct {
	Username string
	Password Secret
}

// AuthenticateCommand holds AUTHENTICATE's arguments. InitialResponse is
// the decoded SASL-IR payload, which for mechanisms like PLAIN directly
// contains the password, so it is wrapped the same as LoginCommand.Password.
type AuthenticateCommand struct {
	Mechanism       string
	InitialResponse Secret
}

// SelectCommand holds SELECT/EXAMINE's arguments.
type SelectCommand struct {
	Mailbox string
	Options SelectOptions
}

// CreateCommand holds CREATE's arguments.
type CreateCommand struct {
	Mailbox string
	Options CreateOptions
}

// DeleteCommand holds DELETE's arguments.
type DeleteCommand struct {
	Mailbox string
}

// RenameCommand holds RENAME's arguments.
type RenameCommand struct {
	From string
	To   string
}

// SubscribeCommand holds SUBSCRIBE/UNSUBSCRIBE's arguments.
type SubscribeCommand struct {
	Mailbox string
}

// ListCommand holds LIST's arguments.
type ListCommand struct {
	Reference string
	Pattern   string
}

// StatusCommand holds STATUS's arguments.
type StatusCommand struct {
	Mailbox string
	Options StatusOptions
}

// AppendCommand holds APPEND's arguments.
type AppendCommand struct {
	Mailbox      string
	Flags        []Flag
	InternalDate *InternalDate
	Literal      []byte
}

// SearchCommand holds SEARCH's arguments. Keys is an ordered list of
// top-level search keys; per RFC 3501 §6.4.4 a SEARCH command's keys
// are implicitly ANDed by concatenation.
type SearchCommand struct {
	UID     bool
	Keys    []SearchKey
	Options SearchOptions
}

// FetchCommand holds FETCH's arguments. Items preserves the client's
// requested order, including repeated BODY[section]/BINARY[section]
// items with distinct parameters.
type FetchCommand struct {
	UID    bool
	SeqSet *SeqSet
	UIDSet *UIDSet
	Items  []FetchItem
}

// StoreCommand holds STORE's arguments.
type StoreCommand struct {
	UID    bool
	SeqSet *SeqSet
	UIDSet *UIDSet
	Flags  StoreFlags
	Options StoreOptions
}

// CopyCommand holds COPY/MOVE's arguments. Move distinguishes the two,
// since both a bare COPY/MOVE and a UID-wrapped "UID COPY"/"UID MOVE"
// share this struct and the outer Command.Name is "UID" in the latter
// case.
type CopyCommand struct {
	UID     bool
	Move    bool
	SeqSet  *SeqSet
	UIDSet  *UIDSet
	Mailbox string
}

// EnableCommand holds ENABLE's arguments.
type EnableCommand struct {
	Caps []Cap
}

// IDCommand holds ID's arguments.
type IDCommand struct {
	Params map[string]string
}

// GetACLCommand holds GETACL's arguments.
type GetACLCommand struct {
	Mailbox string
}

// SetACLCommand holds SETACL's arguments.
type SetACLCommand struct {
	Mailbox    string
	Identifier string
	Rights     string
}

// DeleteACLCommand holds DELETEACL's arguments.
type DeleteACLCommand struct {
	Mailbox    string
	Identifier string
}

// GetQuotaCommand holds GETQUOTA's arguments.
type GetQuotaCommand struct {
	Root string
}

// GetQuotaRootCommand holds GETQUOTAROOT's arguments.
type GetQuotaRootCommand struct {
	Mailbox string
}

// SetQuotaCommand holds SETQUOTA's arguments.
type SetQuotaCommand struct {
	Root      string
	Resources []QuotaResourceData
}

// parseCommandArgs dispatches on the command name, reading whatever
// arguments follow it (each argument parser consumes its own leading
// space; Parse stops right after the name), and discarding the
// trailing CRLF. Commands with no arguments still need
// to consume it; commands that take a literal rely on wire.Decoder
// having already inlined the literal bytes into the frame before
// parsing begins.
func parseCommandArgs(name string, r *wire.TokenReader) (interface{}, error) {
	switch name {
	case CommandCapability, CommandNoop, CommandLogout, CommandStartTLS,
		CommandIdle, CommandClose, CommandUnselect, CommandExpunge,
		CommandUnauthenticate:
		return nil, endOfLine(r)

	case CommandAuthenticate:
		return parseAuthenticate(r)
	case CommandLogin:
		return parseLogin(r)
	case CommandSelect, CommandExamine:
		return parseSelect(r, name == CommandExamine)
	case CommandCreate:
		return parseCreate(r)
	case CommandDelete:
		return parseMailboxArg(r, func(mbox string) interface{} { return &DeleteCommand{Mailbox: mbox} })
	case CommandRename:
		return parseRename(r)
	case CommandSubscribe, CommandUnsubscribe:
		return parseMailboxArg(r, func(mbox string) interface{} { return &SubscribeCommand{Mailbox: mbox} })
	case CommandList, CommandLsub:
		return parseList(r)
	case CommandNamespace:
		return nil, endOfLine(r)
	case CommandStatus:
		return parseStatus(r)
	case CommandAppend:
		return parseAppend(r)
	case CommandEnable:
		return parseEnable(r)
	case CommandSearch:
		return parseSearch(r, false)
	case CommandFetch:
		return parseFetch(r, false)
	case CommandStore:
		return parseStore(r, false)
	case CommandCopy, CommandMove:
		return parseCopy(r, false, name == CommandMove)
	case CommandUID:
		return parseUIDWrapped(r)
	case CommandGetACL:
		return parseMailboxArg(r, func(mbox string) interface{} { return &GetACLCommand{Mailbox: mbox} })
	case CommandSetACL:
		return parseSetACL(r)
	case CommandDeleteACL:
		return parseDeleteACL(r)
	case CommandGetQuota:
		return parseMailboxArg(r, func(mbox string) interface{} { return &GetQuotaCommand{Root: mbox} })
	case CommandGetQuotaRoot:
		return parseMailboxArg(r, func(mbox string) interface{} { return &GetQuotaRootCommand{Mailbox: mbox} })
	case CommandSetQuota:
		return parseSetQuota(r)
	case CommandID:
		return parseID(r)
	default:
		// Unknown commands still need their argument text consumed so
		// the decoder's frame boundary stays correct; callers treat a
		// nil Args with no error as "accepted, no structured args".
		_, err := r.RestOfLine()
		return nil, err
	}
}

func endOfLine(r *wire.TokenReader) error {
	_, err := r.RestOfLine()
	return err
}

func parseMailboxArg(r *wire.TokenReader, build func(string) interface{}) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := endOfLine(r); err != nil {
		return nil, err
	}
	return build(mbox), nil
}

func parseAuthenticate(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mech, err := r.ReadAtom()
	if err != nil {
		return nil, err
	}
	cmd := &AuthenticateCommand{Mechanism: strings.ToUpper(mech)}
	if b, ok := r.Peek(); ok && b == ' ' {
		r.ReadSP()
		resp, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		cmd.InitialResponse = NewSecret(resp)
	}
	return cmd, endOfLine(r)
}

func parseLogin(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	user, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	pass, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	return &LoginCommand{Username: user, Password: NewSecret(pass)}, endOfLine(r)
}

func parseSelect(r *wire.TokenReader, readOnly bool) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	cmd := &SelectCommand{Mailbox: mbox, Options: SelectOptions{ReadOnly: readOnly}}
	// A parenthesized select-param list (CONDSTORE, QRESYNC) may follow;
	// any unrecognized parameter text is simply consumed and ignored,
	// since §6.A only requires the session state transition itself.
	if b, ok := r.Peek(); ok && b == ' ' {
		r.ReadSP()
		if err := r.ReadList(func() error {
			atom, err := r.ReadAtom()
			if err != nil {
				return err
			}
			if strings.EqualFold(atom, "CONDSTORE") {
				cmd.Options.CondStore = true
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return cmd, endOfLine(r)
}

func parseCreate(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	return &CreateCommand{Mailbox: mbox}, endOfLine(r)
}

func parseRename(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	from, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	to, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	return &RenameCommand{From: from, To: to}, endOfLine(r)
}

func parseList(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	ref, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	pattern, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	return &ListCommand{Reference: ref, Pattern: pattern}, endOfLine(r)
}

func parseStatus(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	cmd := &StatusCommand{Mailbox: mbox}
	err = r.ReadList(func() error {
		atom, err := r.ReadAtom()
		if err != nil {
			return err
		}
		switch strings.ToUpper(atom) {
		case "MESSAGES":
			cmd.Options.NumMessages = true
		case "UIDNEXT":
			cmd.Options.UIDNext = true
		case "UIDVALIDITY":
			cmd.Options.UIDValidity = true
		case "UNSEEN":
			cmd.Options.NumUnseen = true
		case "RECENT":
			cmd.Options.NumRecent = true
		case "SIZE":
			cmd.Options.Size = true
		case "APPENDLIMIT":
			cmd.Options.AppendLimit = true
		case "HIGHESTMODSEQ":
			cmd.Options.HighestModSeq = true
		case "MAILBOXID":
			cmd.Options.MailboxID = true
		default:
			return fmt.Errorf("imapwire: unknown status item %q", atom)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, endOfLine(r)
}

func parseAppend(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	cmd := &AppendCommand{Mailbox: mbox}

	if b, ok := r.Peek(); ok && b == ' ' {
		// Peek ahead: a flag list is parenthesized, a date-time is
		// quoted, a literal header starts with '{' or '~'.
		save := r.Pos()
		r.ReadSP()
		if b, ok := r.Peek(); ok && b == '(' {
			flags, err := parseFlagList(r)
			if err != nil {
				return nil, err
			}
			cmd.Flags = flags
		} else {
			r.Seek(save)
		}
	}
	if b, ok := r.Peek(); ok && b == ' ' {
		save := r.Pos()
		r.ReadSP()
		if b, ok := r.Peek(); ok && b == '"' {
			s, err := r.ReadQuotedString()
			if err != nil {
				return nil, err
			}
			t, err := internalDateLayout(s)
			if err != nil {
				return nil, err
			}
			cmd.InternalDate = &t
		} else {
			r.Seek(save)
		}
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	data, _, _, err := r.ReadLiteralHeaderInline()
	if err != nil {
		return nil, err
	}
	cmd.Literal = data
	return cmd, endOfLine(r)
}

func internalDateLayout(s string) (InternalDate, error) {
	t, err := time.Parse(InternalDateLayout, s)
	if err != nil {
		return InternalDate{}, fmt.Errorf("imapwire: invalid internal date %q: %w", s, err)
	}
	return InternalDate(t), nil
}

func parseEnable(r *wire.TokenReader) (interface{}, error) {
	var caps []Cap
	for {
		if err := r.ReadSP(); err != nil {
			return nil, err
		}
		atom, err := r.ReadAtom()
		if err != nil {
			return nil, err
		}
		caps = append(caps, Cap(atom))
		if b, ok := r.Peek(); !ok || b != ' ' {
			break
		}
	}
	return &EnableCommand{Caps: caps}, endOfLine(r)
}

func parseSearch(r *wire.TokenReader, uid bool) (interface{}, error) {
	cmd := &SearchCommand{UID: uid}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	// An optional "RETURN (...)" result-options prefix (ESEARCH).
	save := r.Pos()
	if atom, err := peekUpperAtom(r); err == nil && atom == "RETURN" {
		if err := r.ReadSP(); err != nil {
			return nil, err
		}
		if err := r.ReadList(func() error {
			opt, err := r.ReadAtom()
			if err != nil {
				return err
			}
			switch strings.ToUpper(opt) {
			case "MIN":
				cmd.Options.ReturnMin = true
			case "MAX":
				cmd.Options.ReturnMax = true
			case "ALL":
				cmd.Options.ReturnAll = true
			case "COUNT":
				cmd.Options.ReturnCount = true
			case "SAVE":
				cmd.Options.ReturnSave = true
			}
			return nil
		}); err != nil {
			return nil, err
		}
		if err := r.ReadSP(); err != nil {
			return nil, err
		}
	} else {
		r.Seek(save)
	}

	first, err := parseSearchKey(r)
	if err != nil {
		return nil, err
	}
	keys := []SearchKey{first}
	for {
		if b, ok := r.Peek(); !ok || b != ' ' {
			break
		}
		r.ReadSP()
		next, err := parseSearchKey(r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, next)
	}
	cmd.Keys = keys
	return cmd, endOfLine(r)
}

// peekUpperAtom reads an atom and upper-cases it, consuming it from the
// stream; a caller that decides it doesn't want this token must Seek
// back to the position captured before calling this.
func peekUpperAtom(r *wire.TokenReader) (string, error) {
	atom, err := r.ReadAtom()
	if err != nil {
		return "", err
	}
	return strings.ToUpper(atom), nil
}

func parseFetch(r *wire.TokenReader, uid bool) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	set, err := readSeqSetToken(r)
	if err != nil {
		return nil, err
	}
	cmd := &FetchCommand{UID: uid}
	if uid {
		uidSet, err := ParseUIDSet(set)
		if err != nil {
			return nil, err
		}
		cmd.UIDSet = uidSet
	} else {
		seqSet, err := ParseSeqSet(set)
		if err != nil {
			return nil, err
		}
		cmd.SeqSet = seqSet
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	items, err := parseFetchItems(r)
	if err != nil {
		return nil, err
	}
	cmd.Items = items
	return cmd, endOfLine(r)
}

func parseStore(r *wire.TokenReader, uid bool) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	set, err := readSeqSetToken(r)
	if err != nil {
		return nil, err
	}
	cmd := &StoreCommand{UID: uid}
	if uid {
		uidSet, err := ParseUIDSet(set)
		if err != nil {
			return nil, err
		}
		cmd.UIDSet = uidSet
	} else {
		seqSet, err := ParseSeqSet(set)
		if err != nil {
			return nil, err
		}
		cmd.SeqSet = seqSet
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	action, err := r.ReadAtom()
	if err != nil {
		return nil, err
	}
	if silent := strings.HasSuffix(strings.ToUpper(action), ".SILENT"); silent {
		cmd.Flags.Silent = true
		action = action[:len(action)-len(".SILENT")]
	}
	switch strings.ToUpper(action) {
	case "FLAGS":
		cmd.Flags.Action = StoreFlagsSet
	case "+FLAGS":
		cmd.Flags.Action = StoreFlagsAdd
	case "-FLAGS":
		cmd.Flags.Action = StoreFlagsDel
	default:
		return nil, fmt.Errorf("imapwire: unknown store action %q", action)
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	flags, err := parseFlagList(r)
	if err != nil {
		return nil, err
	}
	cmd.Flags.Flags = flags
	return cmd, endOfLine(r)
}

func parseCopy(r *wire.TokenReader, uid, move bool) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	set, err := readSeqSetToken(r)
	if err != nil {
		return nil, err
	}
	cmd := &CopyCommand{UID: uid, Move: move}
	if uid {
		uidSet, err := ParseUIDSet(set)
		if err != nil {
			return nil, err
		}
		cmd.UIDSet = uidSet
	} else {
		seqSet, err := ParseSeqSet(set)
		if err != nil {
			return nil, err
		}
		cmd.SeqSet = seqSet
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	cmd.Mailbox = mbox
	return cmd, endOfLine(r)
}

func parseUIDWrapped(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	sub, err := r.ReadAtom()
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(sub) {
	case "SEARCH":
		return parseSearch(r, true)
	case "FETCH":
		return parseFetch(r, true)
	case "STORE":
		return parseStore(r, true)
	case "COPY":
		return parseCopy(r, true, false)
	case "MOVE":
		return parseCopy(r, true, true)
	default:
		return nil, fmt.Errorf("imapwire: unknown UID-prefixed command %q", sub)
	}
}

func parseSetACL(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	ident, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	rights, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	return &SetACLCommand{Mailbox: mbox, Identifier: ident, Rights: rights}, endOfLine(r)
}

func parseDeleteACL(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	mbox, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	ident, err := r.ReadAString()
	if err != nil {
		return nil, err
	}
	return &DeleteACLCommand{Mailbox: mbox, Identifier: ident}, endOfLine(r)
}

func parseID(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	cmd := &IDCommand{Params: map[string]string{}}
	if b, ok := r.Peek(); ok && strings.EqualFold(string(b), "N") {
		// NIL: client has no identifying information to share.
		nilAtom, err := r.ReadAtom()
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(nilAtom, "NIL") {
			return nil, fmt.Errorf("imapwire: expected NIL or field list, got %q", nilAtom)
		}
		return cmd, endOfLine(r)
	}
	err := r.ReadList(func() error {
		key, err := r.ReadAString()
		if err != nil {
			return err
		}
		if err := r.ReadSP(); err != nil {
			return err
		}
		val, ok, err := r.ReadNString()
		if err != nil {
			return err
		}
		if ok {
			cmd.Params[strings.ToLower(key)] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, endOfLine(r)
}

func parseSetQuota(r *wire.TokenReader) (interface{}, error) {
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	root, err := parseMailbox(r)
	if err != nil {
		return nil, err
	}
	if err := r.ReadSP(); err != nil {
		return nil, err
	}
	cmd := &SetQuotaCommand{Root: root}
	err = r.ReadList(func() error {
		name, err := r.ReadAtom()
		if err != nil {
			return err
		}
		if err := r.ReadSP(); err != nil {
			return err
		}
		limit, err := r.ReadNumber64()
		if err != nil {
			return err
		}
		cmd.Resources = append(cmd.Resources, QuotaResourceData{Name: QuotaResource(name), Limit: int64(limit)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, endOfLine(r)
}
