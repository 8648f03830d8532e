package imapwire

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/corvid-im/imapwire/wire"
)

// EncodeCommand is the fragmenting encoder's entry point for a client
// command (§4.B): it writes the tag and command name, dispatches on
// cmd.Args' concrete type for the command-specific argument grammar,
// and terminates the line with CRLF. The returned stream must be
// drained in order (wire.FragmentStream.Next/All) — a literal
// fragment's bytes are only meaningful once every fragment ahead of it
// has reached the peer.
func EncodeCommand(cmd *Command) (*wire.FragmentStream, error) {
	e := wire.NewEncoder()
	e.Tag(cmd.Tag).SP().Atom(cmd.Name)
	if err := encodeCommandArgs(e, cmd); err != nil {
		return nil, err
	}
	e.CRLF()
	return e.Finish(), nil
}

func encodeCommandArgs(e *wire.Encoder, cmd *Command) error {
	switch args := cmd.Args.(type) {
	case nil:
		return nil

	case *AuthenticateCommand:
		e.SP().Atom(args.Mechanism)
		if !args.InitialResponse.IsZero() {
			e.SP().AString(string(args.InitialResponse.Bytes()))
		}
	case *LoginCommand:
		e.SP().AString(args.Username).SP().AString(string(args.Password.Bytes()))
	case *SelectCommand:
		e.SP().MailboxName(args.Mailbox)
		if args.Options.CondStore {
			e.SP().RawString("(CONDSTORE)")
		}
	case *CreateCommand:
		e.SP().MailboxName(args.Mailbox)
		if args.Options.SpecialUse != "" {
			e.SP().RawString("(USE (").Flag(string(args.Options.SpecialUse)).RawString("))")
		}
	case *DeleteCommand:
		e.SP().MailboxName(args.Mailbox)
	case *RenameCommand:
		e.SP().MailboxName(args.From).SP().MailboxName(args.To)
	case *SubscribeCommand:
		e.SP().MailboxName(args.Mailbox)
	case *ListCommand:
		e.SP().MailboxName(args.Reference).SP().AString(args.Pattern)
	case *StatusCommand:
		e.SP().MailboxName(args.Mailbox).SP().List(statusItemNames(args.Options))
	case *AppendCommand:
		e.SP().MailboxName(args.Mailbox)
		if len(args.Flags) > 0 {
			e.SP().Flags(flagStrings(args.Flags))
		}
		if args.InternalDate != nil {
			e.SP().DateTime(time.Time(*args.InternalDate))
		}
		e.SP().Literal(args.Literal, wire.LiteralSync)
	case *EnableCommand:
		for _, c := range args.Caps {
			e.SP().Atom(string(c))
		}
	case *SearchCommand:
		if cmd.Name == CommandUID {
			e.SP().Atom(CommandSearch)
		}
		if err := encodeSearchCommand(e, args); err != nil {
			return err
		}
	case *FetchCommand:
		if cmd.Name == CommandUID {
			e.SP().Atom(CommandFetch)
		}
		if err := encodeFetchCommand(e, args); err != nil {
			return err
		}
	case *StoreCommand:
		if cmd.Name == CommandUID {
			e.SP().Atom(CommandStore)
		}
		encodeStoreCommand(e, args)
	case *CopyCommand:
		if cmd.Name == CommandUID {
			if args.Move {
				e.SP().Atom(CommandMove)
			} else {
				e.SP().Atom(CommandCopy)
			}
		}
		encodeCopyCommand(e, args)
	case *GetACLCommand:
		e.SP().MailboxName(args.Mailbox)
	case *SetACLCommand:
		e.SP().MailboxName(args.Mailbox).SP().AString(args.Identifier).SP().AString(args.Rights)
	case *DeleteACLCommand:
		e.SP().MailboxName(args.Mailbox).SP().AString(args.Identifier)
	case *GetQuotaCommand:
		e.SP().MailboxName(args.Root)
	case *GetQuotaRootCommand:
		e.SP().MailboxName(args.Mailbox)
	case *SetQuotaCommand:
		e.SP().MailboxName(args.Root).SP()
		e.BeginList()
		for i, res := range args.Resources {
			if i > 0 {
				e.SP()
			}
			e.Atom(string(res.Name)).SP().Number64(uint64(res.Limit))
		}
		e.EndList()
	case *IDCommand:
		e.SP()
		encodeIDParams(e, args.Params)

	default:
		return fmt.Errorf("imapwire: cannot encode command %q with args of type %T", cmd.Name, cmd.Args)
	}
	return nil
}

func statusItemNames(o StatusOptions) []string {
	var items []string
	if o.NumMessages {
		items = append(items, "MESSAGES")
	}
	if o.UIDNext {
		items = append(items, "UIDNEXT")
	}
	if o.UIDValidity {
		items = append(items, "UIDVALIDITY")
	}
	if o.NumUnseen {
		items = append(items, "UNSEEN")
	}
	if o.NumRecent {
		items = append(items, "RECENT")
	}
	if o.Size {
		items = append(items, "SIZE")
	}
	if o.AppendLimit {
		items = append(items, "APPENDLIMIT")
	}
	if o.HighestModSeq {
		items = append(items, "HIGHESTMODSEQ")
	}
	if o.MailboxID {
		items = append(items, "MAILBOXID")
	}
	return items
}

func flagStrings(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

func encodeSeqOrUIDSet(e *wire.Encoder, seq *SeqSet, uid *UIDSet) {
	if uid != nil {
		e.SequenceSet(uid.String())
		return
	}
	e.SequenceSet(seq.String())
}

func encodeIDParams(e *wire.Encoder, params map[string]string) {
	if len(params) == 0 {
		e.Nil()
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.List1AttributeValueOrNil(len(keys), func(e *wire.Encoder, i int) {
		k := keys[i]
		v := params[k]
		e.AString(k).SP().NString(&v)
	})
}

func encodeSearchCommand(e *wire.Encoder, args *SearchCommand) error {
	o := args.Options
	if o.ReturnMin || o.ReturnMax || o.ReturnAll || o.ReturnCount || o.ReturnSave || o.ReturnPartial != nil {
		e.SP().Atom("RETURN").SP().BeginList()
		first := true
		put := func(name string) {
			if !first {
				e.SP()
			}
			first = false
			e.Atom(name)
		}
		if o.ReturnMin {
			put("MIN")
		}
		if o.ReturnMax {
			put("MAX")
		}
		if o.ReturnAll {
			put("ALL")
		}
		if o.ReturnCount {
			put("COUNT")
		}
		if o.ReturnSave {
			put("SAVE")
		}
		if o.ReturnPartial != nil {
			put("PARTIAL")
			e.SP().RawString(fmt.Sprintf("%d:%d", o.ReturnPartial.Offset, o.ReturnPartial.Count))
		}
		e.EndList()
	}
	for _, k := range args.Keys {
		e.SP()
		if err := encodeSearchKey(e, k); err != nil {
			return err
		}
	}
	return nil
}

// encodeSearchKey writes one SearchKey node (RFC 3501 §6.4.4), recursing
// into And/Or/Not's children. And's parenthesized-group form is the
// inverse of parseSearchKey's "(" branch.
func encodeSearchKey(e *wire.Encoder, k SearchKey) error {
	switch k.Kind {
	case SearchKeyAll:
		e.Atom("ALL")
	case SearchKeySeqNum:
		e.SequenceSet(k.SeqNum.String())
	case SearchKeyUID:
		e.Atom("UID").SP().SequenceSet(k.UID.String())
	case SearchKeyFlag:
		e.RawString(searchFlagKeyword(k.Flag, false))
	case SearchKeyNotFlag:
		e.RawString(searchFlagKeyword(k.Flag, true))
	case SearchKeyBody:
		e.Atom("BODY").SP().String(k.Body)
	case SearchKeyText:
		e.Atom("TEXT").SP().String(k.Text)
	case SearchKeyHeader:
		e.Atom("HEADER").SP().AString(k.Header.Key).SP().String(k.Header.Value)
	case SearchKeySince:
		e.Atom("SINCE").SP().Date(k.Time)
	case SearchKeyBefore:
		e.Atom("BEFORE").SP().Date(k.Time)
	case SearchKeySentSince:
		e.Atom("SENTSINCE").SP().Date(k.Time)
	case SearchKeySentBefore:
		e.Atom("SENTBEFORE").SP().Date(k.Time)
	case SearchKeySentOn:
		e.Atom("SENTON").SP().Date(k.Time)
	case SearchKeyOn:
		e.Atom("ON").SP().Date(k.Time)
	case SearchKeyLarger:
		e.Atom("LARGER").SP().Number64(uint64(k.Number))
	case SearchKeySmaller:
		e.Atom("SMALLER").SP().Number64(uint64(k.Number))
	case SearchKeyModSeq:
		e.Atom("MODSEQ").SP()
		if k.ModSeq.MetadataName != "" {
			e.QuotedString(k.ModSeq.MetadataName).SP().Atom(k.ModSeq.MetadataType).SP()
		}
		e.Number64(k.ModSeq.ModSeq)
	case SearchKeyYounger:
		e.Atom("YOUNGER").SP().Number64(uint64(k.Number))
	case SearchKeyOlder:
		e.Atom("OLDER").SP().Number64(uint64(k.Number))
	case SearchKeySaveResult:
		e.RawString("$")
	case SearchKeyFuzzy:
		e.Atom("FUZZY")
	case SearchKeyAnd:
		e.BeginList()
		for i, c := range k.Children {
			if i > 0 {
				e.SP()
			}
			if err := encodeSearchKey(e, c); err != nil {
				return err
			}
		}
		e.EndList()
	case SearchKeyOr:
		e.Atom("OR").SP()
		if err := encodeSearchKey(e, k.Children[0]); err != nil {
			return err
		}
		e.SP()
		if err := encodeSearchKey(e, k.Children[1]); err != nil {
			return err
		}
	case SearchKeyNot:
		e.Atom("NOT").SP()
		if err := encodeSearchKey(e, k.Children[0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("imapwire: unsupported search key kind %d", k.Kind)
	}
	return nil
}

// searchFlagKeyword maps a Flag back to its SEARCH keyword, the inverse
// of parseSearchKey's ANSWERED/DELETED/.../KEYWORD cases. \Recent maps
// to RECENT rather than NEW, since a parsed NEW key is indistinguishable
// from RECENT once reduced to FlagRecent.
func searchFlagKeyword(f Flag, not bool) string {
	var base string
	switch f {
	case FlagAnswered:
		base = "ANSWERED"
	case FlagDeleted:
		base = "DELETED"
	case FlagDraft:
		base = "DRAFT"
	case FlagFlagged:
		base = "FLAGGED"
	case FlagSeen:
		base = "SEEN"
	case FlagRecent:
		base = "RECENT"
	default:
		if not {
			return "UNKEYWORD " + string(f)
		}
		return "KEYWORD " + string(f)
	}
	if not {
		return "UN" + base
	}
	return base
}

func encodeFetchCommand(e *wire.Encoder, args *FetchCommand) error {
	e.SP()
	encodeSeqOrUIDSet(e, args.SeqSet, args.UIDSet)
	e.SP()
	return encodeFetchItems(e, args.Items)
}

// encodeFetchItems always writes the parenthesized item-list form, even
// for a single item; parseFetchItems accepts both the bare-item and
// parenthesized forms and produces the same Items slice either way, so
// this is a no-op change under parse(dump(encode(c))) == c.
func encodeFetchItems(e *wire.Encoder, items []FetchItem) error {
	e.BeginList()
	for i, it := range items {
		if i > 0 {
			e.SP()
		}
		if err := encodeFetchItem(e, it); err != nil {
			return err
		}
	}
	e.EndList()
	return nil
}

func encodeFetchItem(e *wire.Encoder, it FetchItem) error {
	switch it.Kind {
	case FetchItemFlags:
		e.Atom("FLAGS")
	case FetchItemEnvelope:
		e.Atom("ENVELOPE")
	case FetchItemInternalDate:
		e.Atom("INTERNALDATE")
	case FetchItemRFC822Size:
		e.Atom("RFC822.SIZE")
	case FetchItemUID:
		e.Atom("UID")
	case FetchItemBodyStructureKind:
		e.Atom("BODYSTRUCTURE")
	case FetchItemModSeq:
		e.Atom("MODSEQ")
	case FetchItemSaveDate:
		e.Atom("SAVEDATE")
	case FetchItemEmailID:
		e.Atom("EMAILID")
	case FetchItemThreadID:
		e.Atom("THREADID")
	case FetchItemPreview:
		e.Atom("PREVIEW")
		if it.PreviewLazy {
			e.SP().RawString("(LAZY)")
		}
	case FetchItemBodyKind:
		// The bare BODY macro item (extension-stripped structure); the
		// parser only ever produces this kind without a "[section]"
		// suffix, distinct from FetchItemBodySectionKind's BODY[...].
		e.Atom("BODY")
	case FetchItemBodySectionKind:
		return encodeBodySectionItem(e, it)
	default:
		return fmt.Errorf("imapwire: unsupported fetch item kind %d", it.Kind)
	}
	return nil
}

func encodeBodySectionItem(e *wire.Encoder, it FetchItem) error {
	var partial *wire.Partial
	if it.Partial != nil {
		partial = &wire.Partial{Offset: it.Partial.Offset, Count: it.Partial.Count}
	}
	specifier := it.Specifier
	if it.NotFields && specifier == "HEADER.FIELDS" {
		specifier = "HEADER.FIELDS.NOT"
	}
	e.BodyExt(it.Peek, it.Part, specifier, it.Fields, partial)
	return nil
}

func encodeStoreCommand(e *wire.Encoder, args *StoreCommand) {
	e.SP()
	encodeSeqOrUIDSet(e, args.SeqSet, args.UIDSet)
	e.SP()
	if args.Options.UnchangedSince != 0 {
		e.RawString("(UNCHANGEDSINCE ").Number64(args.Options.UnchangedSince).RawString(") ")
	}
	encodeStoreFlags(e, args.Flags)
}

func encodeStoreFlags(e *wire.Encoder, sf StoreFlags) {
	e.RawString(sf.Action.String())
	if sf.Silent {
		e.RawString(".SILENT")
	}
	e.SP().Flags(flagStrings(sf.Flags))
}

func encodeCopyCommand(e *wire.Encoder, args *CopyCommand) {
	e.SP()
	encodeSeqOrUIDSet(e, args.SeqSet, args.UIDSet)
	e.SP().MailboxName(args.Mailbox)
}

// EncodeGreeting encodes the server's initial untagged status response
// (OK, PREAUTH, or BYE) sent before any command is read.
func EncodeGreeting(g *Greeting) (*wire.FragmentStream, error) {
	return EncodeStatusResponse("*", g.Status)
}

// EncodeContinuation encodes a "+" continuation-request line, optionally
// carrying free text (a SASL challenge, or an APPEND literal prompt).
func EncodeContinuation(c *Continuation) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.ContinuationRequest(c.Text)
	return e.Finish()
}

// EncodeStatusResponse encodes a tagged or untagged status response:
// "tag OK|NO|BAD|BYE|PREAUTH [CODE ...] text CRLF". An empty tag or "*"
// writes the untagged form used by greetings and unsolicited responses.
func EncodeStatusResponse(tag string, r *StatusResponse) (*wire.FragmentStream, error) {
	e := wire.NewEncoder()
	if tag == "" || tag == "*" {
		e.Star()
	} else {
		e.Tag(tag).SP()
	}
	e.Atom(string(r.Type))
	if r.Code != "" {
		code, err := renderResponseCode(r.Code, r.CodeArg)
		if err != nil {
			return nil, err
		}
		e.RawString(" [").RawString(code).RawString("]")
	}
	if r.Text != "" {
		e.SP().RawString(r.Text)
	}
	e.CRLF()
	return e.Finish(), nil
}

// renderResponseCode renders a bracketed response code's interior
// ("CODE arg..."). CodeArg's concrete type depends on which code it
// accompanies (a capability list for CAPABILITY, a flag list for
// PERMANENTFLAGS, a bare number for UIDNEXT/UIDVALIDITY/...); this
// switches on the shapes StatusResponse construction actually uses
// rather than encoding a fixed schema per code.
func renderResponseCode(code ResponseCode, arg interface{}) (string, error) {
	if arg == nil {
		return string(code), nil
	}
	switch v := arg.(type) {
	case string:
		return string(code) + " " + v, nil
	case []Cap:
		names := make([]string, len(v))
		for i, c := range v {
			names[i] = string(c)
		}
		return string(code) + " " + strings.Join(names, " "), nil
	case []Flag:
		return string(code) + " (" + strings.Join(flagStrings(v), " ") + ")", nil
	case uint32:
		return fmt.Sprintf("%s %d", code, v), nil
	case uint64:
		return fmt.Sprintf("%s %d", code, v), nil
	case int64:
		return fmt.Sprintf("%s %d", code, v), nil
	case int:
		return fmt.Sprintf("%s %d", code, v), nil
	default:
		return fmt.Sprintf("%s %v", code, v), nil
	}
}

// EncodeExistsData encodes an untagged EXISTS response.
func EncodeExistsData(num uint32) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.NumResponse(num, "EXISTS")
	return e.Finish()
}

// EncodeRecentData encodes an untagged RECENT response (IMAP4rev1 only).
func EncodeRecentData(num uint32) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.NumResponse(num, "RECENT")
	return e.Finish()
}

// EncodeExpungeData encodes an untagged EXPUNGE response.
func EncodeExpungeData(seqNum uint32) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.NumResponse(seqNum, "EXPUNGE")
	return e.Finish()
}

// EncodeCapabilityData encodes an untagged CAPABILITY response.
func EncodeCapabilityData(caps *CapSet) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.Star().Atom("CAPABILITY")
	names := caps.All()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, c := range names {
		e.SP().Atom(string(c))
	}
	e.CRLF()
	return e.Finish()
}

// EncodeSearchData encodes an untagged SEARCH response: "* SEARCH n1 n2
// ...". ESEARCH's extended form is not implemented here: SearchData
// doesn't retain the requesting command's tag, which ESEARCH's
// mandatory "(TAG tag)" control requires.
func EncodeSearchData(data *SearchData) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.Star().Atom("SEARCH")
	if data.UID {
		for _, uid := range data.AllUIDs {
			e.SP().Number(uint32(uid))
		}
	} else {
		for _, n := range data.AllSeqNums {
			e.SP().Number(n)
		}
	}
	e.CRLF()
	return e.Finish()
}

// EncodeStatusData encodes a STATUS response's untagged data line:
// "* STATUS mailbox (item value ...)".
func EncodeStatusData(data *StatusData) *wire.FragmentStream {
	e := wire.NewEncoder()
	e.Star().Atom("STATUS").SP().MailboxName(data.Mailbox).SP()
	e.BeginList()
	first := true
	put := func(name string, write func()) {
		if !first {
			e.SP()
		}
		first = false
		e.Atom(name).SP()
		write()
	}
	if data.NumMessages != nil {
		put("MESSAGES", func() { e.Number(*data.NumMessages) })
	}
	if data.UIDNext != nil {
		put("UIDNEXT", func() { e.Number(*data.UIDNext) })
	}
	if data.UIDValidity != nil {
		put("UIDVALIDITY", func() { e.Number(*data.UIDValidity) })
	}
	if data.NumUnseen != nil {
		put("UNSEEN", func() { e.Number(*data.NumUnseen) })
	}
	if data.NumRecent != nil {
		put("RECENT", func() { e.Number(*data.NumRecent) })
	}
	if data.Size != nil {
		put("SIZE", func() { e.Number64(uint64(*data.Size)) })
	}
	if data.AppendLimit != nil {
		put("APPENDLIMIT", func() { e.Number(*data.AppendLimit) })
	}
	if data.HighestModSeq != nil {
		put("HIGHESTMODSEQ", func() { e.Number64(*data.HighestModSeq) })
	}
	if data.MailboxID != "" {
		put("MAILBOXID", func() { e.RawString("(").AString(data.MailboxID).RawString(")") })
	}
	e.EndList()
	e.CRLF()
	return e.Finish()
}

// EncodeFetchMessageData encodes one FETCH response line: "* seqNum
// FETCH (item value ...)", in the order items was requested.
func EncodeFetchMessageData(seqNum uint32, data *FetchMessageData, items []FetchItem) (*wire.FragmentStream, error) {
	e := wire.NewEncoder()
	e.Star().Number(seqNum).SP().Atom("FETCH").SP()
	e.BeginList()
	for i, it := range items {
		if i > 0 {
			e.SP()
		}
		if err := encodeFetchDataItem(e, it, data); err != nil {
			return nil, err
		}
	}
	e.EndList()
	e.CRLF()
	return e.Finish(), nil
}

func encodeFetchDataItem(e *wire.Encoder, it FetchItem, data *FetchMessageData) error {
	switch it.Kind {
	case FetchItemFlags:
		e.Atom("FLAGS").SP().Flags(flagStrings(data.Flags))
	case FetchItemEnvelope:
		e.Atom("ENVELOPE").SP()
		encodeEnvelope(e, data.Envelope)
	case FetchItemInternalDate:
		e.Atom("INTERNALDATE").SP().DateTime(data.InternalDate)
	case FetchItemRFC822Size:
		e.Atom("RFC822.SIZE").SP().Number64(uint64(data.RFC822Size))
	case FetchItemUID:
		e.Atom("UID").SP().Number(uint32(data.UID))
	case FetchItemModSeq:
		e.RawString("MODSEQ (").Number64(data.ModSeq).RawString(")")
	case FetchItemBodyStructureKind:
		e.Atom("BODYSTRUCTURE").SP()
		encodeBodyStructure(e, data.BodyStructure, false)
	case FetchItemBodyKind:
		e.Atom("BODY").SP()
		encodeBodyStructure(e, data.BodyStructure, true)
	case FetchItemSaveDate:
		e.Atom("SAVEDATE").SP()
		if data.SaveDate == nil {
			e.Nil()
		} else {
			e.DateTime(*data.SaveDate)
		}
	case FetchItemEmailID:
		e.Atom("EMAILID").SP().AString(data.EmailID)
	case FetchItemThreadID:
		e.Atom("THREADID").SP()
		if data.ThreadID == "" {
			e.Nil()
		} else {
			e.AString(data.ThreadID)
		}
	case FetchItemPreview:
		e.Atom("PREVIEW").SP()
		if data.PreviewNIL {
			e.Nil()
		} else {
			e.NString(&data.Preview)
		}
	case FetchItemBodySectionKind:
		return encodeFetchBodySection(e, it, data)
	default:
		return fmt.Errorf("imapwire: unsupported fetch response item kind %d", it.Kind)
	}
	return nil
}

// encodeFetchBodySection writes one BODY[section]<partial> {n}\r\n
// pair, matching the requested item back to its reader by section
// identity (part/specifier/peek/field-list) since BodySection is keyed
// by *FetchItem pointer and a response may not reuse the exact request
// pointer.
func encodeFetchBodySection(e *wire.Encoder, it FetchItem, data *FetchMessageData) error {
	var reader *SectionReader
	for key, r := range data.BodySection {
		if sameFetchItemSection(*key, it) {
			rr := r
			reader = &rr
			break
		}
	}
	var partial *wire.Partial
	if it.Partial != nil {
		partial = &wire.Partial{Offset: it.Partial.Offset, Count: it.Partial.Count}
	}
	e.BodyExt(it.Peek, it.Part, it.Specifier, it.Fields, partial)
	e.SP()
	if reader == nil {
		e.Nil()
		return nil
	}
	content, err := io.ReadAll(reader.Reader)
	if err != nil {
		return fmt.Errorf("imapwire: read body section: %w", err)
	}
	e.Literal(content, wire.LiteralSync)
	return nil
}

func sameFetchItemSection(a, b FetchItem) bool {
	if a.Peek != b.Peek || a.Specifier != b.Specifier || a.NotFields != b.NotFields {
		return false
	}
	if len(a.Part) != len(b.Part) {
		return false
	}
	for i := range a.Part {
		if a.Part[i] != b.Part[i] {
			return false
		}
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}

func encodeNStringField(e *wire.Encoder, s string) {
	if s == "" {
		e.Nil()
		return
	}
	e.NString(&s)
}

func encodeAddress(e *wire.Encoder, a *Address) {
	if a == nil {
		e.Nil()
		return
	}
	e.BeginList()
	encodeNStringField(e, a.Name)
	e.SP().Nil() // at-domain-list source route: not modeled by Address
	e.SP()
	encodeNStringField(e, a.Mailbox)
	e.SP()
	encodeNStringField(e, a.Host)
	e.EndList()
}

func encodeAddressList(e *wire.Encoder, addrs []*Address) {
	e.List1OrNil(len(addrs), func(e *wire.Encoder, i int) {
		encodeAddress(e, addrs[i])
	})
}

// encodeEnvelope writes the ENVELOPE structure (RFC 3501 §7.4.2): a
// fixed-order 10-tuple of date, subject, six address lists, and the
// in-reply-to/message-id strings.
func encodeEnvelope(e *wire.Encoder, env *Envelope) {
	if env == nil {
		e.Nil()
		return
	}
	e.BeginList()
	if env.Date.IsZero() {
		e.Nil()
	} else {
		e.DateTime(env.Date)
	}
	e.SP()
	encodeNStringField(e, env.Subject)
	e.SP()
	encodeAddressList(e, env.From)
	e.SP()
	encodeAddressList(e, env.Sender)
	e.SP()
	encodeAddressList(e, env.ReplyTo)
	e.SP()
	encodeAddressList(e, env.To)
	e.SP()
	encodeAddressList(e, env.Cc)
	e.SP()
	encodeAddressList(e, env.Bcc)
	e.SP()
	encodeNStringField(e, env.InReplyTo)
	e.SP()
	encodeNStringField(e, env.MessageID)
	e.EndList()
}

// encodeBodyStructure writes a BODY/BODYSTRUCTURE structure (RFC 3501
// §7.4.2): stripExt omits the four trailing extension fields (MD5,
// disposition, language, location) that distinguish bare BODY from
// BODYSTRUCTURE.
func encodeBodyStructure(e *wire.Encoder, bs *BodyStructure, stripExt bool) {
	if bs == nil {
		e.Nil()
		return
	}
	e.BeginList()
	if bs.IsMultipart() {
		for i := range bs.Children {
			if i > 0 {
				e.SP()
			}
			encodeBodyStructure(e, &bs.Children[i], stripExt)
		}
		e.SP().AString(bs.Subtype)
		if !stripExt {
			e.SP()
			encodeBodyParams(e, bs.Params)
			e.SP()
			encodeBodyDisposition(e, bs)
			e.SP()
			encodeStringList(e, bs.Language)
			e.SP()
			encodeNStringField(e, bs.Location)
		}
	} else {
		e.AString(bs.Type).SP().AString(bs.Subtype).SP()
		encodeBodyParams(e, bs.Params)
		e.SP()
		encodeNStringField(e, bs.ID)
		e.SP()
		encodeNStringField(e, bs.Description)
		e.SP()
		if bs.Encoding == "" {
			e.AString("7BIT")
		} else {
			e.AString(bs.Encoding)
		}
		e.SP().Number(bs.Size)
		switch {
		case strings.EqualFold(bs.Type, "message") && strings.EqualFold(bs.Subtype, "rfc822"):
			e.SP()
			encodeEnvelope(e, bs.Envelope)
			e.SP()
			encodeBodyStructure(e, bs.BodyStructure, stripExt)
			e.SP().Number(bs.Lines)
		case strings.EqualFold(bs.Type, "text"):
			e.SP().Number(bs.Lines)
		}
		if !stripExt {
			e.SP()
			encodeNStringField(e, bs.MD5)
			e.SP()
			encodeBodyDisposition(e, bs)
			e.SP()
			encodeStringList(e, bs.Language)
			e.SP()
			encodeNStringField(e, bs.Location)
		}
	}
	e.EndList()
}

func encodeBodyParams(e *wire.Encoder, params map[string]string) {
	if len(params) == 0 {
		e.Nil()
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.List1AttributeValueOrNil(len(keys), func(e *wire.Encoder, i int) {
		k := keys[i]
		e.AString(k).SP().AString(params[k])
	})
}

func encodeBodyDisposition(e *wire.Encoder, bs *BodyStructure) {
	if bs.Disposition == "" {
		e.Nil()
		return
	}
	e.BeginList()
	e.AString(bs.Disposition).SP()
	encodeBodyParams(e, bs.DispositionParams)
	e.EndList()
}

func encodeStringList(e *wire.Encoder, items []string) {
	e.List1OrNil(len(items), func(e *wire.Encoder, i int) {
		e.AString(items[i])
	})
}
