package imapwire

import "github.com/corvid-im/imapwire/wire"

// Command is a single parsed client command: a tag, a name, and its
// decoded arguments. Args holds the command-specific payload (e.g.
// *LoginCommand, *FetchCommand) — callers type-switch on it.
type Command struct {
	Tag  string
	Name string
	Args interface{}
}

// Greeting is the server's initial untagged response (OK, PREAUTH, or
// BYE) sent before any command is read.
type Greeting struct {
	Status *StatusResponse
}

// Continuation is a "+" continuation-request line sent by the server
// mid-command, either bare or carrying free text (e.g. a SASL challenge).
type Continuation struct {
	Text string
}

// ParseCommand adapts Parse (the grammar entry point, §4.E) to
// wire.CommandParser's signature, so it can be handed straight to
// wire.NewDecoder. It is the seam the low-level wire package calls
// through without ever importing this package — see wire.CommandParser's
// doc comment for why that indirection exists.
func ParseCommand(line []byte) (interface{}, error) {
	return Parse(line)
}

// Parse decodes one complete, framed command line (tag through trailing
// CRLF, any literal bodies already inlined by wire.Decoder) into a
// *Command.
func Parse(line []byte) (*Command, error) {
	r := wire.NewTokenReader(line)

	tag, err := r.ReadAtom()
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

	cmd := &Command{Tag: tag, Name: upperASCII(name)}
	args, err := parseCommandArgs(cmd.Name, r)
	if err != nil {
		return nil, err
	}
	cmd.Args = args
	return cmd, nil
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
