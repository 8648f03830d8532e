package wire

import (
	"bytes"
	"testing"
	"time"
)

func dump(fn func(e *Encoder)) []byte {
	e := NewEncoder()
	fn(e)
	return e.Finish().Dump()
}

// ---------- Atom ----------

func TestEncoderAtom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"OK", "OK"},
		{"INBOX", "INBOX"},
		{"FLAGS", "FLAGS"},
		{"", ""},
	}
	for _, tt := range tests {
		got := dump(func(e *Encoder) { e.Atom(tt.input) })
		if string(got) != tt.want {
			t.Errorf("Atom(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ---------- SP / CRLF ----------

func TestEncoderSP(t *testing.T) {
	if got := dump(func(e *Encoder) { e.SP() }); string(got) != " " {
		t.Errorf("SP() = %q, want %q", got, " ")
	}
}

func TestEncoderCRLF(t *testing.T) {
	if got := dump(func(e *Encoder) { e.CRLF() }); string(got) != "\r\n" {
		t.Errorf("CRLF() = %q, want %q", got, "\r\n")
	}
}

// ---------- QuotedString ----------

func TestEncoderQuotedString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello world", `"hello world"`},
		{"escapes quote", `say "hi"`, `"say \"hi\""`},
		{"escapes backslash", `a\b`, `"a\\b"`},
		{"empty", "", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dump(func(e *Encoder) { e.QuotedString(tt.input) })
			if string(got) != tt.want {
				t.Errorf("QuotedString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------- String / AString dispatch ----------

func TestEncoderStringDispatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain atom", "INBOX", "INBOX"},
		{"needs quoting", "My Mailbox", `"My Mailbox"`},
		{"needs literal (CR)", "a\rb", "{3}\r\na\rb"},
		{"needs literal (non-ASCII)", "café", "{5}\r\ncafé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dump(func(e *Encoder) { e.String(tt.input) })
			if string(got) != tt.want {
				t.Errorf("String(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------- NString / Nil ----------

func TestEncoderNString(t *testing.T) {
	if got := dump(func(e *Encoder) { e.NString(nil) }); string(got) != "NIL" {
		t.Errorf("NString(nil) = %q, want NIL", got)
	}
	s := "hello"
	if got := dump(func(e *Encoder) { e.NString(&s) }); string(got) != "hello" {
		t.Errorf("NString(&hello) = %q, want hello", got)
	}
}

// ---------- Number ----------

func TestEncoderNumber(t *testing.T) {
	if got := dump(func(e *Encoder) { e.Number(12345) }); string(got) != "12345" {
		t.Errorf("Number(12345) = %q", got)
	}
	if got := dump(func(e *Encoder) { e.Number64(18446744073709551615) }); string(got) != "18446744073709551615" {
		t.Errorf("Number64(max) = %q", got)
	}
}

// ---------- Literal fragmentation (S2, S3) ----------

func TestEncoderLiteralFragments(t *testing.T) {
	e := NewEncoder()
	e.Tag("A").SP().Atom("LOGIN").SP().Atom("alice").SP().Literal([]byte{0xCA, 0xFE}, LiteralSync)
	e.CRLF()
	stream := e.Finish()

	frags := stream.All()
	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}
	if frags[0].Kind != FragmentLine || string(frags[0].Data) != "A LOGIN alice {2}\r\n" {
		t.Errorf("fragment 0 = %+v", frags[0])
	}
	if frags[1].Kind != FragmentLiteral || !bytes.Equal(frags[1].Data, []byte{0xCA, 0xFE}) || frags[1].Mode != LiteralSync {
		t.Errorf("fragment 1 = %+v", frags[1])
	}
	if frags[2].Kind != FragmentLine || string(frags[2].Data) != "\r\n" {
		t.Errorf("fragment 2 = %+v", frags[2])
	}
}

func TestEncoderLiteralNonSync(t *testing.T) {
	got := dump(func(e *Encoder) { e.Literal([]byte("hi"), LiteralNonSync) })
	if string(got) != "{2+}\r\nhi" {
		t.Errorf("NonSync literal = %q", got)
	}
}

func TestEncoderZeroLengthLiteral(t *testing.T) {
	got := dump(func(e *Encoder) { e.Literal(nil, LiteralSync) })
	if string(got) != "{0}\r\n" {
		t.Errorf("zero-length literal = %q", got)
	}
}

// ---------- Fragment concatenation property (§8 property 2) ----------

func TestFragmentConcatenationMatchesDump(t *testing.T) {
	build := func() *Encoder {
		e := NewEncoder()
		e.Tag("A1").SP().Atom("FETCH").SP().Literal([]byte("body"), LiteralSync).SP().Atom("FLAGS")
		e.CRLF()
		return e
	}

	dumped := build().Finish().Dump()

	var concatenated []byte
	for _, f := range build().Finish().All() {
		concatenated = append(concatenated, f.Data...)
	}

	if !bytes.Equal(dumped, concatenated) {
		t.Errorf("Dump() = %q, concatenated fragments = %q", dumped, concatenated)
	}
}

// ---------- List / List1OrNil ----------

func TestEncoderList(t *testing.T) {
	if got := dump(func(e *Encoder) { e.List([]string{"\\Seen", "\\Answered"}) }); string(got) != `("\\Seen" "\\Answered")` {
		t.Errorf("List = %q", got)
	}
	if got := dump(func(e *Encoder) { e.List(nil) }); string(got) != "()" {
		t.Errorf("List(nil) = %q", got)
	}
}

func TestEncoderList1OrNil(t *testing.T) {
	if got := dump(func(e *Encoder) {
		e.List1OrNil(0, func(e *Encoder, i int) {})
	}); string(got) != "NIL" {
		t.Errorf("List1OrNil(0) = %q, want NIL", got)
	}
	if got := dump(func(e *Encoder) {
		e.List1OrNil(2, func(e *Encoder, i int) { e.Number(uint32(i)) })
	}); string(got) != "(0 1)" {
		t.Errorf("List1OrNil(2) = %q", got)
	}
}

// ---------- Date / DateTime ----------

func TestEncoderDate(t *testing.T) {
	tm := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if got := dump(func(e *Encoder) { e.Date(tm) }); string(got) != `"05-Mar-2024"` {
		t.Errorf("Date = %q", got)
	}
}

func TestEncoderDateTime(t *testing.T) {
	loc := time.FixedZone("", -7*3600)
	tm := time.Date(2024, time.March, 5, 14, 30, 0, 0, loc)
	want := `"05-Mar-2024 14:30:00 -0700"`
	if got := dump(func(e *Encoder) { e.DateTime(tm) }); string(got) != want {
		t.Errorf("DateTime = %q, want %q", got, want)
	}
}

// ---------- MailboxName ----------

func TestEncoderMailboxName(t *testing.T) {
	if got := dump(func(e *Encoder) { e.MailboxName("inbox") }); string(got) != "INBOX" {
		t.Errorf("MailboxName(inbox) = %q, want INBOX", got)
	}
	if got := dump(func(e *Encoder) { e.MailboxName("Drafts") }); string(got) != "Drafts" {
		t.Errorf("MailboxName(Drafts) = %q", got)
	}
	if got := dump(func(e *Encoder) { e.MailboxName("My Mailbox") }); string(got) != `"My Mailbox"` {
		t.Errorf("MailboxName(My Mailbox) = %q", got)
	}
}

// ---------- StatusResponse / ContinuationRequest ----------

func TestEncoderStatusResponse(t *testing.T) {
	got := dump(func(e *Encoder) { e.StatusResponse("A1", "OK", "", "done") })
	if string(got) != "A1 OK done\r\n" {
		t.Errorf("StatusResponse tagged = %q", got)
	}
	got = dump(func(e *Encoder) { e.StatusResponse("", "BYE", "", "logging out") })
	if string(got) != "* BYE logging out\r\n" {
		t.Errorf("StatusResponse untagged = %q", got)
	}
	got = dump(func(e *Encoder) { e.StatusResponse("A1", "NO", "TRYCREATE", "no mailbox") })
	if string(got) != "A1 NO [TRYCREATE] no mailbox\r\n" {
		t.Errorf("StatusResponse with code = %q", got)
	}
}

func TestEncoderContinuationRequestEmptyText(t *testing.T) {
	got := dump(func(e *Encoder) { e.ContinuationRequest("") })
	if string(got) != "+ \r\n" {
		t.Errorf("empty ContinuationRequest = %q, want %q", got, "+ \r\n")
	}
}

// ---------- Determinism (§8 property 1) ----------

func TestEncoderDeterminism(t *testing.T) {
	build := func() []byte {
		return dump(func(e *Encoder) {
			e.Tag("A1").SP().Atom("LOGIN").SP().String("alice").SP().String("s3cret")
			e.CRLF()
		})
	}
	a, b := build(), build()
	if !bytes.Equal(a, b) {
		t.Errorf("encoder is not deterministic: %q != %q", a, b)
	}
}
