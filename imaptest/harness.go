// Package imaptest provides test infrastructure for exercising the wire
// codec: helpers that diff a fragment stream or a decoder's outcomes
// against an expected sequence, across arbitrary chunkings of the input.
package imaptest

import (
	"reflect"
	"testing"

	"github.com/corvid-im/imapwire/wire"
)

// Frames drains fragments and fails the test unless its Kind/Mode/Data
// sequence matches want exactly, in order.
func Frames(t *testing.T, fragments []wire.Fragment, want ...wire.Fragment) {
	t.Helper()

	if len(fragments) != len(want) {
		t.Fatalf("got %d fragments, want %d: %+v", len(fragments), len(want), fragments)
	}
	for i, got := range fragments {
		w := want[i]
		if got.Kind != w.Kind || got.Mode != w.Mode || !reflect.DeepEqual(got.Data, w.Data) {
			t.Errorf("fragment[%d] = %+v, want %+v", i, got, w)
		}
	}
}

// WantOutcome is one expected step of a Decode run: the outcome kind and,
// for OutcomeCommand, the parsed value.
type WantOutcome struct {
	Kind    wire.OutcomeKind
	Command interface{}
}

// Decode feeds full through d in every possible chunking, from one byte
// at a time up to the whole buffer in one write, and requires the
// resulting outcome sequence to match want on every chunking (§8 property
// 4's "any chunking" clause). newDecoder is called once per chunking, so
// every chunking starts from a fresh decoder.
func Decode(t *testing.T, newDecoder func() *wire.Decoder, full []byte, want ...WantOutcome) {
	t.Helper()

	for chunkSize := 1; chunkSize <= len(full); chunkSize++ {
		d := newDecoder()
		var got []WantOutcome

		for i := 0; i < len(full); i += chunkSize {
			end := i + chunkSize
			if end > len(full) {
				end = len(full)
			}
			d.Write(full[i:end])

			for {
				out, err := d.Decode()
				if err != nil {
					t.Fatalf("chunkSize=%d: Decode() error = %v", chunkSize, err)
				}
				if out == nil {
					break
				}
				got = append(got, WantOutcome{Kind: out.Kind, Command: out.Command})
			}
		}

		if len(got) != len(want) {
			t.Fatalf("chunkSize=%d: got %d outcomes, want %d: %+v", chunkSize, len(got), len(want), got)
		}
		for i, g := range got {
			w := want[i]
			if g.Kind != w.Kind {
				t.Errorf("chunkSize=%d: outcome[%d].Kind = %v, want %v", chunkSize, i, g.Kind, w.Kind)
			}
			if w.Command != nil && !reflect.DeepEqual(g.Command, w.Command) {
				t.Errorf("chunkSize=%d: outcome[%d].Command = %+v, want %+v", chunkSize, i, g.Command, w.Command)
			}
		}
	}
}

// Dump concatenates the Data of every fragment, in order, and returns the
// exact byte stream Decode would see, mirroring wire.FragmentStream.Dump
// for round-trip tests (§8 property 2).
func Dump(fragments []wire.Fragment) []byte {
	var total int
	for _, f := range fragments {
		total += len(f.Data)
	}
	out := make([]byte, 0, total)
	for _, f := range fragments {
		out = append(out, f.Data...)
	}
	return out
}
