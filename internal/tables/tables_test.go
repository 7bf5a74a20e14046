package tables

import (
	"bytes"
	"testing"

	"github.com/streamlex/streamlex/internal/automaton"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/nfa"
)

func buildTables(t *testing.T, g *grammar.Grammar) *Tables {
	t.Helper()
	n, err := nfa.Build(g.Rules)
	if err != nil {
		t.Fatalf("nfa.Build: %v", err)
	}
	dfa, err := automaton.Build(n)
	if err != nil {
		t.Fatalf("automaton.Build: %v", err)
	}
	dfa.StreamingTransform()
	tbl, err := Build(dfa, g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func simpleGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Rules: []grammar.Rule{
			{Pattern: "[a-zA-Z_][a-zA-Z0-9_]*", Kind: 1},
			{Pattern: "[0-9]+", Kind: 2},
			{Pattern: "[ \\t\\r\\n]+", Kind: 3, Filtered: true},
			{Pattern: "\\(", Kind: 4},
			{Pattern: "\\)", Kind: 5},
		},
	}
}

func TestIdentityComposesToSelf(t *testing.T) {
	tbl := buildTables(t, simpleGrammar())
	for b := 0; b < 256; b++ {
		id := tbl.CharToFunc[b].ID()
		// identity ∘ δ_b == δ_b, and δ_b ∘ identity == δ_b
		if got := tbl.Merge[tbl.Identity*tbl.M+id]; got != id {
			t.Fatalf("identity∘δ_%d = %d, want %d", b, got, id)
		}
		if got := tbl.Merge[id*tbl.M+tbl.Identity]; got != id {
			t.Fatalf("δ_%d∘identity = %d, want %d", b, got, id)
		}
	}
}

func TestCompositionAssociative(t *testing.T) {
	tbl := buildTables(t, simpleGrammar())
	m := tbl.M
	sample := []uint32{tbl.CharToFunc['a'].ID(), tbl.CharToFunc['1'].ID(), tbl.CharToFunc[' '].ID(), tbl.CharToFunc['('].ID()}
	for _, a := range sample {
		for _, b := range sample {
			for _, c := range sample {
				left := tbl.Merge[tbl.Merge[a*m+b]*m+c]
				right := tbl.Merge[a*m+tbl.Merge[b*m+c]]
				if left != right {
					t.Fatalf("(%d∘%d)∘%d = %d, %d∘(%d∘%d) = %d; not associative", a, b, c, left, a, b, c, right)
				}
			}
		}
	}
}

func TestTokenOfMatchesDirectScan(t *testing.T) {
	tbl := buildTables(t, simpleGrammar())
	// TokenOf/EmitOnStart are read at different prefix lengths: the
	// exclusive prefix (bytes consumed so far, not including the
	// boundary byte) tells you the kind of the token that is about to
	// end, while the inclusive prefix (through the boundary byte) tells
	// you whether that byte is in fact where it ends.
	word := "foo"
	exclusive := tbl.Identity
	for _, b := range []byte(word) {
		exclusive = tbl.Merge[exclusive*tbl.M+tbl.CharToFunc[b].ID()]
	}
	if tbl.EmitOnStart[exclusive] {
		t.Fatalf("mid-identifier prefix should not emit")
	}

	inclusive := tbl.Merge[exclusive*tbl.M+tbl.CharToFunc[' '].ID()]
	if !tbl.EmitOnStart[inclusive] {
		t.Fatalf("byte ending the identifier should emit")
	}
	if tbl.TokenOf[exclusive] != grammar.Kind(1) {
		t.Fatalf("got kind %v, want identifier kind 1", tbl.TokenOf[exclusive])
	}
}

func TestFilterMaskMarksWhitespace(t *testing.T) {
	tbl := buildTables(t, simpleGrammar())
	if !tbl.FilterMask[3] {
		t.Fatalf("whitespace kind should be filtered")
	}
	if tbl.FilterMask[1] {
		t.Fatalf("identifier kind should not be filtered")
	}
}

func TestRoundTripSerialization(t *testing.T) {
	tbl := buildTables(t, simpleGrammar())
	var buf bytes.Buffer
	if _, err := tbl.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	var got Tables
	if _, err := got.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if got.M != tbl.M || got.NStates != tbl.NStates {
		t.Fatalf("round trip mismatch: M %d/%d NStates %d/%d", got.M, tbl.M, got.NStates, tbl.NStates)
	}
	if len(got.Merge) != len(tbl.Merge) {
		t.Fatalf("merge table length mismatch: %d/%d", len(got.Merge), len(tbl.Merge))
	}
	for i := range tbl.Merge {
		if got.Merge[i] != tbl.Merge[i] {
			t.Fatalf("merge[%d] mismatch: %d/%d", i, got.Merge[i], tbl.Merge[i])
		}
	}
	for b := 0; b < 256; b++ {
		if got.CharToFunc[b] != tbl.CharToFunc[b] {
			t.Fatalf("char_to_func[%d] mismatch", b)
		}
	}
	if len(got.TokenMap) != len(tbl.TokenMap) {
		t.Fatalf("token_map length mismatch: %d/%d", len(got.TokenMap), len(tbl.TokenMap))
	}
	for i := range tbl.TokenMap {
		if got.TokenMap[i] != tbl.TokenMap[i] {
			t.Fatalf("token_map[%d] mismatch: %v/%v", i, got.TokenMap[i], tbl.TokenMap[i])
		}
	}
}

func TestPackedUTFRoundTrip(t *testing.T) {
	p := PackUTFID(1234).WithEmit(true)
	if p.ID() != 1234 || !p.Emit() {
		t.Fatalf("got id=%d emit=%v, want id=1234 emit=true", p.ID(), p.Emit())
	}
	p = p.WithEmit(false)
	if p.Emit() {
		t.Fatalf("expected emit cleared")
	}
}

func TestPackNextEmitRoundTrip(t *testing.T) {
	e := PackNextEmit(1000, true, grammar.Kind(42))
	if e.State() != 1000 || !e.Emit() || e.Kind() != 42 {
		t.Fatalf("got state=%d emit=%v kind=%v", e.State(), e.Emit(), e.Kind())
	}
}
