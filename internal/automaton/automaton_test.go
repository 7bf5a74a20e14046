package automaton

import (
	"testing"

	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/nfa"
)

func buildDFA(t *testing.T, rules []grammar.Rule) *DFA {
	t.Helper()
	n, err := nfa.Build(rules)
	if err != nil {
		t.Fatalf("nfa.Build: %v", err)
	}
	d, err := Build(n)
	if err != nil {
		t.Fatalf("automaton.Build: %v", err)
	}
	return d
}

func run(d *DFA, input string) (state int, sawEmit bool) {
	s := int(d.Start)
	for _, b := range []byte(input) {
		next := d.Next[s][b]
		if next.Emit {
			sawEmit = true
		}
		s = int(next.State)
	}
	return s, sawEmit
}

func TestSubsetConstructionAcceptsLiteral(t *testing.T) {
	d := buildDFA(t, []grammar.Rule{{Pattern: "abc", Kind: 1}})
	s, _ := run(d, "abc")
	if d.TokenMap[s] != grammar.Kind(1) {
		t.Fatalf("got kind %v, want 1", d.TokenMap[s])
	}
}

func TestSubsetConstructionRejectsUnmatched(t *testing.T) {
	d := buildDFA(t, []grammar.Rule{{Pattern: "abc", Kind: 1}})
	s, _ := run(d, "xyz")
	if uint16(s) != d.Reject {
		t.Fatalf("got state %d, want reject %d", s, d.Reject)
	}
}

func TestPriorityPrefersEarlierRule(t *testing.T) {
	// "if" should win over the identifier pattern since it is listed first.
	d := buildDFA(t, []grammar.Rule{
		{Pattern: "if", Kind: 1},
		{Pattern: "[a-z]+", Kind: 2},
	})
	s, _ := run(d, "if")
	if d.TokenMap[s] != grammar.Kind(1) {
		t.Fatalf("got kind %v, want keyword kind 1", d.TokenMap[s])
	}
}

func TestStreamingTransformEmitsOnBoundary(t *testing.T) {
	d := buildDFA(t, []grammar.Rule{
		{Pattern: "[a-z]+", Kind: 1},
		{Pattern: "[0-9]+", Kind: 2},
	})
	d.StreamingTransform()

	s := int(d.Start)
	var emits []bool
	for _, b := range []byte("ab1") {
		next := d.Next[s][b]
		emits = append(emits, next.Emit)
		s = int(next.State)
	}
	// "a" -> ident, "b" -> ident, "1" ends the ident and starts an int.
	if emits[0] || emits[1] || !emits[2] {
		t.Fatalf("got emits %v, want [false false true]", emits)
	}
}

func TestStreamingTransformRejectNeverEmits(t *testing.T) {
	d := buildDFA(t, []grammar.Rule{{Pattern: "a", Kind: 1}})
	d.StreamingTransform()
	for b := 0; b < 256; b++ {
		if d.Next[d.Reject][b].Emit {
			t.Fatalf("reject state must never emit (byte %d)", b)
		}
		if d.Next[d.Reject][b].State != d.Reject {
			t.Fatalf("reject state must self-loop (byte %d)", b)
		}
	}
}
