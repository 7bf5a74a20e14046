package retag

import (
	"testing"

	"github.com/streamlex/streamlex/internal/device"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/test"
)

const (
	kindIdent  grammar.Kind = 1
	kindPlus   grammar.Kind = 2
	kindSemi   grammar.Kind = 3
	kindInt    grammar.Kind = 4
	kindLParen grammar.Kind = 10
	kindCall   grammar.Kind = 11
	kindGroup  grammar.Kind = 12
	kindLBrack grammar.Kind = 13
	kindIndex  grammar.Kind = 14
	kindArray  grammar.Kind = 15
)

func testGrammar() *grammar.Grammar {
	return &grammar.Grammar{
		Rules: []grammar.Rule{
			{Pattern: "[a-z]+", Kind: kindIdent},
			{Pattern: "\\+", Kind: kindPlus},
			{Pattern: ";", Kind: kindSemi},
			{Pattern: "[0-9]+", Kind: kindInt},
			{Pattern: "\\(", Kind: kindLParen},
			{Pattern: "\\[", Kind: kindLBrack},
		},
		EndsPrimary: map[grammar.Kind]bool{
			kindIdent: true,
			kindInt:   true,
		},
		Retag: []grammar.RetagRule{
			{Source: kindLParen, IfEndsPrimary: kindCall, Otherwise: kindGroup},
			{Source: kindLBrack, IfEndsPrimary: kindIndex, Otherwise: kindArray},
		},
	}
}

func TestApplyRetagsCallVsGroup(t *testing.T) {
	g := testGrammar()
	tokens := []device.Token{
		{Kind: kindIdent, Start: 0, End: 3}, // "foo"
		{Kind: kindLParen, Start: 3, End: 4},
		{Kind: kindInt, Start: 4, End: 5},
		{Kind: kindLParen, Start: 5, End: 6}, // closing paren omitted for brevity
		{Kind: kindPlus, Start: 6, End: 7},
		{Kind: kindLParen, Start: 7, End: 8},
		{Kind: kindInt, Start: 8, End: 9},
	}
	got := Apply(g, tokens)
	want := []grammar.Kind{kindIdent, kindCall, kindInt, kindCall, kindPlus, kindGroup, kindInt}
	for i, k := range want {
		if got[i].Kind != k {
			t.Fatalf("token %d: got kind %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestApplyRetagsIndexVsArray(t *testing.T) {
	g := testGrammar()
	tokens := []device.Token{
		{Kind: kindIdent, Start: 0, End: 2},
		{Kind: kindLBrack, Start: 2, End: 3},
		{Kind: kindSemi, Start: 3, End: 4},
		{Kind: kindLBrack, Start: 4, End: 5},
	}
	got := Apply(g, tokens)
	if got[1].Kind != kindIndex {
		t.Fatalf("got %v, want IndexLBracket", got[1].Kind)
	}
	if got[3].Kind != kindArray {
		t.Fatalf("got %v, want ArrayLBracket", got[3].Kind)
	}
}

func TestApplyFirstTokenHasNoPrevious(t *testing.T) {
	g := testGrammar()
	tokens := []device.Token{{Kind: kindLParen, Start: 0, End: 1}}
	got := Apply(g, tokens)
	test.AssertEqual(t, got[0].Kind, kindGroup)
}

func TestApplyNoRetagRulesIsNoop(t *testing.T) {
	g := &grammar.Grammar{Rules: []grammar.Rule{{Pattern: "a", Kind: kindIdent}}}
	tokens := []device.Token{{Kind: kindIdent, Start: 0, End: 1}}
	got := Apply(g, tokens)
	test.AssertEqual(t, got[0].Kind, kindIdent)
}
