// Package api is the public entry point for the streaming-DFA lexer.
//
// This package is intended for programmatic use of the lexer engine.
// It compiles a token grammar once and reuses the resulting handle
// across any number of Lex calls on distinct inputs.
package api

import (
	"context"

	"github.com/streamlex/streamlex/internal/config"
	"github.com/streamlex/streamlex/internal/diagnostic"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexer"
)

// Rule is one priority-ordered token rule. Rules earlier in the slice
// take precedence when more than one matches the same prefix.
type Rule struct {
	// Pattern is the rule's regex, in the syntax internal/regexast
	// accepts: literal bytes, ".", bracket classes, alternation "|",
	// grouping, the quantifiers "* + ? {m,n}", and backslash escapes.
	Pattern string

	// Kind identifies the token kind produced on a match.
	Kind uint8

	// Filtered marks the kind as recognized but dropped from the kept
	// output (whitespace, comments, ...).
	Filtered bool
}

// RetagRule rewrites Source into IfEndsPrimary when the previous
// significant token's kind is in the grammar's EndsPrimary set, or
// into Otherwise otherwise.
type RetagRule struct {
	Source        uint8
	IfEndsPrimary uint8
	Otherwise     uint8
}

// Grammar is the caller-facing token language description.
type Grammar struct {
	Rules       []Rule
	EndsPrimary []uint8
	Retag       []RetagRule
}

// Options controls handle construction.
type Options struct {
	// BlockSize is the scan block size used by the software backend.
	// Zero means "process the whole input as one block".
	BlockSize int

	// MaxInputBytes caps accepted input length. Zero means unbounded.
	MaxInputBytes int

	// ValidateOnBuild runs the structural and sampled-invariant checks
	// against the freshly built tables before returning the handle.
	ValidateOnBuild bool
}

// Diagnostic is one grammar-compile diagnostic: a malformed pattern or
// a structural grammar problem.
type Diagnostic struct {
	RuleIndex int
	Pattern   string
	Offset    int
	Message   string
}

// Token is one recognized, kept token. Start/End is a half-open byte
// range `[Start, End)`, the idiomatic Go rendering of spec §6's
// `(kind: u8, start: u32, length: u32)` tuple; Length reports the
// tuple's length field directly for callers matching that shape
// byte-for-byte.
type Token struct {
	Kind  uint8
	Start int
	End   int
}

// Length reports the token's byte length, End-Start.
func (t Token) Length() int { return t.End - t.Start }

// Handle holds a compiled grammar ready to lex input against.
type Handle struct {
	h *lexer.Handle
}

// CompileGrammar compiles g into a Handle. Diagnostics are returned
// alongside any error; compilation records only error-level
// diagnostics, so on success the list is empty.
func CompileGrammar(g Grammar, opts Options) (*Handle, []Diagnostic, error) {
	internal := toInternalGrammar(g)
	h, diags, err := lexer.NewHandle(internal, lexer.Options{
		BlockSize:       opts.BlockSize,
		MaxInputBytes:   opts.MaxInputBytes,
		ValidateOnBuild: opts.ValidateOnBuild,
	})
	if err != nil {
		return nil, toAPIDiagnostics(diags), err
	}
	return &Handle{h: h}, toAPIDiagnostics(diags), nil
}

// LoadGrammarFile compiles a Handle from a grammar JSON file discovered
// by walking up from startDir, the same discovery rule internal/config
// uses for lexspec.json/.lexspecrc.
func LoadGrammarFile(startDir string, opts Options) (*Handle, string, []Diagnostic, error) {
	g, path, err := config.Load(startDir)
	if err != nil {
		return nil, path, nil, err
	}
	if g == nil {
		return nil, "", nil, nil
	}
	h, diags, err := lexer.NewHandle(g, lexer.Options{
		BlockSize:       opts.BlockSize,
		MaxInputBytes:   opts.MaxInputBytes,
		ValidateOnBuild: opts.ValidateOnBuild,
	})
	if err != nil {
		return nil, path, toAPIDiagnostics(diags), err
	}
	return &Handle{h: h}, path, toAPIDiagnostics(diags), nil
}

// Lex runs the full pipeline over input and returns the kept tokens in
// order.
func (h *Handle) Lex(ctx context.Context, input []byte) ([]Token, error) {
	toks, err := h.h.Lex(ctx, input)
	if err != nil {
		return nil, err
	}
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{Kind: uint8(t.Kind), Start: t.Start, End: t.End}
	}
	return out, nil
}

func toInternalGrammar(g Grammar) *grammar.Grammar {
	ig := &grammar.Grammar{
		Rules:       make([]grammar.Rule, len(g.Rules)),
		EndsPrimary: make(map[grammar.Kind]bool, len(g.EndsPrimary)),
		Retag:       make([]grammar.RetagRule, len(g.Retag)),
	}
	for i, r := range g.Rules {
		ig.Rules[i] = grammar.Rule{Pattern: r.Pattern, Kind: grammar.Kind(r.Kind), Filtered: r.Filtered}
	}
	for _, k := range g.EndsPrimary {
		ig.EndsPrimary[grammar.Kind(k)] = true
	}
	for i, rr := range g.Retag {
		ig.Retag[i] = grammar.RetagRule{
			Source:        grammar.Kind(rr.Source),
			IfEndsPrimary: grammar.Kind(rr.IfEndsPrimary),
			Otherwise:     grammar.Kind(rr.Otherwise),
		}
	}
	return ig
}

func toAPIDiagnostics(diags *diagnostic.List) []Diagnostic {
	if diags == nil {
		return nil
	}
	src := diags.Diagnostics()
	out := make([]Diagnostic, len(src))
	for i, d := range src {
		out[i] = Diagnostic{RuleIndex: d.RuleIdx, Pattern: d.Pattern, Offset: d.Offset, Message: d.Message}
	}
	return out
}
