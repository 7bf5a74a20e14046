// Package lexer orchestrates the full pipeline behind one handle:
// compiling a grammar down to tables, running the device backend, and
// applying the retag pass.
package lexer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/streamlex/streamlex/internal/automaton"
	"github.com/streamlex/streamlex/internal/device"
	"github.com/streamlex/streamlex/internal/diagnostic"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexerr"
	"github.com/streamlex/streamlex/internal/nfa"
	"github.com/streamlex/streamlex/internal/regexast"
	"github.com/streamlex/streamlex/internal/retag"
	"github.com/streamlex/streamlex/internal/tables"
	"github.com/streamlex/streamlex/internal/validate"
)

// Token is a kept, kind-resolved token. It mirrors device.Token; kept
// as a distinct type so callers of this package do not need to import
// internal/device. Start/End is a half-open byte range `[Start, End)`,
// the idiomatic Go rendering of spec §6's `(kind, start, length)`
// tuple.
type Token struct {
	Kind  grammar.Kind
	Start int
	End   int
}

// Length reports the token's byte length, End-Start.
func (t Token) Length() int { return t.End - t.Start }

// Options controls handle construction and lex behavior.
type Options struct {
	// BlockSize is the scan block size passed to the software backend.
	// Zero means "one block".
	BlockSize int

	// MaxInputBytes caps accepted input length. Zero means unbounded.
	MaxInputBytes int

	// Backend overrides the compute backend. Defaults to a
	// SoftwareBackend built from BlockSize/MaxInputBytes.
	Backend device.Backend

	// ValidateOnBuild runs validate.Structure and validate.Invariants
	// against the freshly built tables before the handle is returned.
	ValidateOnBuild bool

	// Logger receives debug-level trace of each Lex call: dispatch,
	// rejected input, backend failures, and completion. Table building
	// and the individual backend passes are not logged. The zero value
	// is a no-op logger, so callers see no output unless they configure
	// a sink.
	Logger zerolog.Logger
}

// Handle holds everything needed to lex input against one compiled
// grammar: the tables, backend, and grammar (for retagging).
type Handle struct {
	grammar *grammar.Grammar
	tables  *tables.Tables
	backend device.Backend
	log     zerolog.Logger
}

// CompileGrammar compiles a grammar into a Thompson NFA, subset-constructs
// and streaming-transforms its DFA, and builds the UTF composition
// tables. Malformed patterns are reported as a diagnostic.List rather
// than a bare error string.
func CompileGrammar(g *grammar.Grammar) (*tables.Tables, *diagnostic.List, error) {
	diags := &diagnostic.List{}
	for i, r := range g.Rules {
		if _, err := regexast.Parse(r.Pattern); err != nil {
			offset := 0
			if pe, ok := err.(*regexast.ParseError); ok {
				offset = pe.Offset
			}
			diags.AddError(i, r.Pattern, offset, err.Error())
		}
	}
	if diags.HasErrors() {
		return nil, diags, fmt.Errorf("lexer: grammar has invalid patterns")
	}
	if err := g.Validate(); err != nil {
		diags.AddError(-1, "", 0, err.Error())
		return nil, diags, err
	}

	n, err := nfa.Build(g.Rules)
	if err != nil {
		return nil, diags, err
	}
	dfa, err := automaton.Build(n)
	if err != nil {
		return nil, diags, err
	}
	dfa.StreamingTransform()

	tbl, err := tables.Build(dfa, g)
	if err != nil {
		return nil, diags, err
	}
	return tbl, diags, nil
}

// NewHandle compiles g and constructs a Handle ready to lex input.
func NewHandle(g *grammar.Grammar, opts Options) (*Handle, *diagnostic.List, error) {
	tbl, diags, err := CompileGrammar(g)
	if err != nil {
		return nil, diags, err
	}

	if opts.ValidateOnBuild {
		if err := validate.Structure(tbl); err != nil {
			return nil, diags, err
		}
		if err := validate.Invariants(tbl, 256, rand.New(rand.NewSource(1))); err != nil {
			return nil, diags, err
		}
	}

	backend := opts.Backend
	if backend == nil {
		backend = &device.SoftwareBackend{
			BlockSize:     opts.BlockSize,
			MaxInputBytes: opts.MaxInputBytes,
		}
	}

	return &Handle{grammar: g, tables: tbl, backend: backend, log: opts.Logger}, diags, nil
}

// Lex runs the full pipeline over input: the device backend's compute
// passes, followed by the retag pass, returning the kept tokens in
// order.
func (h *Handle) Lex(ctx context.Context, input []byte) ([]Token, error) {
	h.log.Debug().Int("bytes", len(input)).Msg("lex: dispatch")

	raw, err := h.backend.Run(ctx, h.tables, input)
	if err != nil {
		// ErrInputTooLarge and ErrUnterminatedInput are expected lex
		// outcomes, not device failures: returned as-is so callers can
		// match them directly, rather than wrapped in a DeviceFailureError
		// meant for genuine backend/submission errors (context
		// cancellation, allocation failures, and the like).
		if errors.Is(err, lexerr.ErrInputTooLarge) || errors.Is(err, lexerr.ErrUnterminatedInput) {
			h.log.Debug().Err(err).Msg("lex: rejected input")
			return nil, err
		}
		h.log.Debug().Err(err).Msg("lex: backend failure")
		return nil, &lexerr.DeviceFailureError{Pass: "evaluate", Err: err}
	}

	retagged := retag.Apply(h.grammar, raw)

	out := make([]Token, len(retagged))
	for i, tok := range retagged {
		out[i] = Token{Kind: tok.Kind, Start: tok.Start, End: tok.End}
	}
	h.log.Debug().Int("tokens", len(out)).Msg("lex: complete")
	return out, nil
}
