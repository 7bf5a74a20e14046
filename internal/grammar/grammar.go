// Package grammar defines the caller-facing description of a token
// language: a priority-ordered list of regex-to-kind rules plus the
// retag configuration consumed by the later pipeline stages.
package grammar

import "fmt"

// Kind identifies a token kind. Values are assigned by the caller at
// grammar-compile time; the lexer core never interprets the integer
// itself beyond comparing it against NoKind and the filter mask.
type Kind uint8

// NoKind is the distinguished "no token" value used for mid-match
// prefixes and states with no accepting kind.
const NoKind Kind = 255

// Rule is one entry in the priority-ordered token list. Rule order is
// the priority order: Rules[0] is highest priority (e.g. keywords
// before identifiers).
type Rule struct {
	// Pattern is the rule's regex, in the syntax accepted by
	// internal/regexast.
	Pattern string

	// Kind is the token kind produced on a match.
	Kind Kind

	// Filtered marks the kind as recognized but not kept in the
	// final output (whitespace, comments, ...).
	Filtered bool
}

// Grammar is a fully-specified token language: the rule list plus the
// retag configuration needed by the post-lex disambiguation pass.
type Grammar struct {
	Rules []Rule

	// EndsPrimary is the set of kinds whose presence as the previous
	// significant token enables call/index retagging.
	EndsPrimary map[Kind]bool

	// Retag lists the punctuation-kind rewrite rules applied after
	// lexing, disambiguating e.g. call-parens from grouping-parens.
	Retag []RetagRule
}

// RetagRule rewrites Source into IfEndsPrimary when the previous
// significant token's kind is in EndsPrimary, or into Otherwise when
// it is not (or there is no previous significant token).
type RetagRule struct {
	Source        Kind
	IfEndsPrimary Kind
	Otherwise     Kind
}

// Validate checks the grammar for caller-visible mistakes that would
// otherwise surface as confusing construction failures deeper in the
// pipeline.
func (g *Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return fmt.Errorf("grammar: at least one rule is required")
	}
	filtered := make(map[Kind]bool)
	for i, r := range g.Rules {
		if r.Pattern == "" {
			return fmt.Errorf("grammar: rule %d: empty pattern", i)
		}
		if r.Kind == NoKind {
			return fmt.Errorf("grammar: rule %d: kind %d is reserved for NoKind", i, NoKind)
		}
		if prev, ok := filtered[r.Kind]; ok && prev != r.Filtered {
			return fmt.Errorf("grammar: rule %d: kind %d declared both filtered and kept", i, r.Kind)
		}
		filtered[r.Kind] = r.Filtered
	}
	for _, rr := range g.Retag {
		if rr.Source == NoKind {
			return fmt.Errorf("grammar: retag rule has NoKind source")
		}
	}
	return nil
}

// IsFiltered reports whether a rule of the given kind is configured
// as filtered. Used while deriving the filter mask table.
func (g *Grammar) IsFiltered(k Kind) bool {
	for _, r := range g.Rules {
		if r.Kind == k {
			return r.Filtered
		}
	}
	return false
}
