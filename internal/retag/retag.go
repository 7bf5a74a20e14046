// Package retag implements the post-lex punctuation disambiguation
// pass: rewriting a handful of punctuation kinds based on the kind of
// the previous significant token, so the downstream parser sees
// CallLParen/GroupLParen and IndexLBracket/ArrayLBracket instead of an
// undifferentiated LParen/LBracket.
package retag

import (
	"github.com/streamlex/streamlex/internal/device"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/scan"
)

// Apply rewrites the Kind field of tokens in place according to g's
// retag rules and returns the same slice.
//
// The device backend already drops filtered tokens before this runs,
// so every entry in tokens is significant and "the previous
// significant token" is simply the previous entry. The pass is still
// built on an exclusive prefix-max scan (idx[k] = k, scanned with max,
// identity -1) rather than a bare
// tokens[k-1] lookup, so it shares the scan substrate internal/scan
// already provides for UTF composition and boundary counting — it
// just happens to resolve to that trivial lookup once the input is
// already filtered, matching cpu.rs's retag_calls_and_arrays_in_place,
// which is itself a sequential left-to-right pass over an
// already-filtered token list for the same reason.
func Apply(g *grammar.Grammar, tokens []device.Token) []device.Token {
	if len(tokens) == 0 || len(g.Retag) == 0 {
		return tokens
	}

	byRule := make(map[grammar.Kind]grammar.RetagRule, len(g.Retag))
	for _, r := range g.Retag {
		byRule[r.Source] = r
	}

	idx := make([]int, len(tokens))
	for k := range tokens {
		idx[k] = k
	}
	maxOp := scan.Op[int](func(a, b int) int {
		if a > b {
			return a
		}
		return b
	})
	inclusive := scan.InclusiveScan(idx, -1, maxOp, len(idx))
	prevSigIdx := scan.ExclusiveFromInclusive(inclusive, -1)

	for k := range tokens {
		rule, ok := byRule[tokens[k].Kind]
		if !ok {
			continue
		}
		prevKind := grammar.NoKind
		if p := prevSigIdx[k]; p >= 0 {
			prevKind = tokens[p].Kind
		}
		if g.EndsPrimary[prevKind] {
			tokens[k].Kind = rule.IfEndsPrimary
		} else {
			tokens[k].Kind = rule.Otherwise
		}
	}
	return tokens
}
