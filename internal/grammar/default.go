package grammar

// Kind constants for the shipped default grammar. Programmatic callers
// are free to define their own Kind numbering; these only matter to
// code that constructs or consumes Default().
const (
	KindIdent  Kind = 1
	KindInt    Kind = 2
	KindString Kind = 3

	KindPlus Kind = 4
	KindEq   Kind = 5

	KindWhitespace   Kind = 6
	KindLineComment  Kind = 7
	KindBlockComment Kind = 8

	KindLParen   Kind = 9
	KindRParen   Kind = 10
	KindLBracket Kind = 11
	KindRBracket Kind = 12
	KindLBrace   Kind = 13
	KindRBrace   Kind = 14

	KindSemi  Kind = 15
	KindComma Kind = 16

	// Retagged punctuation kinds: CallLParen/GroupLParen and
	// IndexLBracket/ArrayLBracket disambiguate a leading '(' or '['
	// depending on whether the previous significant token ends a
	// primary expression.
	KindCallLParen    Kind = 20
	KindGroupLParen   Kind = 21
	KindIndexLBracket Kind = 22
	KindArrayLBracket Kind = 23
)

// Default returns a small but complete example grammar covering every
// kind named above: identifiers, integers, backslash-escaped string
// literals, arithmetic punctuation, whitespace/comment filtering, and
// the call-vs-group / index-vs-array retag rules. It is meant as a
// runnable starting point for callers writing their own lexspec.json,
// and as the grammar this repo's own end-to-end tests exercise.
func Default() *Grammar {
	return &Grammar{
		Rules: []Rule{
			{Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Kind: KindIdent},
			{Pattern: `[0-9]+`, Kind: KindInt},
			// A double-quoted string: any run of non-quote, non-backslash
			// bytes, or a backslash followed by any byte (so \" and \\
			// don't end the string early), between two literal quotes.
			{Pattern: `"([^"\\]|\\.)*"`, Kind: KindString},
			{Pattern: `\+`, Kind: KindPlus},
			{Pattern: `=`, Kind: KindEq},
			{Pattern: `[ \t\r\n]+`, Kind: KindWhitespace, Filtered: true},
			{Pattern: `//[^\n]*`, Kind: KindLineComment, Filtered: true},
			{Pattern: `/\*([^*]|\*+[^*/])*\*+/`, Kind: KindBlockComment, Filtered: true},
			{Pattern: `\(`, Kind: KindLParen},
			{Pattern: `\)`, Kind: KindRParen},
			{Pattern: `\[`, Kind: KindLBracket},
			{Pattern: `\]`, Kind: KindRBracket},
			{Pattern: `\{`, Kind: KindLBrace},
			{Pattern: `\}`, Kind: KindRBrace},
			{Pattern: `;`, Kind: KindSemi},
			{Pattern: `,`, Kind: KindComma},
		},
		EndsPrimary: map[Kind]bool{
			KindIdent:    true,
			KindInt:      true,
			KindString:   true,
			KindRParen:   true,
			KindRBracket: true,
			KindRBrace:   true,
		},
		Retag: []RetagRule{
			{Source: KindLParen, IfEndsPrimary: KindCallLParen, Otherwise: KindGroupLParen},
			{Source: KindLBracket, IfEndsPrimary: KindIndexLBracket, Otherwise: KindArrayLBracket},
		},
	}
}
