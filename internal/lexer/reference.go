package lexer

import (
	"fmt"

	"github.com/streamlex/streamlex/internal/device"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexerr"
	"github.com/streamlex/streamlex/internal/tables"
)

// SerialReference walks tbl.NextEmit one byte at a time instead of
// going through the UTF-composition scan device.SoftwareBackend uses.
// It is the "straightforward serial implementation of the streaming
// DFA" that the equivalence property checks the parallel pipeline
// against, grounded on cpu.rs's lex_on_cpu: a single sequential walk
// over the streaming DFA with no scan substrate at all.
func SerialReference(tbl *tables.Tables, input []byte) ([]device.Token, error) {
	n := len(input)
	if n == 0 {
		return nil, nil
	}

	var tokens []device.Token
	state := tbl.Start
	start := 0
	for i, b := range input {
		entry := tbl.NextEmit[int(state)*256+int(b)]
		if entry.Emit() {
			kind := entry.Kind()
			if !tbl.FilterMask[kind] {
				tokens = append(tokens, device.Token{Kind: kind, Start: start, End: i})
			}
			start = i
		}
		state = uint16(entry.State())
	}

	finalKind := tbl.TokenMap[state]
	if finalKind == grammar.NoKind {
		return nil, fmt.Errorf("lexer: %w", lexerr.ErrUnterminatedInput)
	}
	if !tbl.FilterMask[finalKind] {
		tokens = append(tokens, device.Token{Kind: finalKind, Start: start, End: n})
	}
	return tokens, nil
}
