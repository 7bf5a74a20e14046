// Package tables builds the offline lookup tables the online evaluator
// runs against: the enumerated closure of Unary Transition Functions
// (UTFs) reachable by composing per-byte DFA steps, plus the raw
// per-step transition table the UTFs are built from.
package tables

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/streamlex/streamlex/internal/automaton"
	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexerr"
)

// DefaultMaxFunctions bounds the UTF closure fixpoint. Grammars with
// pathological interaction between rules can in principle enumerate
// far more UTFs than fit in the 15-bit id space; this is the capacity
// ErrTableCapacityExceeded is checked against.
const DefaultMaxFunctions = 1 << 15

// Tables is everything the evaluator needs: the enumerated UTF set
// (Merge, CharToFunc, TokenOf, EmitOnStart) for parallel prefix
// composition, and the raw NextEmit/TokenMap pair for single-step
// lookups and for validating the UTF closure against.
type Tables struct {
	// CharToFunc maps each input byte to the UTF id of "apply this
	// byte's DFA transition everywhere".
	CharToFunc [256]PackedUTF

	// Merge is the m*m composition table: Merge[a*M+b] is the id of
	// "apply a, then apply b".
	Merge []uint32

	// TokenOf and EmitOnStart report, for each UTF id, the kind and
	// emit flag produced by applying that UTF starting from the DFA's
	// start state. This is the q0-relative slice of an otherwise
	// per-state function; composition is general but the grammar only
	// ever asks what a prefix's function does to q0.
	TokenOf     []grammar.Kind
	EmitOnStart []bool

	// FilterMask reports, per token kind, whether tokens of that kind
	// are dropped during compaction (whitespace, comments, ...).
	FilterMask [256]bool

	// NextEmit is the raw per-(state,byte) transition table the UTFs
	// were enumerated from, kept for validation and for the serial
	// reference evaluator.
	NextEmit []NextEmitEntry

	// TokenMap reports, per DFA state, the kind accepted by resting in
	// that state with no further byte (grammar.NoKind if none), carried
	// through unchanged from the DFA.
	TokenMap []grammar.Kind

	NStates int

	M        uint32
	Identity uint32
	Reject   uint16
	Start    uint16
}

// utfVec is a full per-state (state,emit) vector: the internal,
// unpacked form of a UTF used only during closure construction. Only
// its q0-relative slice (TokenOf[id], EmitOnStart[id]) is ever
// published.
type utfVec []automaton.Transition

func composeVec(a, b utfVec) utfVec {
	out := make(utfVec, len(a))
	for s, t := range a {
		out[s] = b[t.State]
	}
	return out
}

func vecKey(v utfVec) string {
	buf := make([]byte, len(v)*3)
	for i, t := range v {
		buf[i*3] = byte(t.State)
		buf[i*3+1] = byte(t.State >> 8)
		if t.Emit {
			buf[i*3+2] = 1
		}
	}
	return string(buf)
}

// Build enumerates the UTF closure for dfa and assembles the full
// table set. dfa must already have had StreamingTransform applied.
func Build(dfa *automaton.DFA, g *grammar.Grammar) (*Tables, error) {
	return BuildWithCapacity(dfa, g, DefaultMaxFunctions)
}

// BuildWithCapacity is Build with an explicit cap on the number of
// enumerated UTFs.
func BuildWithCapacity(dfa *automaton.DFA, g *grammar.Grammar, maxFuncs int) (*Tables, error) {
	n := dfa.NStates()

	identity := make(utfVec, n)
	for s := 0; s < n; s++ {
		identity[s] = automaton.Transition{State: uint16(s)}
	}

	funcs := []utfVec{identity}
	index := map[string]uint32{vecKey(identity): 0}

	// δ_c for each byte: the function "take this byte's DFA edge from
	// every state".
	charToFuncID := make([]uint32, 256)
	for b := 0; b < 256; b++ {
		v := make(utfVec, n)
		for s := 0; s < n; s++ {
			v[s] = dfa.Next[s][b]
		}
		key := vecKey(v)
		id, ok := index[key]
		if !ok {
			id = uint32(len(funcs))
			index[key] = id
			funcs = append(funcs, v)
		}
		charToFuncID[b] = id
	}

	if err := closureFixpoint(&funcs, index, maxFuncs); err != nil {
		return nil, err
	}

	m := len(funcs)
	merge := make([]uint32, m*m)
	if err := fillMerge(funcs, index, merge, m); err != nil {
		return nil, err
	}

	tokenOf := make([]grammar.Kind, m)
	emitOnStart := make([]bool, m)
	for id, v := range funcs {
		t := v[dfa.Start]
		tokenOf[id] = dfa.TokenMap[t.State]
		emitOnStart[id] = t.Emit
	}

	var charToFunc [256]PackedUTF
	for b, id := range charToFuncID {
		charToFunc[b] = PackUTFID(id)
	}

	nextEmit := make([]NextEmitEntry, n*256)
	for s := 0; s < n; s++ {
		for b := 0; b < 256; b++ {
			t := dfa.Next[s][b]
			kind := grammar.NoKind
			if t.Emit {
				kind = dfa.TokenMap[s]
			}
			nextEmit[s*256+b] = PackNextEmit(t.State, t.Emit, kind)
		}
	}

	var filterMask [256]bool
	for k := 0; k < 256; k++ {
		filterMask[k] = g.IsFiltered(grammar.Kind(k))
	}

	tokenMap := make([]grammar.Kind, n)
	copy(tokenMap, dfa.TokenMap)

	return &Tables{
		CharToFunc:  charToFunc,
		Merge:       merge,
		TokenOf:     tokenOf,
		EmitOnStart: emitOnStart,
		FilterMask:  filterMask,
		NextEmit:    nextEmit,
		TokenMap:    tokenMap,
		NStates:     n,
		M:           uint32(m),
		Identity:    0,
		Reject:      dfa.Reject,
		Start:       dfa.Start,
	}, nil
}

// closureFixpoint grows funcs/index by repeatedly composing every
// newly discovered function against every known function (in both
// orders) until no new function is discovered, mirroring the
// new-against-all / all-against-new sweep needed because composition
// is not commutative.
func closureFixpoint(funcs *[]utfVec, index map[string]uint32, maxFuncs int) error {
	newStart := 0
	for {
		curLen := len(*funcs)
		if newStart == curLen {
			break
		}
		var discovered []utfVec
		seen := map[string]bool{}
		add := func(v utfVec) {
			key := vecKey(v)
			if _, ok := index[key]; ok {
				return
			}
			if seen[key] {
				return
			}
			seen[key] = true
			discovered = append(discovered, v)
		}
		for i := newStart; i < curLen; i++ {
			for j := 0; j < curLen; j++ {
				add(composeVec((*funcs)[i], (*funcs)[j]))
				add(composeVec((*funcs)[j], (*funcs)[i]))
			}
		}
		if len(discovered) == 0 {
			break
		}
		for _, v := range discovered {
			key := vecKey(v)
			if _, ok := index[key]; ok {
				continue
			}
			if len(*funcs) >= maxFuncs {
				return fmt.Errorf("tables: %w: closure exceeded %d functions", lexerr.ErrTableCapacityExceeded, maxFuncs)
			}
			id := uint32(len(*funcs))
			index[key] = id
			*funcs = append(*funcs, v)
		}
		newStart = curLen
	}
	return nil
}

// fillMerge fills the m*m composition table, one goroutine per row
// block, the software-backend analogue of the row-parallel fill a GPU
// build step would dispatch as one workgroup per row.
func fillMerge(funcs []utfVec, index map[string]uint32, merge []uint32, m int) error {
	g, _ := errgroup.WithContext(context.Background())
	const rowsPerTask = 64
	for start := 0; start < m; start += rowsPerTask {
		start := start
		end := start + rowsPerTask
		if end > m {
			end = m
		}
		g.Go(func() error {
			for a := start; a < end; a++ {
				row := merge[a*m : a*m+m]
				for b := 0; b < m; b++ {
					// The identity (id 0) has no edge of its own, so a
					// composed with it keeps a's emit flags; composeVec
					// would take them from the identity vector instead.
					if b == 0 {
						row[b] = uint32(a)
						continue
					}
					v := composeVec(funcs[a], funcs[b])
					id, ok := index[vecKey(v)]
					if !ok {
						return fmt.Errorf("tables: closure did not intern composition of %d and %d", a, b)
					}
					row[b] = id
				}
			}
			return nil
		})
	}
	return g.Wait()
}
