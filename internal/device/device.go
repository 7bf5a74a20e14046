// Package device defines the Backend the lexer core dispatches
// compute passes to, and ships a goroutine-based software
// implementation of it. A real GPU backend would swap in for
// SoftwareBackend without the core caring; the pass sequence
// (map, scan, boundary-and-seed, compact, build) stays the same
// either way.
package device

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/lexerr"
	"github.com/streamlex/streamlex/internal/scan"
	"github.com/streamlex/streamlex/internal/tables"
)

// Token is one recognized, kept token. Start/End is a half-open byte
// range `[Start, End)`, the idiomatic Go rendering of spec §6's
// `(kind, start, length)` tuple; Length reports the same span as a
// literal length for callers matching the tuple shape directly.
type Token struct {
	Kind  grammar.Kind
	Start int
	End   int
}

// Length reports the token's byte length, End-Start.
func (t Token) Length() int { return t.End - t.Start }

// Backend runs the full online pipeline over input using tbl and
// returns the kept tokens in order.
type Backend interface {
	Run(ctx context.Context, tbl *tables.Tables, input []byte) ([]Token, error)
}

// SoftwareBackend runs the pipeline as CPU goroutines, one per scan
// block, standing in for GPU workgroups.
type SoftwareBackend struct {
	// BlockSize is the scan block size; zero means "one block".
	BlockSize int

	// MaxInputBytes caps accepted input length. Zero means unbounded.
	MaxInputBytes int
}

// boundary is one detected token end, before filtering. End is
// exclusive; each token's start is implied by the previous boundary's
// end, filled in during the sequential pairing pass.
type boundary struct {
	End  int
	Kind grammar.Kind
	Kept bool
}

func (be *SoftwareBackend) Run(ctx context.Context, tbl *tables.Tables, input []byte) ([]Token, error) {
	n := len(input)
	if be.MaxInputBytes > 0 && n > be.MaxInputBytes {
		return nil, fmt.Errorf("device: %w: %d bytes exceeds limit of %d", lexerr.ErrInputTooLarge, n, be.MaxInputBytes)
	}
	if n == 0 {
		return nil, nil
	}

	// Pass 1: map each byte to its UTF id.
	ids := make([]uint32, n)
	for i, b := range input {
		ids[i] = tbl.CharToFunc[b].ID()
	}

	// Pass 2: the DFA composition scan — inclusive prefix of UTF
	// composition, computed block-parallel.
	op := scan.Op[uint32](func(a, b uint32) uint32 { return tbl.Merge[a*tbl.M+b] })
	inclusive := scan.InclusiveScan(ids, tbl.Identity, op, be.blockSize(n))
	exclusive := scan.ExclusiveFromInclusive(inclusive, tbl.Identity)

	// Pass 3: boundary finalize and seed. Read the boundary decision
	// off the inclusive prefix and the ending token's kind off the
	// exclusive prefix one position back, per the streaming DFA's
	// one-token-late design. Position n is a virtual, always-on
	// boundary standing in for end-of-input: the per-byte pass only
	// ever closes a token when a later mismatching byte forces it, so
	// whatever is still open when the input runs out needs this extra
	// check to be seen at all.
	allEnds := make([]int, n+1)
	keepEnds := make([]int, n+1)
	kinds := make([]grammar.Kind, n+1)
	endAt := make([]int, n+1)
	if err := parallelFor(ctx, n, be.blockSize(n), func(i int) error {
		if !tbl.EmitOnStart[inclusive[i]] {
			return nil
		}
		kind := tbl.TokenOf[exclusive[i]]
		allEnds[i] = 1
		kinds[i] = kind
		endAt[i] = i
		if !tbl.FilterMask[kind] {
			keepEnds[i] = 1
		}
		return nil
	}); err != nil {
		return nil, err
	}

	finalKind := tbl.TokenOf[inclusive[n-1]]
	if finalKind == grammar.NoKind {
		return nil, fmt.Errorf("device: %w", lexerr.ErrUnterminatedInput)
	}
	allEnds[n] = 1
	kinds[n] = finalKind
	endAt[n] = n
	if !tbl.FilterMask[finalKind] {
		keepEnds[n] = 1
	}

	// Pass 4: the two-lane sum scan for stream compaction.
	sumOp := scan.Op[int](func(a, b int) int { return a + b })
	allCount := scan.InclusiveScan(allEnds, 0, sumOp, be.blockSize(n+1))
	keepCount := scan.InclusiveScan(keepEnds, 0, sumOp, be.blockSize(n+1))

	totalAll := allCount[n]
	totalKept := keepCount[n]

	// Pass 5: scatter each boundary into its dense slot, in parallel.
	all := make([]boundary, totalAll)
	if err := parallelFor(ctx, n+1, be.blockSize(n+1), func(i int) error {
		if allEnds[i] == 0 {
			return nil
		}
		all[allCount[i]-1] = boundary{End: endAt[i], Kind: kinds[i], Kept: keepEnds[i] == 1}
		return nil
	}); err != nil {
		return nil, err
	}

	// Pass 6: pair consecutive boundaries into (start, end) spans. This
	// runs over the dense boundary array (one entry per token, not per
	// byte), so it is cheap to do sequentially even though everything
	// upstream of it was block-parallel.
	start := 0
	tokens := make([]Token, 0, totalKept)
	for _, b := range all {
		if b.Kept {
			tokens = append(tokens, Token{Kind: b.Kind, Start: start, End: b.End})
		}
		start = b.End
	}
	return tokens, nil
}

func (be *SoftwareBackend) blockSize(n int) int {
	if be.BlockSize <= 0 {
		return n
	}
	return be.BlockSize
}

// parallelFor runs fn(i) for i in [0,n) across goroutines grouped into
// blockSize-sized chunks, the same block-per-goroutine shape the scan
// package uses, joined with errgroup the way the rest of this backend
// dispatches work.
func parallelFor(ctx context.Context, n, blockSize int, fn func(i int) error) error {
	if blockSize <= 0 {
		blockSize = n
	}
	g, _ := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += blockSize {
		lo := lo
		hi := lo + blockSize
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
