// Package scan implements the three-phase block scan shared by every
// parallel prefix computation in this pipeline: DFA function
// composition, the two-lane boundary-count sum, and the retag pass's
// prefix max. Each call site supplies its own associative operator;
// the phase structure (in-block scan, block-summary scan, downsweep)
// stays the same regardless of what is being combined.
package scan

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Op is an associative binary operator over T. op(a, op(b, c)) must
// equal op(op(a, b), c) for the scan to be meaningful.
type Op[T any] func(a, b T) T

// InclusiveScan computes, for each index i, the combination of
// values[0..=i] under op, using blockSize-sized blocks processed
// independently so the work can be split across goroutines the way a
// GPU dispatch would split it across workgroups.
//
// Phase 1 (in-block): each block computes its own inclusive scan,
// blocks in parallel; within a block the goroutine combines elements
// one after another (no Hillis-Steele step structure).
// Phase 2 (block summaries): the last element of each block's partial
// scan is itself scanned, sequentially — the number of blocks is
// small enough that this is not worth parallelizing further.
// Phase 3 (downsweep): each block except the first combines its
// elements with the exclusive prefix carried in from phase 2, again
// in parallel.
func InclusiveScan[T any](values []T, identity T, op Op[T], blockSize int) []T {
	n := len(values)
	if n == 0 {
		return nil
	}
	if blockSize <= 0 {
		blockSize = n
	}
	nBlocks := (n + blockSize - 1) / blockSize
	out := make([]T, n)

	// Phase 1: in-block inclusive scan, one goroutine per block.
	g, _ := errgroup.WithContext(context.Background())
	for blk := 0; blk < nBlocks; blk++ {
		blk := blk
		g.Go(func() error {
			lo := blk * blockSize
			hi := lo + blockSize
			if hi > n {
				hi = n
			}
			acc := identity
			for i := lo; i < hi; i++ {
				acc = op(acc, values[i])
				out[i] = acc
			}
			return nil
		})
	}
	_ = g.Wait() // the closures never return an error

	if nBlocks == 1 {
		return out
	}

	// Phase 2: scan the block totals sequentially.
	blockPrefix := make([]T, nBlocks)
	acc := identity
	for blk := 0; blk < nBlocks; blk++ {
		hi := (blk+1)*blockSize - 1
		if hi >= n {
			hi = n - 1
		}
		blockPrefix[blk] = acc // exclusive prefix going into this block
		acc = op(acc, out[hi])
	}

	// Phase 3: downsweep — apply each block's exclusive prefix to every
	// element of that block, in parallel. Block 0 needs no adjustment.
	g2, _ := errgroup.WithContext(context.Background())
	for blk := 1; blk < nBlocks; blk++ {
		blk := blk
		g2.Go(func() error {
			prefix := blockPrefix[blk]
			lo := blk * blockSize
			hi := lo + blockSize
			if hi > n {
				hi = n
			}
			for i := lo; i < hi; i++ {
				out[i] = op(prefix, out[i])
			}
			return nil
		})
	}
	_ = g2.Wait()

	return out
}

// ExclusiveFromInclusive derives the exclusive scan from an inclusive
// one: exclusive[i] is the combination of values[0..i), or identity
// for i == 0. Used by the retag pass, which needs "the combination up
// to but not including this element".
func ExclusiveFromInclusive[T any](inclusive []T, identity T) []T {
	out := make([]T, len(inclusive))
	prev := identity
	for i, v := range inclusive {
		out[i] = prev
		prev = v
	}
	return out
}
