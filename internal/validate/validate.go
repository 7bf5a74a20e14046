// Package validate checks tables.Tables against the structural and
// semantic invariants a handle must trust before it lexes anything
// against them: size arithmetic on load, and an identity check plus
// sampled associativity checks on construction.
package validate

import (
	"math/rand"

	"github.com/streamlex/streamlex/internal/lexerr"
	"github.com/streamlex/streamlex/internal/tables"
)

// Structure checks the table's internal size arithmetic: every array
// is sized consistently with M, NStates, and the fixed 256-byte
// alphabet, and Start/Reject/Identity are in range. This is the check
// a loaded table file must pass before any lookup is trusted.
func Structure(tbl *tables.Tables) error {
	m := int(tbl.M)
	if m <= 0 {
		return &lexerr.InvalidTableError{Reason: "M must be positive"}
	}
	if len(tbl.Merge) != m*m {
		return &lexerr.InvalidTableError{Reason: "merge table size does not match M*M"}
	}
	if len(tbl.TokenOf) != m {
		return &lexerr.InvalidTableError{Reason: "token_of size does not match M"}
	}
	if len(tbl.EmitOnStart) != m {
		return &lexerr.InvalidTableError{Reason: "emit_on_start size does not match M"}
	}
	if len(tbl.NextEmit) != tbl.NStates*256 {
		return &lexerr.InvalidTableError{Reason: "next_emit size does not match n_states*256"}
	}
	if len(tbl.TokenMap) != tbl.NStates {
		return &lexerr.InvalidTableError{Reason: "token_map size does not match n_states"}
	}
	if int(tbl.Identity) >= m {
		return &lexerr.InvalidTableError{Reason: "identity id out of range"}
	}
	if int(tbl.Start) >= tbl.NStates {
		return &lexerr.InvalidTableError{Reason: "start state out of range"}
	}
	if int(tbl.Reject) >= tbl.NStates {
		return &lexerr.InvalidTableError{Reason: "reject state out of range"}
	}
	return nil
}

// Invariants checks the identity property a well-formed merge table
// must satisfy for every id, and samples the associativity property
// rather than checking all m³ triples, which is infeasible once m
// reaches the low thousands that mainstream grammars produce.
func Invariants(tbl *tables.Tables, samples int, rng *rand.Rand) error {
	if err := checkIdentity(tbl); err != nil {
		return err
	}
	return checkAssociativity(tbl, samples, rng)
}

func checkIdentity(tbl *tables.Tables) error {
	m := tbl.M
	id := tbl.Identity
	for x := uint32(0); x < m; x++ {
		if tbl.Merge[id*m+x] != x {
			return &lexerr.InvalidTableError{Reason: "identity∘x does not equal x"}
		}
		if tbl.Merge[x*m+id] != x {
			return &lexerr.InvalidTableError{Reason: "x∘identity does not equal x"}
		}
	}
	return nil
}

func checkAssociativity(tbl *tables.Tables, samples int, rng *rand.Rand) error {
	m := tbl.M
	if m == 0 {
		return nil
	}
	for i := 0; i < samples; i++ {
		a := uint32(rng.Int63n(int64(m)))
		b := uint32(rng.Int63n(int64(m)))
		c := uint32(rng.Int63n(int64(m)))
		left := tbl.Merge[tbl.Merge[a*m+b]*m+c]
		right := tbl.Merge[a*m+tbl.Merge[b*m+c]]
		if left != right {
			return &lexerr.InvalidTableError{Reason: "merge is not associative on a sampled triple"}
		}
	}
	return nil
}
