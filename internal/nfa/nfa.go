// Package nfa builds a Thompson-construction NFA from a priority-ordered
// list of grammar rules, ready for subset construction into a DFA.
package nfa

import (
	"fmt"

	"github.com/streamlex/streamlex/internal/grammar"
	"github.com/streamlex/streamlex/internal/regexast"
)

// ByteRange is an inclusive range of accepted input bytes on a
// transition.
type ByteRange struct {
	Lo, Hi byte
}

// Transition is a single NFA edge: either an epsilon edge (To only) or
// a byte-range edge guarded by Ranges.
type Transition struct {
	Ranges []ByteRange // nil means epsilon
	To     int
}

// State is one NFA state. Priority and Kind are set only on accepting
// states, where Priority is the originating rule's index (lower wins
// ties) and Kind is the produced token kind.
type State struct {
	Out      []Transition
	Accept   bool
	Priority int
	Kind     grammar.Kind
}

// NFA is a Thompson-construction automaton with a single start state
// fanning out, via epsilon edges, to one fragment per rule.
type NFA struct {
	States []State
	Start  int
}

func (n *NFA) newState() int {
	n.States = append(n.States, State{})
	return len(n.States) - 1
}

func (n *NFA) addEps(from, to int) {
	n.States[from].Out = append(n.States[from].Out, Transition{To: to})
}

func (n *NFA) addRange(from int, lo, hi byte, to int) {
	n.States[from].Out = append(n.States[from].Out, Transition{
		Ranges: []ByteRange{{lo, hi}},
		To:     to,
	})
}

// fragment is a sub-automaton with one entry and one dangling exit
// state, in the usual Thompson-construction shape.
type fragment struct {
	start, end int
}

// Build compiles rules, in priority order, into a single NFA whose
// start state epsilon-branches to every rule's fragment.
func Build(rules []grammar.Rule) (*NFA, error) {
	n := &NFA{}
	start := n.newState()
	n.Start = start

	for priority, r := range rules {
		ast, err := regexast.Parse(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("nfa: rule %d (%q): %w", priority, r.Pattern, err)
		}
		frag, err := n.compile(ast)
		if err != nil {
			return nil, fmt.Errorf("nfa: rule %d (%q): %w", priority, r.Pattern, err)
		}
		n.addEps(start, frag.start)
		n.States[frag.end].Accept = true
		n.States[frag.end].Priority = priority
		n.States[frag.end].Kind = r.Kind
	}
	return n, nil
}

func (n *NFA) compile(node *regexast.Node) (fragment, error) {
	switch node.Kind {
	case regexast.NodeLiteral:
		s, e := n.newState(), n.newState()
		n.addRange(s, node.Byte, node.Byte, e)
		return fragment{s, e}, nil

	case regexast.NodeAny:
		s, e := n.newState(), n.newState()
		n.addRange(s, 0, 255, e)
		return fragment{s, e}, nil

	case regexast.NodeClass:
		s, e := n.newState(), n.newState()
		ranges := classRanges(node)
		for _, r := range ranges {
			n.addRange(s, r.Lo, r.Hi, e)
		}
		return fragment{s, e}, nil

	case regexast.NodeConcat:
		if len(node.Children) == 0 {
			s := n.newState()
			return fragment{s, s}, nil
		}
		first, err := n.compile(node.Children[0])
		if err != nil {
			return fragment{}, err
		}
		cur := first
		for _, child := range node.Children[1:] {
			next, err := n.compile(child)
			if err != nil {
				return fragment{}, err
			}
			n.addEps(cur.end, next.start)
			cur.end = next.end
		}
		return fragment{first.start, cur.end}, nil

	case regexast.NodeAlt:
		s, e := n.newState(), n.newState()
		for _, child := range node.Children {
			frag, err := n.compile(child)
			if err != nil {
				return fragment{}, err
			}
			n.addEps(s, frag.start)
			n.addEps(frag.end, e)
		}
		return fragment{s, e}, nil

	case regexast.NodeStar:
		s, e := n.newState(), n.newState()
		inner, err := n.compile(node.Child)
		if err != nil {
			return fragment{}, err
		}
		n.addEps(s, inner.start)
		n.addEps(s, e)
		n.addEps(inner.end, inner.start)
		n.addEps(inner.end, e)
		return fragment{s, e}, nil

	case regexast.NodePlus:
		inner, err := n.compile(node.Child)
		if err != nil {
			return fragment{}, err
		}
		e := n.newState()
		n.addEps(inner.end, inner.start)
		n.addEps(inner.end, e)
		return fragment{inner.start, e}, nil

	case regexast.NodeOpt:
		s, e := n.newState(), n.newState()
		inner, err := n.compile(node.Child)
		if err != nil {
			return fragment{}, err
		}
		n.addEps(s, inner.start)
		n.addEps(inner.end, e)
		n.addEps(s, e)
		return fragment{s, e}, nil

	case regexast.NodeRepeat:
		return n.compileRepeat(node)

	default:
		return fragment{}, fmt.Errorf("nfa: unhandled node kind %v", node.Kind)
	}
}

func (n *NFA) compileRepeat(node *regexast.Node) (fragment, error) {
	var frags []fragment
	for i := 0; i < node.Min; i++ {
		f, err := n.compile(node.Child)
		if err != nil {
			return fragment{}, err
		}
		frags = append(frags, f)
	}
	if node.Max == -1 {
		star, err := n.compile(&regexast.Node{Kind: regexast.NodeStar, Child: node.Child})
		if err != nil {
			return fragment{}, err
		}
		frags = append(frags, star)
	} else {
		for i := node.Min; i < node.Max; i++ {
			opt, err := n.compile(&regexast.Node{Kind: regexast.NodeOpt, Child: node.Child})
			if err != nil {
				return fragment{}, err
			}
			frags = append(frags, opt)
		}
	}
	if len(frags) == 0 {
		s := n.newState()
		return fragment{s, s}, nil
	}
	cur := frags[0]
	for _, f := range frags[1:] {
		n.addEps(cur.end, f.start)
		cur.end = f.end
	}
	return fragment{frags[0].start, cur.end}, nil
}

func classRanges(node *regexast.Node) []ByteRange {
	ranges := make([]ByteRange, len(node.Ranges))
	for i, r := range node.Ranges {
		ranges[i] = ByteRange{r.Lo, r.Hi}
	}
	if !node.Negate {
		return ranges
	}
	covered := make([]bool, 256)
	for _, r := range ranges {
		for b := int(r.Lo); b <= int(r.Hi); b++ {
			covered[b] = true
		}
	}
	var negated []ByteRange
	start := -1
	for b := 0; b < 256; b++ {
		if !covered[b] {
			if start == -1 {
				start = b
			}
		} else if start != -1 {
			negated = append(negated, ByteRange{byte(start), byte(b - 1)})
			start = -1
		}
	}
	if start != -1 {
		negated = append(negated, ByteRange{byte(start), 255})
	}
	return negated
}
