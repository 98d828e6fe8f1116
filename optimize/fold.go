// Package optimize implements the three increasing optimization levels
// that rewrite an ir.Program in place: run-length folding and cancellation,
// clear-loop recognition (O1), move/scan-loop recognition (O2), and
// multiply-add loop recognition (O3). Every pass preserves the loop-balance
// and zero-magnitude invariants described in spec.md §3.
package optimize

import "github.com/Urethramancer/bfopt/ir"

// additiveFamily reports which mergeable family an op's kind belongs to,
// and whether it's the "negative" direction within that family (Sub vs
// Add). Ops outside {PtrAdd, PtrSub, ValAdd, ValSub} are not foldable.
func additiveFamily(k ir.Kind) (family int, negative bool, ok bool) {
	switch k {
	case ir.PtrAdd:
		return 0, false, true
	case ir.PtrSub:
		return 0, true, true
	case ir.ValAdd:
		return 1, false, true
	case ir.ValSub:
		return 1, true, true
	default:
		return 0, false, false
	}
}

// fold walks adjacent pairs merging same-kind additive runs and cancelling
// opposite-kind pairs within the same family (ptr/ptr, val/val). The walk
// restarts from the program head after a full cancellation (mirrors the
// reference compiler's behaviour of re-scanning from the top whenever two
// ops annihilate each other) and otherwise advances only on steps that
// didn't rewrite anything.
func fold(p *ir.Program) {
	cur := p.First()
	for cur != nil && cur.Next() != nil {
		next := cur.Next()

		curFam, curNeg, curOK := additiveFamily(cur.Kind)
		nextFam, nextNeg, nextOK := additiveFamily(next.Kind)
		if !curOK || !nextOK || curFam != nextFam {
			cur = cur.Next()
			continue
		}

		if curNeg == nextNeg {
			// Same kind: merge by adding magnitudes.
			cur.Value += next.Value
			p.Remove(next)
			continue // re-examine cur against its new successor
		}

		// Opposite kind, same family: cancel.
		net := cur.Value - next.Value
		switch {
		case net == 0:
			p.Remove(next)
			p.Remove(cur)
			cur = p.First() // restart: a cancellation can expose new adjacencies anywhere before it
		case net > 0:
			cur.Value = net
			p.Remove(next)
			continue // re-examine cur against its new successor
		default:
			cur.Kind = next.Kind
			cur.Value = -net
			p.Remove(next)
			continue // re-examine cur against its new successor
		}
	}

	dropZeroMagnitude(p)
}

// dropZeroMagnitude deletes any surviving additive op whose value folded
// down to zero. Folding by construction never produces these (every merge
// and cancellation either keeps a positive magnitude or removes both ops),
// but a defensive sweep keeps invariant 2 true even if a future pass feeds
// fold() an op built with a zero value directly.
func dropZeroMagnitude(p *ir.Program) {
	op := p.First()
	for op != nil {
		next := op.Next()
		if _, _, ok := additiveFamily(op.Kind); ok && op.Value == 0 {
			p.Remove(op)
		}
		op = next
	}
}
