package optimize

import "github.com/Urethramancer/bfopt/ir"

// clearLoops recognizes LoopStart(id), ValSub(1), LoopEnd(id) and replaces
// the three-op window with a single SetZero, per spec.md §4.2.2.
func clearLoops(p *ir.Program) {
	op := p.First()
	for op != nil {
		next := op.Next()
		if op.Kind == ir.LoopStart && next != nil {
			mid := next
			end := mid.Next()
			if mid.Kind == ir.ValSub && mid.Value == 1 &&
				end != nil && end.Kind == ir.LoopEnd && end.LoopID == op.LoopID {
				after := end.Next()
				p.ReplaceRange(op, end, []*ir.Op{ir.NewOp(ir.SetZero, 0, 0)})
				op = after
				continue
			}
		}
		op = op.Next()
	}
}

// Level0 is the identity pass: -O0 skips all optimization, per spec.md §6.
func Level0(p *ir.Program) *ir.Program {
	return p
}

// Level1 runs run-length folding/cancellation, clear-loop recognition, and
// a final fold pass to pick up adjacencies the rewrite exposed, per
// spec.md §4.2.6.
func Level1(p *ir.Program) *ir.Program {
	fold(p)
	clearLoops(p)
	fold(p)
	return p
}
