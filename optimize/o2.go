package optimize

import "github.com/Urethramancer/bfopt/ir"

// scanLoops recognizes LoopStart(id), PtrAdd(k)|PtrSub(k), LoopEnd(id) and
// replaces the three-op window (a one-op body) with ScanZero(step), per
// spec.md §4.2.4.
func scanLoops(p *ir.Program) {
	op := p.First()
	for op != nil {
		next := op.Next()
		if op.Kind == ir.LoopStart && next != nil {
			end := next.Next()
			if (next.Kind == ir.PtrAdd || next.Kind == ir.PtrSub) &&
				end != nil && end.Kind == ir.LoopEnd && end.LoopID == op.LoopID {
				step := next.Value
				if next.Kind == ir.PtrSub {
					step = -step
				}
				after := end.Next()
				p.ReplaceRange(op, end, []*ir.Op{ir.NewOp(ir.ScanZero, step, 0)})
				op = after
				continue
			}
		}
		op = op.Next()
	}
}

// moveOp builds the MoveVal/AddMul replacement for a recognized move-loop
// body: factor 1 gets the cheaper MoveVal encoding, per spec.md's data
// model note that MoveVal is "AddMul with factor 1, distinguished because
// one increment is cheaper than a loop."
func moveOp(factor, offset int) *ir.Op {
	if factor == 1 {
		return ir.NewOp(ir.MoveVal, 1, offset)
	}
	return ir.NewOp(ir.AddMul, factor, offset)
}

// moveLoops recognizes the two textbook move-loop idioms:
//
//	forward:  LoopStart, ValSub(1), PtrAdd(k), ValAdd(m), PtrSub(k), LoopEnd
//	backward: LoopStart, PtrSub(k), ValAdd(m), PtrAdd(k), ValSub(1), LoopEnd
//
// ("[->+<]" and "[<+>-]" respectively) per spec.md §4.2.3, replacing the
// six-op window with MoveVal{offset} (or AddMul{m, offset} when m != 1).
func moveLoops(p *ir.Program) {
	op := p.First()
	for op != nil {
		if op.Kind != ir.LoopStart {
			op = op.Next()
			continue
		}

		window := collectWindow(op, 6)
		if len(window) == 6 && window[5].Kind == ir.LoopEnd && window[5].LoopID == op.LoopID {
			a, b, c, d := window[1], window[2], window[3], window[4]

			if a.Kind == ir.ValSub && a.Value == 1 &&
				b.Kind == ir.PtrAdd && c.Kind == ir.ValAdd && d.Kind == ir.PtrSub &&
				d.Value == b.Value {
				after := window[5].Next()
				p.ReplaceRange(op, window[5], []*ir.Op{moveOp(c.Value, b.Value)})
				op = after
				continue
			}

			if a.Kind == ir.PtrSub && b.Kind == ir.ValAdd && c.Kind == ir.PtrAdd &&
				d.Kind == ir.ValSub && d.Value == 1 && c.Value == a.Value {
				after := window[5].Next()
				p.ReplaceRange(op, window[5], []*ir.Op{moveOp(b.Value, -a.Value)})
				op = after
				continue
			}
		}

		op = op.Next()
	}
}

// collectWindow returns up to n ops starting at start (inclusive), stopping
// early if the chain runs out, so callers can check all N preconditions
// before indexing as spec.md's optimizer contract requires.
func collectWindow(start *ir.Op, n int) []*ir.Op {
	window := make([]*ir.Op, 0, n)
	op := start
	for i := 0; i < n && op != nil; i++ {
		window = append(window, op)
		op = op.Next()
	}
	return window
}

// Level2 adds scan-loop and move-loop recognition on top of Level1, with
// a final fold pass, per spec.md §4.2.6.
func Level2(p *ir.Program) *ir.Program {
	Level1(p)
	scanLoops(p)
	moveLoops(p)
	fold(p)
	return p
}
