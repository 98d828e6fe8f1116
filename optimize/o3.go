package optimize

import "github.com/Urethramancer/bfopt/ir"

// multiplyAnalysis accumulates the flat-body statistics analyzeMultiplyLoop
// needs to decide whether a loop is a multiply-add loop, per spec.md §4.2.5.
type multiplyAnalysis struct {
	ptrOffset      int
	targetOffset   int
	valueMultiply  int
	decrementCount int
	hasPtrMovement bool
	hasValueAdd    bool
	flat           bool // false if the body contains a nested loop or an unrecognized op
}

// analyzeMultiplyLoop walks the flat range (start, end) exclusive — the
// body of a LoopStart/LoopEnd pair whose matching end was already found by
// a nesting-aware scan — and reports whether it fits the multiply-add
// shape. Any nested loop delimiter or op outside
// {PtrAdd, PtrSub, ValAdd, ValSub} marks the body non-flat and aborts
// analysis immediately, per spec.md's "only the top-level (flat) loop body
// is analyzed" rule.
func analyzeMultiplyLoop(start, end *ir.Op) multiplyAnalysis {
	a := multiplyAnalysis{flat: true}

	for op := start.Next(); op != end; op = op.Next() {
		switch op.Kind {
		case ir.PtrAdd:
			a.ptrOffset += op.Value
			a.hasPtrMovement = true
		case ir.PtrSub:
			a.ptrOffset -= op.Value
			a.hasPtrMovement = true
		case ir.ValAdd:
			if !a.hasValueAdd || a.ptrOffset != 0 {
				a.valueMultiply = op.Value
				a.targetOffset = a.ptrOffset
				a.hasValueAdd = true
			}
		case ir.ValSub:
			a.decrementCount++
		default:
			a.flat = false
			return a
		}
	}
	return a
}

// qualifies reports whether the analysis meets every precondition spec.md
// §4.2.5 lists for folding into AddMul. The `|ptrOffset| <= 1` tolerance
// (rather than requiring exactly 0) preserves the reference compiler's
// documented behaviour; see DESIGN.md's Open Questions entry. Note the
// drift bound checks the final accumulated ptrOffset (the induction cell
// must return near its start), not targetOffset (the neighbor cell AddMul
// writes to), which must itself be nonzero.
func (a multiplyAnalysis) qualifies() bool {
	offset := a.ptrOffset
	if offset < 0 {
		offset = -offset
	}
	return a.flat &&
		offset <= 1 &&
		a.targetOffset != 0 &&
		a.hasPtrMovement &&
		a.hasValueAdd &&
		a.decrementCount > 0 &&
		a.valueMultiply > 0
}

// matchingLoopEnd walks forward from a LoopStart maintaining a nesting
// counter, returning the LoopEnd that closes it (which may itself contain
// further nested loops along the way). Returns nil if the program runs out
// before the nesting returns to zero, which cannot happen for a program
// that satisfies invariant 1 but is checked defensively.
func matchingLoopEnd(start *ir.Op) *ir.Op {
	depth := 1
	for op := start.Next(); op != nil; op = op.Next() {
		switch op.Kind {
		case ir.LoopStart:
			depth++
		case ir.LoopEnd:
			depth--
			if depth == 0 {
				return op
			}
		}
	}
	return nil
}

// addMulLoops recognizes flat multiply-add loop bodies and replaces the
// entire bracketed range with AddMul{factor, offset} followed by SetZero,
// per spec.md §4.2.5. Loops containing a nested loop or a non-additive op
// are left untouched; the nested loop itself is still visited later as the
// scan continues, so it can independently qualify.
func addMulLoops(p *ir.Program) {
	op := p.First()
	for op != nil {
		if op.Kind != ir.LoopStart {
			op = op.Next()
			continue
		}

		end := matchingLoopEnd(op)
		if end == nil {
			op = op.Next()
			continue
		}

		analysis := analyzeMultiplyLoop(op, end)
		if !analysis.qualifies() {
			op = op.Next()
			continue
		}

		after := end.Next()
		repl := []*ir.Op{
			ir.NewOp(ir.AddMul, analysis.valueMultiply, analysis.targetOffset),
			ir.NewOp(ir.SetZero, 0, 0),
		}
		p.ReplaceRange(op, end, repl)
		op = after
	}
}

// Level3 adds multiply-add loop recognition on top of Level2, with a final
// fold pass, per spec.md §4.2.6.
func Level3(p *ir.Program) *ir.Program {
	Level2(p)
	addMulLoops(p)
	fold(p)
	return p
}

// Run applies every optimization pass up to and including the given level
// (0-3), matching the CLI's -O0..-O3 selection.
func Run(p *ir.Program, level int) *ir.Program {
	switch {
	case level <= 0:
		return Level0(p)
	case level == 1:
		return Level1(p)
	case level == 2:
		return Level2(p)
	default:
		return Level3(p)
	}
}
