package codegen

import (
	"fmt"

	"github.com/Urethramancer/bfopt/arm64"
	"github.com/Urethramancer/bfopt/ir"
)

// Register discipline, fixed for the whole emitter (spec.md §4.4).
const (
	regPtr    = 0  // X0: tape pointer, and syscall argument 0
	regScratch = 1 // X1: load/store scratch, and syscall buffer pointer
	regLen    = 2  // X2: syscall length / AddMul accumulator scratch
	regSyscallNo = 8 // X8: syscall number
	regSpill  = 9  // X9: caller-saved spill across a syscall or AddMul walk
)

// Linux/AArch64 syscall numbers for byte I/O, unchanged from the reference.
const (
	sysWrite = 64
	sysRead  = 63
	fdStdout = 1
	fdStdin  = 0
)

// Lower runs a single forward pass over prog, emitting one or more
// instruction words per op and patching loop branch targets once both
// ends of a bracket pair have been seen, per spec.md §4.4.
func Lower(prog *ir.Program) (*CodeBuffer, []Diagnostic, error) {
	buf := NewCodeBuffer()

	maxLoopID := -1
	prog.Walk(func(op *ir.Op) {
		if op.LoopID > maxLoopID {
			maxLoopID = op.LoopID
		}
	})

	loopStartPC := make([]int, maxLoopID+1)
	loopEndPatch := make([]int, maxLoopID+1)
	for i := range loopStartPC {
		loopStartPC[i] = -1
		loopEndPatch[i] = -1
	}

	var diags []Diagnostic

	for op := prog.First(); op != nil; op = op.Next() {
		switch op.Kind {
		case ir.PtrAdd:
			buf.emit(arm64.EncodeAddImm(regPtr, regPtr, op.Value))

		case ir.PtrSub:
			buf.emit(arm64.EncodeSubImm(regPtr, regPtr, op.Value))

		case ir.ValAdd:
			buf.emit(arm64.EncodeLdrb(regScratch, regPtr))
			buf.emit(arm64.EncodeAddImm(regScratch, regScratch, op.Value))
			buf.emit(arm64.EncodeStrb(regScratch, regPtr))

		case ir.ValSub:
			buf.emit(arm64.EncodeLdrb(regScratch, regPtr))
			buf.emit(arm64.EncodeSubImm(regScratch, regScratch, op.Value))
			buf.emit(arm64.EncodeStrb(regScratch, regPtr))

		case ir.Output:
			emitSyscall(buf, sysWrite, fdStdout)

		case ir.Input:
			emitSyscall(buf, sysRead, fdStdin)

		case ir.LoopStart:
			ldrbPC := buf.emit(arm64.EncodeLdrb(regScratch, regPtr))
			cbzPC := buf.emit(arm64.EncodeCbz(regScratch, 0))
			loopStartPC[op.LoopID] = ldrbPC
			loopEndPatch[op.LoopID] = cbzPC

		case ir.LoopEnd:
			buf.emit(arm64.EncodeLdrb(regScratch, regPtr))
			cbnzPC := buf.emit(arm64.EncodeCbnz(regScratch, 0))

			start := loopStartPC[op.LoopID]
			if d, ok := patchBranch(buf, cbnzPC, start); !ok {
				diags = append(diags, d)
			}

			cbzPC := loopEndPatch[op.LoopID]
			after := buf.Len()
			if d, ok := patchBranch(buf, cbzPC, after); !ok {
				diags = append(diags, d)
			}

		case ir.SetZero:
			buf.emit(arm64.EncodeStrb(arm64.XZR, regPtr))

		case ir.SetVal:
			buf.emit(arm64.EncodeMovz(regScratch, uint16(op.Value)))
			buf.emit(arm64.EncodeStrb(regScratch, regPtr))

		case ir.AddMul:
			emitAddMul(buf, op.Value, op.Offset)

		case ir.MoveVal:
			emitAddMul(buf, 1, op.Offset)

		case ir.ScanZero:
			if d, ok := emitScan(buf, op.Value, true); !ok {
				diags = append(diags, d)
			}

		case ir.ScanNonzero:
			if d, ok := emitScan(buf, op.Value, false); !ok {
				diags = append(diags, d)
			}

		default:
			diags = append(diags, Diagnostic{
				PC:  buf.Len(),
				Err: fmt.Errorf("no lowering for %s: %w", op.Kind, ir.ErrInvalidBranchPatch),
			})
		}
	}

	buf.emit(arm64.EncodeRet())

	return buf, diags, nil
}

// emitSyscall lowers Output/Input: save the tape pointer, load the syscall
// number and fd, point X1 at the tape cell, set length 1, trap, restore
// the tape pointer, exactly per spec.md §4.4.
func emitSyscall(buf *CodeBuffer, number, fd int) {
	buf.emit(arm64.EncodeMovReg(regSpill, regPtr))
	buf.emit(arm64.EncodeMovz(regSyscallNo, uint16(number)))
	buf.emit(arm64.EncodeMovz(regPtr, uint16(fd)))
	buf.emit(arm64.EncodeMovReg(regScratch, regSpill))
	buf.emit(arm64.EncodeMovz(regLen, 1))
	buf.emit(arm64.EncodeSvc(0))
	buf.emit(arm64.EncodeMovReg(regPtr, regSpill))
}

// emitPtrOffset emits `ADD X0, X0, #offset` or `SUB X0, X0, #|offset|`
// depending on sign, since the encoder only offers unsigned immediates.
func emitPtrOffset(buf *CodeBuffer, offset int) {
	if offset >= 0 {
		buf.emit(arm64.EncodeAddImm(regPtr, regPtr, offset))
	} else {
		buf.emit(arm64.EncodeSubImm(regPtr, regPtr, -offset))
	}
}

// emitAddMul lowers AddMul{factor, offset} (and MoveVal as AddMul with
// factor 1): load the source cell, walk to the target cell, accumulate
// factor register-form adds, walk back, and clear the source. The
// register-form `ADD X2, X2, X1` fixes the reference's latent
// immediate-form bug — see DESIGN.md's Open Questions entry.
func emitAddMul(buf *CodeBuffer, factor, offset int) {
	buf.emit(arm64.EncodeLdrb(regScratch, regPtr))
	buf.emit(arm64.EncodeMovReg(regSpill, regPtr))
	emitPtrOffset(buf, offset)
	buf.emit(arm64.EncodeLdrb(regLen, regPtr))
	for i := 0; i < factor; i++ {
		buf.emit(arm64.EncodeAddReg(regLen, regLen, regScratch))
	}
	buf.emit(arm64.EncodeStrb(regLen, regPtr))
	buf.emit(arm64.EncodeMovReg(regPtr, regSpill))
	buf.emit(arm64.EncodeStrb(arm64.XZR, regPtr))
}

// emitScan lowers ScanZero/ScanNonzero as an inline loop: test, conditional
// exit, step the pointer, unconditional branch back, per spec.md §4.4.
// zeroExits selects CBZ (ScanZero: stop on a zero cell) vs CBNZ
// (ScanNonzero: stop on a nonzero cell).
func emitScan(buf *CodeBuffer, step int, zeroExits bool) (Diagnostic, bool) {
	back := buf.emit(arm64.EncodeLdrb(regScratch, regPtr))

	var exitPC int
	if zeroExits {
		exitPC = buf.emit(arm64.EncodeCbz(regScratch, 0))
	} else {
		exitPC = buf.emit(arm64.EncodeCbnz(regScratch, 0))
	}

	emitPtrOffset(buf, step)
	branchBackPC := buf.emit(arm64.EncodeB(0))

	ok := true
	var diag Diagnostic
	if d, good := patchBranch(buf, branchBackPC, back); !good {
		diag, ok = d, false
	}

	exit := buf.Len()
	if d, good := patchBranch(buf, exitPC, exit); !good {
		diag, ok = d, false
	}

	return diag, ok
}

// patchBranch rewrites the immediate field of the placeholder branch word
// at idx in place, so the branch lands at targetIdx. It inspects the
// word's high bit to pick the 19-bit CBZ/CBNZ field or the 26-bit B field,
// per spec.md §4.4. An out-of-range delta is reported as a Diagnostic
// rather than panicking; the word is left unpatched.
func patchBranch(buf *CodeBuffer, idx, targetIdx int) (Diagnostic, bool) {
	word := buf.words[idx]
	deltaInstr := targetIdx - idx

	if arm64.IsConditionalBranch(word) {
		const limit = 1 << 18
		if deltaInstr < -limit || deltaInstr > limit-1 {
			return Diagnostic{PC: idx, Err: fmt.Errorf("branch target %d out of CBZ/CBNZ range from %d: %w", targetIdx, idx, ir.ErrInvalidBranchPatch)}, false
		}
		imm19 := uint32(deltaInstr) & 0x7FFFF
		buf.patch(idx, (word&^(uint32(0x7FFFF)<<5))|(imm19<<5))
		return Diagnostic{}, true
	}

	const limit = 1 << 25
	if deltaInstr < -limit || deltaInstr > limit-1 {
		return Diagnostic{PC: idx, Err: fmt.Errorf("branch target %d out of B range from %d: %w", targetIdx, idx, ir.ErrInvalidBranchPatch)}, false
	}
	imm26 := uint32(deltaInstr) & 0x3FFFFFF
	buf.patch(idx, (word&^uint32(0x3FFFFFF))|imm26)
	return Diagnostic{}, true
}
