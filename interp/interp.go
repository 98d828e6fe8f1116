// Package interp is a reference tape-machine interpreter used only by
// tests, to check that optimization preserves program semantics
// (spec.md §8 property #4). It executes IR directly — both unoptimized
// and any optimization level — against a simulated tape, generalizing
// cpu.Execute's fetch-decode-execute loop to the higher-level fused ops
// (SetZero, AddMul, ScanZero, ...) the optimizer introduces.
package interp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Urethramancer/bfopt/ir"
)

// DefaultTapeSize is the reference tape length spec.md's end-to-end
// scenarios assume: 30,000 zeroed cells.
const DefaultTapeSize = 30000

// Machine holds the tape and pointer state a Run call steps through.
type Machine struct {
	Tape []byte
	Ptr  int
}

// NewMachine returns a zeroed tape of size cells.
func NewMachine(size int) *Machine {
	return &Machine{Tape: make([]byte, size)}
}

// Run executes prog against m, reading Input bytes from in and writing
// Output bytes to out. It does not itself interpret LoopStart/LoopEnd as
// nested control flow recursively walking the linked list twice; instead
// it precomputes matching loop-end offsets once up front so each
// LoopStart/LoopEnd test is an O(1) jump, mirroring the teacher's
// single fetch-decode-execute step per op.
func Run(prog *ir.Program, m *Machine, in io.Reader, out io.Writer) error {
	ops := flatten(prog)
	match := matchLoops(ops)

	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	pc := 0
	for pc < len(ops) {
		op := ops[pc]
		switch op.Kind {
		case ir.PtrAdd:
			if err := m.movePtr(op.Value); err != nil {
				return err
			}
		case ir.PtrSub:
			if err := m.movePtr(-op.Value); err != nil {
				return err
			}
		case ir.ValAdd:
			m.Tape[m.Ptr] += byte(op.Value)
		case ir.ValSub:
			m.Tape[m.Ptr] -= byte(op.Value)
		case ir.Output:
			if err := bw.WriteByte(m.Tape[m.Ptr]); err != nil {
				return fmt.Errorf("writing output byte: %w", ir.ErrOutputIO)
			}
		case ir.Input:
			b, err := br.ReadByte()
			if err != nil {
				if err == io.EOF {
					m.Tape[m.Ptr] = 0
					break
				}
				return fmt.Errorf("reading input byte: %w", ir.ErrInputIO)
			}
			m.Tape[m.Ptr] = b
		case ir.LoopStart:
			if m.Tape[m.Ptr] == 0 {
				pc = match[pc]
			}
		case ir.LoopEnd:
			if m.Tape[m.Ptr] != 0 {
				pc = match[pc]
			}
		case ir.SetZero:
			m.Tape[m.Ptr] = 0
		case ir.SetVal:
			m.Tape[m.Ptr] = byte(op.Value)
		case ir.AddMul:
			if err := m.addMul(op.Value, op.Offset); err != nil {
				return err
			}
		case ir.MoveVal:
			if err := m.addMul(1, op.Offset); err != nil {
				return err
			}
		case ir.ScanZero:
			if err := m.scan(op.Value, true); err != nil {
				return err
			}
		case ir.ScanNonzero:
			if err := m.scan(op.Value, false); err != nil {
				return err
			}
		case ir.Conditional:
			return fmt.Errorf("interp: no case for Conditional op")
		}
		pc++
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", ir.ErrOutputIO)
	}
	return nil
}

func (m *Machine) movePtr(delta int) error {
	np := m.Ptr + delta
	if np < 0 || np >= len(m.Tape) {
		return fmt.Errorf("pointer moved out of tape bounds: %w", ir.ErrOutOfMemory)
	}
	m.Ptr = np
	return nil
}

func (m *Machine) addMul(factor, offset int) error {
	target := m.Ptr + offset
	if target < 0 || target >= len(m.Tape) {
		return fmt.Errorf("addmul target out of tape bounds: %w", ir.ErrOutOfMemory)
	}
	m.Tape[target] += byte(factor) * m.Tape[m.Ptr]
	m.Tape[m.Ptr] = 0
	return nil
}

func (m *Machine) scan(step int, zeroExits bool) error {
	for {
		nonzero := m.Tape[m.Ptr] != 0
		if zeroExits && !nonzero {
			return nil
		}
		if !zeroExits && nonzero {
			return nil
		}
		if err := m.movePtr(step); err != nil {
			return err
		}
	}
}

// flatten copies a Program's linked ops into a slice so Run can index by
// program counter instead of following Next() pointers one step at a time.
func flatten(prog *ir.Program) []*ir.Op {
	ops := make([]*ir.Op, 0, prog.Len())
	prog.Walk(func(op *ir.Op) { ops = append(ops, op) })
	return ops
}

// matchLoops returns, for every LoopStart index, the index of its matching
// LoopEnd, and vice versa, so Run's loop tests are O(1) jumps.
func matchLoops(ops []*ir.Op) []int {
	match := make([]int, len(ops))
	var stack []int
	for i, op := range ops {
		switch op.Kind {
		case ir.LoopStart:
			stack = append(stack, i)
		case ir.LoopEnd:
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			match[start] = i
			match[i] = start
		}
	}
	return match
}
