// Package codegen lowers optimized IR into a buffer of AArch64 instruction
// words, resolving loop branch targets with a one-pass-and-patch model.
package codegen

import "encoding/binary"

// initialCapacity mirrors the teacher's create_code_buffer(5000): most
// programs fit comfortably without a single growth, and the backing slice
// doubles past that.
const initialCapacity = 5000

// CodeBuffer is a growable sequence of 32-bit AArch64 instruction words.
type CodeBuffer struct {
	words []uint32
}

// NewCodeBuffer returns an empty buffer pre-sized to initialCapacity.
func NewCodeBuffer() *CodeBuffer {
	return &CodeBuffer{words: make([]uint32, 0, initialCapacity)}
}

// emit appends word and returns its index, which doubles as its program
// counter since every instruction in this subset is exactly one word.
func (b *CodeBuffer) emit(word uint32) int {
	if len(b.words) == cap(b.words) {
		newCap := 2 * cap(b.words)
		if newCap == 0 {
			newCap = initialCapacity
		}
		grown := make([]uint32, len(b.words), newCap)
		copy(grown, b.words)
		b.words = grown
	}
	b.words = append(b.words, word)
	return len(b.words) - 1
}

// patch overwrites the word at idx, used by branch fixups once a target
// address is known.
func (b *CodeBuffer) patch(idx int, word uint32) {
	b.words[idx] = word
}

// Len reports the number of instruction words emitted so far.
func (b *CodeBuffer) Len() int { return len(b.words) }

// Words returns the underlying word slice. Callers must not retain it
// across further emission, since growth may reallocate.
func (b *CodeBuffer) Words() []uint32 { return b.words }

// Bytes renders the buffer as raw little-endian AArch64 instruction bytes,
// the output-file format per spec: no header, length exactly size*4.
func (b *CodeBuffer) Bytes() []byte {
	out := make([]byte, len(b.words)*4)
	for i, w := range b.words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// Diagnostic is a non-fatal emitter warning: an out-of-range branch patch
// or an IR op the emitter doesn't know how to lower. Compilation continues
// past one, leaving the buffer in a deterministic but possibly
// non-executable state, per the error handling design.
type Diagnostic struct {
	PC  int
	Err error
}

func (d Diagnostic) Error() string {
	return d.Err.Error()
}
