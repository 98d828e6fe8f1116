//go:build linux && arm64

// Package jit runs a compiled code buffer directly on the host CPU: mmap a
// page, copy the buffer in, flip it executable, and call through. Grounded
// on original_source/src/bfrt.c's JITContext dance, translated from the
// macOS-specific MAP_JIT/pthread write-gate model (unavailable on Linux)
// to the ordinary Linux PROT_WRITE-then-PROT_EXEC mmap idiom.
package jit

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Urethramancer/bfopt/codegen"
)

// entry is the calling convention spec.md §4.5 fixes: a single pointer
// argument in X0, an int result in W0/X0.
type entry func(tape uintptr) int32

// Run allocates an executable page holding buf's words, then calls the
// entry point with tape's address in X0, per spec.md's emitter→runner
// contract.
func Run(buf *codegen.CodeBuffer, tape []byte) (int, error) {
	code := buf.Bytes()
	if len(code) == 0 {
		return 0, fmt.Errorf("jit: empty code buffer")
	}
	if len(tape) == 0 {
		return 0, fmt.Errorf("jit: empty tape")
	}

	page, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("jit: allocating code page: %w", err)
	}
	defer unix.Munmap(page)

	copy(page, code)

	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, fmt.Errorf("jit: marking code page executable: %w", err)
	}

	// TODO: explicit "IC IVAU" instruction-cache invalidation over [page,
	// page+len(code)) requires inline assembly this package doesn't carry
	// yet; Mprotect's PROT_EXEC transition is sufficient on the kernels
	// this was developed against but is not architecturally guaranteed.

	// A Go func value is a pointer to a funcval struct whose first word is
	// the entry PC. codePtr holds the mmap'd page's address; pointing a
	// func value's internal pointer at codePtr (rather than at the page
	// itself) reproduces that layout so calling fn jumps straight into
	// the JIT'd code.
	codePtr := uintptr(unsafe.Pointer(&page[0]))
	var fn entry
	*(*uintptr)(unsafe.Pointer(&fn)) = uintptr(unsafe.Pointer(&codePtr))

	result := fn(uintptr(unsafe.Pointer(&tape[0])))
	runtime.KeepAlive(page)
	runtime.KeepAlive(codePtr)
	return int(result), nil
}
