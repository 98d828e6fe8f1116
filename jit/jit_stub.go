//go:build !linux || !arm64

// Package jit runs a compiled code buffer directly on the host CPU. Only
// Linux/AArch64 is supported; original_source/src/main.c's own "-j" path
// says as much ("JIT runtime execution not yet implemented") for every
// platform it doesn't special-case.
package jit

import (
	"fmt"

	"github.com/Urethramancer/bfopt/codegen"
)

// Run always fails on this platform: there is no portable way to mark a
// buffer of raw AArch64 instructions executable and jump into it.
func Run(buf *codegen.CodeBuffer, tape []byte) (int, error) {
	return 0, fmt.Errorf("jit: unsupported on this platform (linux/arm64 only)")
}
