// Command bfopt compiles a tape-machine source file straight to AArch64
// machine code: parse, optimize, emit, write (or JIT-run in place).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Urethramancer/bfopt/codegen"
	"github.com/Urethramancer/bfopt/frontend"
	"github.com/Urethramancer/bfopt/internal/bflog"
	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/jit"
	"github.com/Urethramancer/bfopt/optimize"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	level, rest := extractOptLevel(args)

	var verbose, useJIT bool
	fs := flag.NewFlagSet("bfopt", flag.ContinueOnError)
	fs.BoolVar(&verbose, "v", false, "emit stage progress and an IR dump to stderr")
	fs.BoolVar(&verbose, "verbose", false, "alias for -v")
	fs.BoolVar(&useJIT, "j", false, "invoke the JIT runner instead of writing a file")
	fs.BoolVar(&useJIT, "jit", false, "alias for -j")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-v] [-O0|-O1|-O2|-O3] [-j] <source-file> [output-file]\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(rest); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	log := bflog.Default(verbose)

	if useJIT {
		if fs.NArg() < 1 {
			fs.Usage()
			return 1
		}
	} else if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fail(fmt.Errorf("reading source %q: %w", fs.Arg(0), ir.ErrInputIO))
	}

	log.Debugf(color.CyanString("--- parse ---"))
	prog, err := frontend.Parse(src)
	if err != nil {
		return fail(err)
	}
	dumpIR(log, prog)

	log.Debugf(color.CyanString("--- optimize (O%d) ---", level))
	optimize.Run(prog, level)
	dumpIR(log, prog)

	log.Debugf(color.CyanString("--- codegen ---"))
	buf, diags, err := codegen.Lower(prog)
	if err != nil {
		return fail(err)
	}
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s at pc %d: %v\n", color.YellowString("warning"), d.PC, d.Err)
	}

	if useJIT {
		tape := make([]byte, interp.DefaultTapeSize)
		result, err := jit.Run(buf, tape)
		if err != nil {
			return fail(err)
		}
		log.Debugf("jit exited with %d", result)
		return 0
	}

	if err := os.WriteFile(fs.Arg(1), buf.Bytes(), 0o644); err != nil {
		return fail(fmt.Errorf("writing output %q: %w", fs.Arg(1), ir.ErrOutputIO))
	}

	log.Debugf("wrote %d instruction words to %s", buf.Len(), fs.Arg(1))
	return 0
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("error"), err)
	return 1
}

// extractOptLevel pulls a gcc-style "-O0".."-O3" token out of args before
// flag.Parse runs, since the standard flag package has no notion of a
// bare "-O2" switch. Default level is 1, matching spec.md §6's "-O1"
// default.
func extractOptLevel(args []string) (int, []string) {
	level := 1
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if len(a) == 3 && strings.HasPrefix(a, "-O") && a[2] >= '0' && a[2] <= '3' {
			level = int(a[2] - '0')
			continue
		}
		rest = append(rest, a)
	}
	return level, rest
}

// dumpIR prints one line per op when verbose, mirroring the teacher's
// DumpRegisters()-after-each-phase habit in cmd/run68/main.go.
func dumpIR(log *bflog.Logger, prog *ir.Program) {
	if !log.Verbose {
		return
	}
	prog.Walk(func(op *ir.Op) {
		log.Debugf("  %-12s value=%d offset=%d loop=%d", op.Kind, op.Value, op.Offset, op.LoopID)
	})
}
