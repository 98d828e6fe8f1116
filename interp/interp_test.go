package interp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Urethramancer/bfopt/frontend"
	"github.com/Urethramancer/bfopt/interp"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/optimize"
)

func run(t *testing.T, src, stdin string) string {
	t.Helper()
	prog, err := frontend.Parse([]byte(src))
	require.NoError(t, err)

	var out bytes.Buffer
	m := interp.NewMachine(interp.DefaultTapeSize)
	err = interp.Run(prog, m, strings.NewReader(stdin), &out)
	require.NoError(t, err)
	return out.String()
}

func TestEchoIncrement(t *testing.T) {
	require.Equal(t, "B", run(t, ",+.", "A"))
}

func TestMultiplyAddLoopProducesA(t *testing.T) {
	require.Equal(t, "A", run(t, "++++++++[>++++++++<-]>+.", ""))
}

func TestClearLoopZeroesCell(t *testing.T) {
	prog, err := frontend.Parse([]byte("+++[-]"))
	require.NoError(t, err)
	optimize.Level1(prog)

	m := interp.NewMachine(interp.DefaultTapeSize)
	require.NoError(t, interp.Run(prog, m, strings.NewReader(""), &bytes.Buffer{}))
	require.Equal(t, byte(0), m.Tape[0])
}

func TestBackwardMoveLoopProducesTab(t *testing.T) {
	require.Equal(t, "\t", run(t, "++++>+++++[<+>-]<.", ""))
}

func TestScanZeroStopsAtZeroCell(t *testing.T) {
	prog, err := frontend.Parse([]byte("+[>]"))
	require.NoError(t, err)
	optimize.Level2(prog)

	m := interp.NewMachine(interp.DefaultTapeSize)
	for i := 1; i < 7; i++ {
		m.Tape[i] = 1
	}
	m.Tape[7] = 0
	m.Ptr = 0
	require.NoError(t, interp.Run(prog, m, strings.NewReader(""), &bytes.Buffer{}))
	require.Equal(t, 7, m.Ptr)
}

func TestClearThenMoveSequence(t *testing.T) {
	prog, err := frontend.Parse([]byte("[-]+[->+<]"))
	require.NoError(t, err)
	optimize.Level2(prog)

	m := interp.NewMachine(interp.DefaultTapeSize)
	m.Tape[0] = 5 // [-] must clear this regardless of its prior value
	require.NoError(t, interp.Run(prog, m, strings.NewReader(""), &bytes.Buffer{}))
	require.Equal(t, byte(0), m.Tape[0])
	require.Equal(t, byte(1), m.Tape[1])
}

// semanticPreservationCases are the six spec.md §8 end-to-end scenarios,
// each checked for identical output between unoptimized and O3 IR.
var semanticPreservationCases = []struct {
	name  string
	src   string
	stdin string
}{
	{"echo-increment", ",+.", "A"},
	{"multiply-add", "++++++++[>++++++++<-]>+.", ""},
	{"clear-loop", "+++[-]>,.", "Z"},
	{"backward-move", "++++>+++++[<+>-]<.", ""},
	{"scan-zero", "+[>]<.", ""},
	{"clear-then-move", "[-]+[->+<]>.", ""},
}

func TestSemanticPreservationAcrossOptimizationLevels(t *testing.T) {
	for _, c := range semanticPreservationCases {
		t.Run(c.name, func(t *testing.T) {
			unopt, err := frontend.Parse([]byte(c.src))
			require.NoError(t, err)
			optimized, err := frontend.Parse([]byte(c.src))
			require.NoError(t, err)
			optimize.Level3(optimized)

			var outUnopt, outOpt bytes.Buffer
			require.NoError(t, interp.Run(unopt, interp.NewMachine(interp.DefaultTapeSize), strings.NewReader(c.stdin), &outUnopt))
			require.NoError(t, interp.Run(optimized, interp.NewMachine(interp.DefaultTapeSize), strings.NewReader(c.stdin), &outOpt))

			require.Equal(t, outUnopt.String(), outOpt.String(), "O0 and O3 must produce identical output for %q", c.src)
		})
	}
}

func TestInputAtEOFYieldsZero(t *testing.T) {
	prog, err := frontend.Parse([]byte(",."))
	require.NoError(t, err)
	var out bytes.Buffer
	m := interp.NewMachine(interp.DefaultTapeSize)
	require.NoError(t, interp.Run(prog, m, strings.NewReader(""), &out))
	require.Equal(t, []byte{0}, out.Bytes())
}

func TestPointerOutOfBoundsIsOutOfMemory(t *testing.T) {
	prog, err := frontend.Parse([]byte("<"))
	require.NoError(t, err)
	m := interp.NewMachine(interp.DefaultTapeSize)
	err = interp.Run(prog, m, strings.NewReader(""), &bytes.Buffer{})
	require.ErrorIs(t, err, ir.ErrOutOfMemory)
}
