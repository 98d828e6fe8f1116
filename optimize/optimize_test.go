package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Urethramancer/bfopt/frontend"
	"github.com/Urethramancer/bfopt/ir"
	"github.com/Urethramancer/bfopt/optimize"
)

func parse(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := frontend.Parse([]byte(src))
	require.NoError(t, err)
	return prog
}

func kinds(p *ir.Program) []ir.Kind {
	var ks []ir.Kind
	p.Walk(func(op *ir.Op) { ks = append(ks, op.Kind) })
	return ks
}

func TestFoldMergesRuns(t *testing.T) {
	p := parse(t, "+++")
	optimize.Level1(p)
	require.Equal(t, []ir.Kind{ir.ValAdd}, kinds(p))
	require.Equal(t, 3, p.First().Value)
}

func TestFoldCancelsOppositePair(t *testing.T) {
	p := parse(t, "+++---")
	optimize.Level1(p)
	require.Empty(t, kinds(p))
}

func TestFoldPartialCancel(t *testing.T) {
	p := parse(t, "+++++--")
	optimize.Level1(p)
	require.Equal(t, []ir.Kind{ir.ValAdd}, kinds(p))
	require.Equal(t, 3, p.First().Value)
}

func TestFoldFlipsDirection(t *testing.T) {
	p := parse(t, "++-----")
	optimize.Level1(p)
	require.Equal(t, []ir.Kind{ir.ValSub}, kinds(p))
	require.Equal(t, 3, p.First().Value)
}

func TestFoldIdempotence(t *testing.T) {
	p := parse(t, "++>><<--[-]+++[-]")
	optimize.Level1(p)
	once := kinds(p)

	// Running the level-1 pass again must be a no-op.
	optimize.Level1(p)
	twice := kinds(p)
	require.Equal(t, once, twice)
}

func TestClearLoopBecomesSetZero(t *testing.T) {
	p := parse(t, "+++[-]")
	optimize.Level1(p)
	require.Equal(t, []ir.Kind{ir.ValAdd, ir.SetZero}, kinds(p))
	require.Equal(t, 3, p.First().Value)
}

func TestScanLoopBecomesScanZero(t *testing.T) {
	p := parse(t, "+[>]")
	optimize.Level2(p)
	require.Equal(t, []ir.Kind{ir.ValAdd, ir.ScanZero}, kinds(p))
	scan := p.Last()
	require.Equal(t, 1, scan.Value)
}

func TestScanLoopBackward(t *testing.T) {
	p := parse(t, "+[<]")
	optimize.Level2(p)
	require.Equal(t, []ir.Kind{ir.ValAdd, ir.ScanZero}, kinds(p))
	require.Equal(t, -1, p.Last().Value)
}

func TestMoveLoopForward(t *testing.T) {
	p := parse(t, "++++>+++++[->+<]")
	optimize.Level2(p)
	ks := kinds(p)
	require.Equal(t, []ir.Kind{ir.ValAdd, ir.PtrAdd, ir.ValAdd, ir.MoveVal}, ks)
	mv := p.Last()
	require.Equal(t, 1, mv.Offset)
}

func TestMoveLoopBackward(t *testing.T) {
	p := parse(t, "++++>+++++[<+>-]<.")
	optimize.Level2(p)
	var mv *ir.Op
	p.Walk(func(op *ir.Op) {
		if op.Kind == ir.MoveVal {
			mv = op
		}
	})
	require.NotNil(t, mv)
	require.Equal(t, -1, mv.Offset)
}

func TestAddMulLoop(t *testing.T) {
	p := parse(t, "++++++++[>++++++++<-]>+.")
	optimize.Level3(p)
	var am *ir.Op
	loopSeen := false
	p.Walk(func(op *ir.Op) {
		if op.Kind == ir.AddMul {
			am = op
		}
		if op.Kind == ir.LoopStart {
			loopSeen = true
		}
	})
	require.False(t, loopSeen, "O3 output must contain no LoopStart")
	require.NotNil(t, am)
	require.Equal(t, 8, am.Value)
	require.Equal(t, 1, am.Offset)
}

func TestAddMulSkipsNestedLoopBody(t *testing.T) {
	// The outer loop's body contains an inner loop, so it cannot be
	// folded into a single AddMul; the inner loop is still independently
	// visited and may fold on its own.
	p := parse(t, "++[>+[-]<-]")
	optimize.Level3(p)
	starts := 0
	p.Walk(func(op *ir.Op) {
		if op.Kind == ir.LoopStart {
			starts++
		}
	})
	require.Equal(t, 1, starts, "outer loop must survive since its body isn't flat")
}

func TestClearThenMoveSequence(t *testing.T) {
	p := parse(t, "[-]+[->+<]")
	optimize.Level2(p)
	ks := kinds(p)
	require.Equal(t, []ir.Kind{ir.SetZero, ir.ValAdd, ir.MoveVal}, ks)
}

func TestZeroMagnitudeOpsNeverSurvive(t *testing.T) {
	p := parse(t, "+-><")
	optimize.Level1(p)
	require.Equal(t, 0, p.Len())
}
