package propagation_test

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/pulse-xyz/go-pulse/coupling"
	"github.com/pulse-xyz/go-pulse/dispersion"
	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/modes"
	"github.com/pulse-xyz/go-pulse/nonlinear"
	"github.com/pulse-xyz/go-pulse/propagation"
	"github.com/pulse-xyz/go-pulse/spectral"
	"github.com/pulse-xyz/go-pulse/stats"
)

// Statistics functors must plug straight into the problem definition.
var _ propagation.StatsFunc = stats.Compose()

// flatOperator serves a fixed operator at every position.
type flatOperator struct {
	rows [][]complex128
}

func (f flatOperator) Operator(float64) ([][]complex128, error) { return f.rows, nil }

func zeroOperator(g *grid.Grid, modeCount int) flatOperator {
	rows := make([][]complex128, modeCount)
	for m := range rows {
		rows[m] = make([]complex128, g.SpecLen())
	}
	return flatOperator{rows: rows}
}

func envelopeGrid(t *testing.T, zmax float64) *grid.Grid {
	t.Helper()
	w0 := 2 * math.Pi * 299792458.0 / 800e-9
	g, err := grid.NewEnvelope(zmax, 800e-9, 0.3*w0, 1.7*w0, 400e-15, 512)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func gaussianInitial(t *testing.T, g *grid.Grid, plan *spectral.Plan, amp, tau float64) [][]complex128 {
	t.Helper()
	trace := make([]complex128, g.Nf)
	for i, tt := range g.Tf {
		x := tt / tau
		trace[i] = complex(amp*math.Exp(-x*x/2), 0)
	}
	spec := make([]complex128, g.SpecLen())
	if err := plan.Forward(trace, spec); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	return [][]complex128{spec}
}

func he11(t *testing.T) *modes.Mode {
	t.Helper()
	md, err := modes.New(modes.HE, 1, 1, 50e-6, 1.45, medium.Argon, medium.ConstantPressure(1.0), modes.Full)
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	return md
}

func TestLinearOnlyMatchesExactExponential(t *testing.T) {
	g := envelopeGrid(t, 1.0)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 1e9, 15e-15)

	// Modest per-sample loss and phase; the stepper applies the operator
	// as an exact exponential so the result must match exp(L*zmax).
	rows := [][]complex128{make([]complex128, g.SpecLen())}
	for j := range rows[0] {
		rows[0][j] = complex(-0.2*float64(j%7), 3*float64(j%11))
	}

	sol, err := propagation.Solve(&propagation.Problem{
		Grid:    g,
		Initial: initial,
		Linear:  flatOperator{rows: rows},
	}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	for j, u0 := range initial[0] {
		want := u0 * cmplx.Exp(rows[0][j]*complex(g.Zmax, 0))
		got := sol.FinalField[0][j]
		if d := cmplx.Abs(got - want); d > 1e-12*(1+cmplx.Abs(want)) {
			t.Fatalf("sample %d: got %v, want %v (|diff|=%g)", j, got, want, d)
		}
	}
	if sol.Rejected != 0 {
		t.Errorf("linear run rejected %d steps, want 0", sol.Rejected)
	}
}

func TestKerrOnlyConservesEnergy(t *testing.T) {
	g := envelopeGrid(t, 0.05)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 5e10, 15e-15)

	agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
	norm, err := coupling.NewModeAveraged(g, he11(t))
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}

	opts := propagation.DefaultOptions()
	opts.Reltol = 1e-8
	sol, err := propagation.Solve(&propagation.Problem{
		Grid:       g,
		Initial:    initial,
		Linear:     zeroOperator(g, 1),
		Nonlinear:  agg,
		Normalizer: norm,
	}, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	e0 := spectral.SpectralEnergy(g, initial[0])
	e1 := spectral.SpectralEnergy(g, sol.FinalField[0])
	if rel := math.Abs(e1-e0) / e0; rel > 1e-6 {
		t.Errorf("self-phase modulation changed energy by %g relative, want < 1e-6", rel)
	}
	if sol.Steps == 0 {
		t.Error("expected at least one accepted step")
	}
}

func TestTighterToleranceTakesMoreSteps(t *testing.T) {
	run := func(reltol float64) *propagation.Solution {
		g := envelopeGrid(t, 0.1)
		plan := spectral.NewPlan(g)
		initial := gaussianInitial(t, g, plan, 7e10, 15e-15)
		agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
		norm, err := coupling.NewModeAveraged(g, he11(t))
		if err != nil {
			t.Fatalf("NewModeAveraged: %v", err)
		}
		opts := propagation.DefaultOptions()
		opts.Reltol = reltol
		opts.InitialStep = g.Zmax // force the controller to find the scale
		sol, err := propagation.Solve(&propagation.Problem{
			Grid:       g,
			Initial:    initial,
			Linear:     zeroOperator(g, 1),
			Nonlinear:  agg,
			Normalizer: norm,
		}, opts)
		if err != nil {
			t.Fatalf("Solve(reltol=%g): %v", reltol, err)
		}
		return sol
	}

	loose := run(1e-6)
	tight := run(1e-8)
	if tight.Steps <= loose.Steps {
		t.Errorf("reltol 1e-8 took %d steps, reltol 1e-6 took %d; tighter tolerance must step more",
			tight.Steps, loose.Steps)
	}
	if loose.Rejected == 0 {
		t.Error("an oversized initial step should be rejected at least once")
	}
}

func TestHalvedToleranceShrinksStepByFourthRoot(t *testing.T) {
	run := func(reltol float64) *propagation.Solution {
		g := envelopeGrid(t, 0.1)
		plan := spectral.NewPlan(g)
		initial := gaussianInitial(t, g, plan, 7e10, 15e-15)
		agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
		norm, err := coupling.NewModeAveraged(g, he11(t))
		if err != nil {
			t.Fatalf("NewModeAveraged: %v", err)
		}
		opts := propagation.DefaultOptions()
		opts.Reltol = reltol
		sol, err := propagation.Solve(&propagation.Problem{
			Grid:       g,
			Initial:    initial,
			Linear:     zeroOperator(g, 1),
			Nonlinear:  agg,
			Normalizer: norm,
		}, opts)
		if err != nil {
			t.Fatalf("Solve(reltol=%g): %v", reltol, err)
		}
		return sol
	}

	// A 4th-order local truncation error scales as h^5, so each halving
	// of the tolerance shrinks the accepted step, and grows the step
	// count, by a factor approaching 2^(1/4). The absolute term of the
	// error norm and start-up transients damp the measured ratio a little
	// below the ideal.
	counts := []int{run(4e-8).Steps, run(2e-8).Steps, run(1e-8).Steps}
	want := math.Pow(2, 0.25)
	for i := 1; i < len(counts); i++ {
		if counts[i] <= counts[i-1] {
			t.Fatalf("step counts %v must grow with every tolerance halving", counts)
		}
		ratio := float64(counts[i]) / float64(counts[i-1])
		if ratio < 0.85*want || ratio > 1.15*want {
			t.Errorf("halving #%d grew the step count by %.4f, want within [%.4f, %.4f] of 2^(1/4)=%.4f",
				i, ratio, 0.85*want, 1.15*want, want)
		}
	}
}

func TestSnapshotsAtRequestedPositions(t *testing.T) {
	g := envelopeGrid(t, 0.05)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 5e10, 15e-15)
	agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
	norm, err := coupling.NewModeAveraged(g, he11(t))
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}

	saveAt := []float64{0, 0.0125, 0.025, 0.0375, 0.05}
	sol, err := propagation.Solve(&propagation.Problem{
		Grid:       g,
		Initial:    initial,
		Linear:     zeroOperator(g, 1),
		Nonlinear:  agg,
		Normalizer: norm,
		SaveAt:     saveAt,
		Stats:      stats.Energy(g),
	}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if len(sol.Snapshots) != len(saveAt) {
		t.Fatalf("got %d snapshots, want %d", len(sol.Snapshots), len(saveAt))
	}
	for i, snap := range sol.Snapshots {
		if snap.Z != saveAt[i] {
			t.Errorf("snapshot %d at z=%g, want %g", i, snap.Z, saveAt[i])
		}
		if snap.Stats == nil || snap.Stats["energy"] <= 0 {
			t.Errorf("snapshot %d missing energy stat", i)
		}
	}

	// The z=0 snapshot is the initial condition, deep-copied.
	for j, v := range sol.Snapshots[0].Field[0] {
		if v != initial[0][j] {
			t.Fatalf("z=0 snapshot differs from the initial field at %d", j)
		}
	}
	if &sol.Snapshots[0].Field[0][0] == &initial[0][0] {
		t.Error("snapshot must not alias the caller's field")
	}
}

func TestGainBlowupReportsDivergence(t *testing.T) {
	g := envelopeGrid(t, 1.0)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 1e9, 15e-15)

	rows := [][]complex128{make([]complex128, g.SpecLen())}
	for j := range rows[0] {
		rows[0][j] = complex(1e6, 0) // runaway gain overflows the exponential
	}

	_, err := propagation.Solve(&propagation.Problem{
		Grid:    g,
		Initial: initial,
		Linear:  flatOperator{rows: rows},
	}, nil)
	var diverged *propagation.NumericalDivergenceError
	if !errors.As(err, &diverged) {
		t.Fatalf("got %v, want NumericalDivergenceError", err)
	}
	if diverged.Z <= 0 {
		t.Errorf("divergence position %g, want > 0", diverged.Z)
	}
}

func TestStepFloorReportsUnderflow(t *testing.T) {
	g := envelopeGrid(t, 0.1)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 1e11, 15e-15)
	agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
	norm, err := coupling.NewModeAveraged(g, he11(t))
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}

	opts := propagation.DefaultOptions()
	opts.Reltol = 1e-12
	opts.Abstol = 1e-10
	opts.InitialStep = 0.1
	opts.MinStep = 0.02 // no step this large can meet the tolerance

	_, err = propagation.Solve(&propagation.Problem{
		Grid:       g,
		Initial:    initial,
		Linear:     zeroOperator(g, 1),
		Nonlinear:  agg,
		Normalizer: norm,
	}, opts)
	var underflow *propagation.StepSizeUnderflowError
	if !errors.As(err, &underflow) {
		t.Fatalf("got %v, want StepSizeUnderflowError", err)
	}
	if underflow.Step >= opts.MinStep {
		t.Errorf("reported step %g, want below floor %g", underflow.Step, opts.MinStep)
	}
}

func TestConfigurationErrors(t *testing.T) {
	g := envelopeGrid(t, 0.1)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 1e9, 15e-15)
	lin := zeroOperator(g, 1)

	cases := []struct {
		name string
		prob *propagation.Problem
		opts *propagation.Options
	}{
		{"nil grid", &propagation.Problem{Initial: initial, Linear: lin}, nil},
		{"nil linear", &propagation.Problem{Grid: g, Initial: initial}, nil},
		{"no modes", &propagation.Problem{Grid: g, Linear: lin}, nil},
		{"short row", &propagation.Problem{Grid: g, Initial: [][]complex128{make([]complex128, 3)}, Linear: lin}, nil},
		{"save position outside fibre", &propagation.Problem{Grid: g, Initial: initial, Linear: lin, SaveAt: []float64{0.2}}, nil},
		{"bad safety", &propagation.Problem{Grid: g, Initial: initial, Linear: lin},
			&propagation.Options{Reltol: 1e-6, Safety: 1.5, MaxGrowth: 5, MinShrink: 0.1}},
		{"zero tolerances", &propagation.Problem{Grid: g, Initial: initial, Linear: lin},
			&propagation.Options{Safety: 0.9, MaxGrowth: 5, MinShrink: 0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := propagation.Solve(tc.prob, tc.opts)
			var cfg *propagation.ConfigurationError
			if !errors.As(err, &cfg) {
				t.Fatalf("got %v, want ConfigurationError", err)
			}
		})
	}
}

func TestEndToEndSpectralBroadening(t *testing.T) {
	g := envelopeGrid(t, 0.05)
	plan := spectral.NewPlan(g)
	initial := gaussianInitial(t, g, plan, 5e10, 15e-15)
	md := he11(t)

	builder, err := dispersion.NewBuilder(g, []*modes.Mode{md})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	lin, err := dispersion.NewConstant(builder)
	if err != nil {
		t.Fatalf("NewConstant: %v", err)
	}
	agg := nonlinear.NewAggregator(g, plan, nonlinear.NewKerr(g, medium.Argon, medium.ConstantPressure(1.0)))
	norm, err := coupling.NewModeAveraged(g, md)
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}

	sol, err := propagation.Solve(&propagation.Problem{
		Grid:       g,
		Initial:    initial,
		Linear:     lin,
		Nonlinear:  agg,
		Normalizer: norm,
		SaveAt:     []float64{0, 0.0125, 0.025, 0.0375, 0.05},
		Stats:      stats.Compose(stats.Energy(g), stats.SpectralWidth(g)),
	}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	widths := make([]float64, len(sol.Snapshots))
	for i, snap := range sol.Snapshots {
		widths[i] = snap.Stats["spectral_rms_width"]
	}
	for i := 1; i < len(widths); i++ {
		if widths[i] < widths[i-1]*(1-1e-9) {
			t.Errorf("spectral width shrank between snapshots %d and %d: %g -> %g",
				i-1, i, widths[i-1], widths[i])
		}
	}
	if widths[len(widths)-1] < 1.01*widths[0] {
		t.Errorf("no visible broadening: %g -> %g", widths[0], widths[len(widths)-1])
	}

	// Waveguide loss only removes energy.
	e0 := sol.Snapshots[0].Stats["energy"]
	e1 := sol.Snapshots[len(sol.Snapshots)-1].Stats["energy"]
	if e1 > e0*(1+1e-9) {
		t.Errorf("energy grew along the fibre: %g -> %g", e0, e1)
	}
}
