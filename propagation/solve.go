// Package propagation integrates the spectral-domain pulse equation along
// the fibre with an interaction-picture fourth-order Runge-Kutta stepper.
// The linear operator is applied as an exact elementwise complex
// exponential over each half step, the nonlinear term is sampled at four
// stages, and an embedded third-order solution drives the adaptive step
// controller. A fifth nonlinear evaluation at the accepted endpoint both
// closes the error estimate and seeds the next step's first stage.
package propagation

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/cmplxs"

	"github.com/pulse-xyz/go-pulse/grid"
)

// OperatorSource yields the linear operator rows, one per mode, on the
// coarse spectral axis. The dispersion package provides cached and
// per-step implementations.
type OperatorSource interface {
	Operator(z float64) ([][]complex128, error)
}

// Nonlinear evaluates the normalization-free nonlinear polarization
// spectrum for a field state, overwriting dst. The nonlinear package's
// Aggregator implements it; a nil term means purely linear propagation.
type Nonlinear interface {
	Evaluate(z float64, field, dst [][]complex128) error
}

// Normalizer rescales a polarization spectrum into the equation's
// right-hand side, in place. The coupling package provides mode-averaged
// and full-modal variants; nil applies no scaling.
type Normalizer interface {
	Apply(z float64, pol [][]complex128)
}

// StatsFunc reduces a field state to named scalar observables recorded
// with each snapshot.
type StatsFunc func(z float64, field [][]complex128) map[string]float64

// Problem is one propagation run: the grid, the initial spectral field
// indexed [mode][frequency], the three physics terms and the positions at
// which the solution is recorded.
type Problem struct {
	Grid    *grid.Grid
	Initial [][]complex128

	Linear     OperatorSource
	Nonlinear  Nonlinear
	Normalizer Normalizer

	// SaveAt lists the positions, in metres, at which snapshots are
	// recorded. Values are sorted internally; each must lie in
	// [0, Grid.Zmax]. Empty records no intermediate snapshots; the final
	// state is always available as Solution.FinalField.
	SaveAt []float64

	// Stats, when set, is evaluated on every recorded snapshot.
	Stats StatsFunc
}

// Snapshot is the field state at one recorded position. Field is a deep
// copy owned by the snapshot.
type Snapshot struct {
	Z     float64
	Field [][]complex128
	Stats map[string]float64
}

// Solution collects the recorded snapshots and the stepper's counters.
type Solution struct {
	Snapshots []Snapshot

	// FinalField is the state at Grid.Zmax.
	FinalField [][]complex128

	Steps    int // accepted steps
	Rejected int // rejected trials
}

// Solve integrates the problem from z=0 to the grid's Zmax. opts may be
// nil, which selects DefaultOptions. Configuration defects return a
// *ConfigurationError before any stepping; mid-run failures return
// *NumericalDivergenceError or *StepSizeUnderflowError.
func Solve(prob *Problem, opts *Options) (*Solution, error) {
	if opts == nil {
		opts = DefaultOptions()
	} else {
		copied := *opts
		opts = &copied
	}
	if err := validate(prob); err != nil {
		return nil, err
	}
	if err := opts.resolve(prob.Grid.Zmax); err != nil {
		return nil, err
	}

	g := prob.Grid
	modes := len(prob.Initial)
	spec := g.SpecLen()
	zmax := g.Zmax

	saveAt := append([]float64(nil), prob.SaveAt...)
	sort.Float64s(saveAt)
	for _, zq := range saveAt {
		if zq < 0 || zq > zmax {
			return nil, &ConfigurationError{
				Component: "save positions",
				Detail:    fmt.Sprintf("position %g m outside [0, %g]", zq, zmax),
			}
		}
	}

	st := newState(modes, spec)
	deepCopyInto(st.u, prob.Initial)

	sol := &Solution{}
	next := 0
	for next < len(saveAt) && saveAt[next] == 0 {
		record(sol, prob, 0, st.u)
		next++
	}

	z := 0.0
	h := opts.InitialStep
	haveK1 := false
	attempts := 0

	for z < zmax {
		attempts++
		if attempts > opts.MaxSteps {
			return nil, fmt.Errorf("propagation: step budget of %d exhausted at z=%g m", opts.MaxSteps, z)
		}
		if zmax-z < h {
			h = zmax - z
		}

		// Interaction picture anchored at the step midpoint: one exact
		// half-step exponential serves both halves of the step.
		op, err := prob.Linear.Operator(z + h/2)
		if err != nil {
			return nil, err
		}
		if len(op) != modes {
			return nil, &ConfigurationError{
				Component: "linear operator",
				Detail:    fmt.Sprintf("%d rows for %d modes", len(op), modes),
			}
		}
		hh := complex(h/2, 0)
		for m := 0; m < modes; m++ {
			for j, l := range op[m] {
				st.expHalf[m][j] = cmplx.Exp(l * hh)
			}
		}

		if !haveK1 {
			if err := evalRHS(prob, z, st.u, st.k1); err != nil {
				return nil, err
			}
			haveK1 = true
		}

		// Stage values in the midpoint frame. st.k1 holds the lab-frame
		// derivative at z; the frame change multiplies it by expHalf.
		for m := 0; m < modes; m++ {
			cmplxs.MulTo(st.uI[m], st.u[m], st.expHalf[m])
			cmplxs.MulTo(st.k1f[m], st.k1[m], st.expHalf[m])

			copy(st.stage[m], st.uI[m])
			cmplxs.AddScaled(st.stage[m], hh, st.k1f[m])
		}
		if err := evalRHS(prob, z+h/2, st.stage, st.k2); err != nil {
			return nil, err
		}

		for m := 0; m < modes; m++ {
			copy(st.stage[m], st.uI[m])
			cmplxs.AddScaled(st.stage[m], hh, st.k2[m])
		}
		if err := evalRHS(prob, z+h/2, st.stage, st.k3); err != nil {
			return nil, err
		}

		for m := 0; m < modes; m++ {
			copy(st.stage[m], st.uI[m])
			cmplxs.AddScaled(st.stage[m], complex(h, 0), st.k3[m])
			cmplxs.Mul(st.stage[m], st.expHalf[m])
		}
		if err := evalRHS(prob, z+h, st.stage, st.k4); err != nil {
			return nil, err
		}

		// Fourth-order combination, transformed back to the lab frame at
		// z+h. The endpoint stage k4 is already in that frame.
		h6 := complex(h/6, 0)
		for m := 0; m < modes; m++ {
			copy(st.unew[m], st.uI[m])
			cmplxs.AddScaled(st.unew[m], h6, st.k1f[m])
			cmplxs.AddScaled(st.unew[m], 2*h6, st.k2[m])
			cmplxs.AddScaled(st.unew[m], 2*h6, st.k3[m])
			cmplxs.Mul(st.unew[m], st.expHalf[m])
			cmplxs.AddScaled(st.unew[m], h6, st.k4[m])
		}

		// Embedded third-order estimate: the derivative at the candidate
		// endpoint against the endpoint stage, err = h/10 * (k4 - k5).
		if err := evalRHS(prob, z+h, st.unew, st.k5); err != nil {
			return nil, err
		}
		errnorm := 0.0
		for m := 0; m < modes; m++ {
			for j := range st.unew[m] {
				e := h / 10 * cmplx.Abs(st.k4[m][j]-st.k5[m][j])
				scale := opts.Abstol + opts.Reltol*math.Max(cmplx.Abs(st.u[m][j]), cmplx.Abs(st.unew[m][j]))
				if scale == 0 {
					continue
				}
				if r := e / scale; r > errnorm {
					errnorm = r
				}
			}
		}

		if math.IsNaN(errnorm) || errnorm > 1 {
			sol.Rejected++
			opts.logf("propagation: reject z=%g h=%g errnorm=%g", z, h, errnorm)
			fac := opts.MinShrink
			if !math.IsNaN(errnorm) && errnorm > 0 {
				fac = opts.Safety * math.Pow(errnorm, -0.25)
				fac = math.Max(fac, opts.MinShrink)
				fac = math.Min(fac, 0.9)
			}
			h *= fac
			if h < opts.MinStep {
				return nil, &StepSizeUnderflowError{Z: z, Step: h}
			}
			continue
		}

		// Accept. The endpoint derivative k5 seeds the next step's first
		// stage, so each accepted step costs four fresh evaluations.
		znew := z + h
		if zmax-znew <= 1e-12*zmax {
			znew = zmax
		}
		if hasNonFinite(st.unew) {
			return nil, &NumericalDivergenceError{Z: znew}
		}
		sol.Steps++
		opts.logf("propagation: accept z=%g h=%g errnorm=%g", znew, h, errnorm)

		for next < len(saveAt) && saveAt[next] <= znew {
			frac := 0.0
			if znew > z {
				frac = (saveAt[next] - z) / (znew - z)
			}
			interpInto(st.interp, st.u, st.unew, frac)
			record(sol, prob, saveAt[next], st.interp)
			next++
		}

		st.u, st.unew = st.unew, st.u
		st.k1, st.k5 = st.k5, st.k1
		z = znew

		fac := opts.MaxGrowth
		if errnorm > 0 {
			fac = opts.Safety * math.Pow(errnorm, -0.25)
			fac = math.Max(fac, opts.MinShrink)
			fac = math.Min(fac, opts.MaxGrowth)
		}
		h = math.Min(h*fac, opts.MaxStep)
	}

	sol.FinalField = deepCopy(st.u)
	return sol, nil
}

// state holds every working buffer of one run, allocated once.
type state struct {
	u, unew [][]complex128
	uI      [][]complex128
	expHalf [][]complex128
	stage   [][]complex128
	interp  [][]complex128

	k1, k1f, k2, k3, k4, k5 [][]complex128
}

func newState(modes, spec int) *state {
	alloc := func() [][]complex128 {
		f := make([][]complex128, modes)
		for m := range f {
			f[m] = make([]complex128, spec)
		}
		return f
	}
	return &state{
		u: alloc(), unew: alloc(), uI: alloc(), expHalf: alloc(),
		stage: alloc(), interp: alloc(),
		k1: alloc(), k1f: alloc(), k2: alloc(), k3: alloc(), k4: alloc(), k5: alloc(),
	}
}

func validate(prob *Problem) *ConfigurationError {
	if prob == nil {
		return &ConfigurationError{Component: "problem", Detail: "must not be nil"}
	}
	if prob.Grid == nil {
		return &ConfigurationError{Component: "grid", Detail: "must not be nil"}
	}
	if prob.Linear == nil {
		return &ConfigurationError{Component: "linear operator", Detail: "must not be nil"}
	}
	if len(prob.Initial) == 0 {
		return &ConfigurationError{Component: "initial field", Detail: "must carry at least one mode"}
	}
	spec := prob.Grid.SpecLen()
	for m, row := range prob.Initial {
		if len(row) != spec {
			return &ConfigurationError{
				Component: "initial field",
				Detail:    fmt.Sprintf("mode %d has %d samples, want %d", m, len(row), spec),
			}
		}
	}
	return nil
}

func evalRHS(prob *Problem, z float64, field, dst [][]complex128) error {
	if prob.Nonlinear == nil {
		for m := range dst {
			for j := range dst[m] {
				dst[m][j] = 0
			}
		}
		return nil
	}
	if err := prob.Nonlinear.Evaluate(z, field, dst); err != nil {
		return err
	}
	if prob.Normalizer != nil {
		prob.Normalizer.Apply(z, dst)
	}
	return nil
}

func record(sol *Solution, prob *Problem, z float64, field [][]complex128) {
	snap := Snapshot{Z: z, Field: deepCopy(field)}
	if prob.Stats != nil {
		snap.Stats = prob.Stats(z, field)
	}
	sol.Snapshots = append(sol.Snapshots, snap)
}

func interpInto(dst, a, b [][]complex128, frac float64) {
	f := complex(frac, 0)
	for m := range dst {
		for j := range dst[m] {
			dst[m][j] = a[m][j] + f*(b[m][j]-a[m][j])
		}
	}
}

func hasNonFinite(field [][]complex128) bool {
	for m := range field {
		for _, v := range field[m] {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return true
			}
		}
	}
	return false
}

func deepCopy(field [][]complex128) [][]complex128 {
	out := make([][]complex128, len(field))
	for m := range field {
		out[m] = append([]complex128(nil), field[m]...)
	}
	return out
}

func deepCopyInto(dst, src [][]complex128) {
	for m := range src {
		copy(dst[m], src[m])
	}
}
