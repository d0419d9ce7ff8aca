package results

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/propagation"
)

// Builder helps construct Results from run output
type Builder struct {
	results Results
}

// NewBuilder creates a new results builder with a fresh run ID
func NewBuilder() *Builder {
	return &Builder{
		results: Results{
			Version: SchemaVersion,
			Metadata: Metadata{
				RunID:     uuid.NewString(),
				Timestamp: time.Now(),
				Solver:    "rk4ip",
			},
		},
	}
}

// WithFibre sets the waveguide description
func (b *Builder) WithFibre(f Fibre) *Builder {
	b.results.Fibre = f
	return b
}

// WithPulse sets the input pulse description
func (b *Builder) WithPulse(p Pulse) *Builder {
	b.results.Pulse = p
	return b
}

// WithGrid records the discretization
func (b *Builder) WithGrid(g *grid.Grid) *Builder {
	b.results.Simulation.Samples = g.N
	b.results.Simulation.TimeWindow = g.T[len(g.T)-1] - g.T[0] + g.Dt
	b.results.Simulation.Band = [2]float64{g.Wmin, g.Wmax}
	return b
}

// WithOptions records the stepper configuration
func (b *Builder) WithOptions(opts *propagation.Options) *Builder {
	if opts != nil {
		b.results.Simulation.Options = &SolverOptions{
			InitialStep: opts.InitialStep,
			MinStep:     opts.MinStep,
			MaxStep:     opts.MaxStep,
			Abstol:      opts.Abstol,
			Reltol:      opts.Reltol,
		}
	}
	return b
}

// WithSolution processes integrator output. The final spectrum is
// downsampled to at most maxFreqPoints columns per mode; pass 0 to keep
// the full resolution.
func (b *Builder) WithSolution(sol *propagation.Solution, g *grid.Grid, computeTime float64, maxFreqPoints int) *Builder {
	b.results.Metadata.Status = "success"
	b.results.Metadata.ComputeTime = computeTime

	b.results.Results.Summary = Summary{
		Snapshots: len(sol.Snapshots),
		Steps:     sol.Steps,
		Rejected:  sol.Rejected,
		FinalZ:    g.Zmax,
	}

	series := Series{Observables: make(map[string][]float64)}
	for _, snap := range sol.Snapshots {
		series.Z = append(series.Z, snap.Z)
	}
	for i, snap := range sol.Snapshots {
		for key, val := range snap.Stats {
			col, ok := series.Observables[key]
			if !ok {
				col = make([]float64, len(sol.Snapshots))
			}
			col[i] = val
			series.Observables[key] = col
		}
	}
	b.results.Results.Series = series

	if sol.FinalField != nil {
		b.results.Results.Final = spectrumOf(g, sol.FinalField, maxFreqPoints)
	}
	return b
}

// WithError sets error status
func (b *Builder) WithError(err error) *Builder {
	b.results.Metadata.Status = "error"
	b.results.Metadata.Error = err.Error()
	return b
}

// Build returns the constructed Results
func (b *Builder) Build() *Results {
	return &b.results
}

// spectrumOf converts a spectral field state into intensity rows
func spectrumOf(g *grid.Grid, field [][]complex128, maxFreqPoints int) *Spectrum {
	n := g.SpecLen()
	keep := pickIndices(n, maxFreqPoints)

	sp := &Spectrum{
		W:         make([]float64, len(keep)),
		Intensity: make([][]float64, len(field)),
	}
	for c, j := range keep {
		sp.W[c] = g.W[j]
	}
	for m, row := range field {
		sp.Intensity[m] = make([]float64, len(keep))
		for c, j := range keep {
			v := row[j]
			sp.Intensity[m][c] = real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return sp
}

// pickIndices selects up to target evenly spaced indices, always keeping
// the first and last
func pickIndices(n, target int) []int {
	if target <= 0 || n <= target {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, target)
	step := float64(n-1) / float64(target-1)
	for i := range idx {
		idx[i] = int(math.Round(float64(i) * step))
	}
	idx[target-1] = n - 1
	return idx
}
