// Package dispersion builds the per-mode linear propagation operator: the
// complex propagation-constant difference beta(w) - beta(w0) - beta1*(w-w0)
// with the waveguide loss on the real axis. Removing the reference phase
// and group velocity keeps the dominant linear terms in the co-moving frame
// so the integrator's interaction picture stays well conditioned.
package dispersion

import (
	"fmt"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/modes"
	"github.com/pulse-xyz/go-pulse/phys"
)

// Source yields the linear operator for a given position. Implementations
// decide whether the operator is cached or rebuilt.
type Source interface {
	Operator(z float64) ([][]complex128, error)
}

// Builder computes operators for a fixed grid and mode set. No cross-mode
// linear coupling is modelled: each mode's propagation constant is
// independent.
type Builder struct {
	g   *grid.Grid
	set []*modes.Mode
}

// NewBuilder validates the mode set against the grid. An empty set or a
// nil mode is a configuration defect and fails here, never mid-run.
func NewBuilder(g *grid.Grid, set []*modes.Mode) (*Builder, error) {
	if g == nil {
		return nil, fmt.Errorf("dispersion: grid must not be nil")
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("dispersion: empty mode set")
	}
	for i, md := range set {
		if md == nil {
			return nil, fmt.Errorf("dispersion: mode %d is nil", i)
		}
	}
	return &Builder{g: g, set: set}, nil
}

// Modes returns the number of modes the builder serves.
func (b *Builder) Modes() int { return len(b.set) }

// Build allocates and fills a fresh operator for position z.
func (b *Builder) Build(z float64) ([][]complex128, error) {
	op := make([][]complex128, len(b.set))
	for m := range op {
		op[m] = make([]complex128, b.g.SpecLen())
	}
	if err := b.BuildInto(z, op); err != nil {
		return nil, err
	}
	return op, nil
}

// BuildInto fills dst, which must hold one row of SpecLen samples per mode.
// Samples outside the spectral pass-band are set to zero; the window
// removes any field content there, and the unphysical index values below
// cutoff must never reach the exponential.
func (b *Builder) BuildInto(z float64, dst [][]complex128) error {
	if len(dst) != len(b.set) {
		return fmt.Errorf("dispersion: operator has %d rows, want %d", len(dst), len(b.set))
	}
	for m, md := range b.set {
		row := dst[m]
		if len(row) != b.g.SpecLen() {
			return fmt.Errorf("dispersion: mode %d row length %d, want %d", m, len(row), b.g.SpecLen())
		}

		beta0 := beta(md, b.g.W0, z)
		// Group delay at the reference frequency by central difference.
		dw := b.g.Dw
		beta1 := (beta(md, b.g.W0+dw, z) - beta(md, b.g.W0-dw, z)) / (2 * dw)

		for j, w := range b.g.W {
			if b.g.FreqWin[j] == 0 {
				row[j] = 0
				continue
			}
			neff := md.Neff(w, z)
			bw := w / phys.C * real(neff)
			loss := w / phys.C * imag(neff)
			row[j] = complex(-loss, bw-beta0-beta1*(w-b.g.W0))
		}
	}
	return nil
}

func beta(md *modes.Mode, w, z float64) float64 {
	return w / phys.C * real(md.Neff(w, z))
}

// Constant caches the operator of a z-independent medium, built once.
type Constant struct {
	op [][]complex128
}

// NewConstant builds and caches the operator at z = 0.
func NewConstant(b *Builder) (*Constant, error) {
	op, err := b.Build(0)
	if err != nil {
		return nil, err
	}
	return &Constant{op: op}, nil
}

// Operator implements Source.
func (c *Constant) Operator(float64) ([][]complex128, error) { return c.op, nil }

// PerStep rebuilds the operator at every requested position, reusing one
// buffer. Use it for tapered cores or pressure gradients.
type PerStep struct {
	b  *Builder
	op [][]complex128
}

// NewPerStep wraps a builder for z-dependent media.
func NewPerStep(b *Builder) *PerStep {
	op := make([][]complex128, b.Modes())
	for m := range op {
		op[m] = make([]complex128, b.g.SpecLen())
	}
	return &PerStep{b: b, op: op}
}

// Operator implements Source. The returned slices are owned by the PerStep
// and overwritten on the next call.
func (p *PerStep) Operator(z float64) ([][]complex128, error) {
	if err := p.b.BuildInto(z, p.op); err != nil {
		return nil, err
	}
	return p.op, nil
}
