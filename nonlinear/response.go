// Package nonlinear evaluates the medium's nonlinear polarization response
// on the fine time grid. Individual response entries (instantaneous Kerr,
// ionization-driven plasma) are opaque functors owning their own scratch
// buffers; an Aggregator holds an ordered, fixed list of entries and sums
// their contributions. Entries are additive and independent: no cross-term
// coupling exists between them.
package nonlinear

import (
	"fmt"
	"math"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/phys"
	"github.com/pulse-xyz/go-pulse/spectral"
)

// Response is one polarization contribution. Evaluate reads the fine-grid
// time-domain field at position z and writes its contribution to dst
// (overwriting, not accumulating). Implementations may keep private scratch
// sized to the fine axis and reuse it across calls; they must not retain
// references to field or dst.
type Response interface {
	Evaluate(z float64, field []complex128, dst []complex128) error
}

// Kerr is the instantaneous third-order response. On real-field grids the
// polarization is eps0*chi3*E^3; on envelope grids the self-phase
// modulation term eps0*(3/4)*chi3*|E|^2 E.
type Kerr struct {
	kind grid.Kind
	chi3 float64
	rho  medium.Density
}

// NewKerr builds a Kerr entry for the given gas and fill profile.
func NewKerr(g *grid.Grid, gas medium.Gas, rho medium.Density) *Kerr {
	return &Kerr{kind: g.Kind, chi3: gas.Chi3, rho: rho}
}

// Evaluate implements Response.
func (k *Kerr) Evaluate(z float64, field, dst []complex128) error {
	if len(dst) != len(field) {
		return fmt.Errorf("nonlinear: kerr destination length %d, want %d", len(dst), len(field))
	}
	fac := phys.Eps0 * k.chi3 * k.rho(z) / phys.RefDensity
	switch k.kind {
	case grid.RealField:
		for i, v := range field {
			e := real(v)
			dst[i] = complex(fac*e*e*e, 0)
		}
	default: // Envelope
		fac *= 0.75
		for i, v := range field {
			i2 := real(v)*real(v) + imag(v)*imag(v)
			dst[i] = complex(fac*i2, 0) * v
		}
	}
	return nil
}

// Plasma is the ionization-driven free-electron response. Each evaluation
// recomputes the free-electron density from zero at the local window start
// by a forward cumulative trapezoidal integral of the ionization rate; the
// density trace is monotone non-decreasing by construction. The returned
// contribution combines the free-current phase term with the ionization
// energy-loss term.
type Plasma struct {
	kind grid.Kind
	rate medium.IonizationRate
	ip   float64
	rho  medium.Density
	dt   float64

	// Entry-local scratch, sized to the fine time axis at construction.
	rateBuf []float64
	sumBuf  []float64
	dens    []float64
	prod    []complex128
	current []complex128
}

// NewPlasma builds a plasma entry with the given ionization-rate model and
// potential ip [J].
func NewPlasma(g *grid.Grid, rate medium.IonizationRate, ip float64, rho medium.Density) *Plasma {
	return &Plasma{
		kind:    g.Kind,
		rate:    rate,
		ip:      ip,
		rho:     rho,
		dt:      g.Dtf,
		rateBuf: make([]float64, g.Nf),
		sumBuf:  make([]float64, g.Nf),
		dens:    make([]float64, g.Nf),
		prod:    make([]complex128, g.Nf),
		current: make([]complex128, g.Nf),
	}
}

// Density returns the free-electron density trace from the most recent
// evaluation. The slice aliases internal scratch and is only valid until
// the next call.
func (p *Plasma) Density() []float64 { return p.dens }

// Evaluate implements Response.
func (p *Plasma) Evaluate(z float64, field, dst []complex128) error {
	if len(field) != len(p.rateBuf) {
		return fmt.Errorf("nonlinear: plasma field length %d, want %d", len(field), len(p.rateBuf))
	}
	if len(dst) != len(field) {
		return fmt.Errorf("nonlinear: plasma destination length %d, want %d", len(dst), len(field))
	}

	rhoAt := p.rho(z)
	for i, v := range field {
		p.rateBuf[i] = p.rate(fieldStrength(p.kind, v))
	}

	// Free-electron density: rho_e = rho_at * (1 - exp(-int W dt)).
	Cumtrapz(p.sumBuf, p.rateBuf, p.dt)
	for i, s := range p.sumBuf {
		p.dens[i] = rhoAt * (1 - math.Exp(-s))
	}

	// Phase term: J_free = (e^2/m_e) int rho_e E dt, integrated once more
	// to a polarization-like quantity.
	for i, v := range field {
		p.prod[i] = complex(p.dens[i], 0) * v
	}
	CumtrapzC(p.current, p.prod, p.dt)
	q := phys.ElectronCharge * phys.ElectronCharge / phys.ElectronMass
	for i := range p.current {
		p.current[i] *= complex(q, 0)
	}
	CumtrapzC(dst, p.current, p.dt)

	// Loss term: a current in phase with the field draining the
	// ionization energy, J_loss * E = Ip * d(rho_e)/dt.
	for i, v := range field {
		e2 := real(v)*real(v) + imag(v)*imag(v)
		if e2 < 1 {
			p.prod[i] = 0
			continue
		}
		drho := p.rateBuf[i] * (rhoAt - p.dens[i])
		p.prod[i] = complex(p.ip*drho/e2, 0) * v
	}
	CumtrapzC(p.current, p.prod, p.dt)
	for i := range dst {
		dst[i] += p.current[i]
	}
	return nil
}

func fieldStrength(kind grid.Kind, v complex128) float64 {
	if kind == grid.RealField {
		return math.Abs(real(v))
	}
	return math.Hypot(real(v), imag(v))
}

// Aggregator owns the ordered response list and the transforms between the
// coarse spectral state and the fine time grid. It implements the
// propagation core's nonlinear term: with no entries it returns an exactly
// zero spectrum, which reduces the solver to linear propagation.
type Aggregator struct {
	g       *grid.Grid
	plan    *spectral.Plan
	entries []Response

	timeBuf []complex128
	polBuf  []complex128
	sumBuf  []complex128
}

// NewAggregator binds the response entries to a grid and its transform
// plan. The entry order is fixed for the lifetime of the aggregator;
// contributions are additive so the order does not affect the sum.
func NewAggregator(g *grid.Grid, plan *spectral.Plan, entries ...Response) *Aggregator {
	return &Aggregator{
		g:       g,
		plan:    plan,
		entries: entries,
		timeBuf: make([]complex128, g.Nf),
		polBuf:  make([]complex128, g.Nf),
		sumBuf:  make([]complex128, g.Nf),
	}
}

// Evaluate computes the summed polarization spectrum for every mode of the
// field state. field and dst are indexed [mode][frequency]; dst is
// overwritten.
func (a *Aggregator) Evaluate(z float64, field, dst [][]complex128) error {
	if len(dst) != len(field) {
		return fmt.Errorf("nonlinear: destination has %d modes, want %d", len(dst), len(field))
	}
	for m := range field {
		if len(a.entries) == 0 {
			for j := range dst[m] {
				dst[m][j] = 0
			}
			continue
		}
		if err := a.plan.Inverse(field[m], a.timeBuf); err != nil {
			return err
		}
		for i := range a.sumBuf {
			a.sumBuf[i] = 0
		}
		for _, entry := range a.entries {
			if err := entry.Evaluate(z, a.timeBuf, a.polBuf); err != nil {
				return err
			}
			for i := range a.sumBuf {
				a.sumBuf[i] += a.polBuf[i]
			}
		}
		// Apodize before transforming back so edge artifacts never enter
		// the spectral state.
		for i := range a.sumBuf {
			a.sumBuf[i] *= complex(a.g.TimeWinFine[i], 0)
		}
		if err := a.plan.Forward(a.sumBuf, dst[m]); err != nil {
			return err
		}
		for j := range dst[m] {
			dst[m][j] *= complex(a.g.FreqWin[j], 0)
		}
	}
	return nil
}

// Entries returns the number of response entries.
func (a *Aggregator) Entries() int { return len(a.entries) }
