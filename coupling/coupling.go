// Package coupling scales raw nonlinear-polarization spectra into the
// right-hand-side term of the propagation equation. Two normalizations are
// provided: a mode-averaged factor for single-mode runs with a possibly
// z-dependent effective area, and a full-modal projection using overlap
// integrals of the transverse mode profiles. Both map zero spectra to zero
// spectra, so a linear-only configuration is unaffected by the choice.
package coupling

import (
	"fmt"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/modes"
	"github.com/pulse-xyz/go-pulse/phys"
)

// Normalizer rescales a polarization spectrum in place. pol is indexed
// [mode][frequency] on the coarse spectral axis.
type Normalizer interface {
	Apply(z float64, pol [][]complex128)
}

// ModeAveraged normalizes a single dominant mode. The spectral prefactor is
// i*w/(2 eps0 c n(w0)); a shrinking (tapered) effective area increases the
// nonlinear drive through the area ratio Aeff(0)/Aeff(z).
type ModeAveraged struct {
	mode *modes.Mode
	base []complex128 // i*w/(2 eps0 c n(w0)) per frequency sample
	a0   float64
}

// NewModeAveraged precomputes the per-frequency factors for the given mode.
func NewModeAveraged(g *grid.Grid, mode *modes.Mode) (*ModeAveraged, error) {
	if mode == nil {
		return nil, fmt.Errorf("coupling: mode must not be nil")
	}
	n0 := real(mode.Neff(g.W0, 0))
	base := make([]complex128, g.SpecLen())
	for j, w := range g.W {
		if w <= 0 {
			continue
		}
		base[j] = complex(0, w/(2*phys.Eps0*phys.C*n0))
	}
	return &ModeAveraged{mode: mode, base: base, a0: mode.Aeff(0)}, nil
}

// Apply implements Normalizer.
func (n *ModeAveraged) Apply(z float64, pol [][]complex128) {
	ratio := complex(n.a0/n.mode.Aeff(z), 0)
	for m := range pol {
		for j := range pol[m] {
			pol[m][j] *= n.base[j] * ratio
		}
	}
}

// FullModal projects the nonlinear polarization onto each mode of the set
// through overlap integrals of the transverse profiles against the
// intensity-weighted profile of the fundamental (first) mode. Overlap
// coefficients are fixed at construction by radial quadrature.
type FullModal struct {
	base    []complex128
	overlap []float64
}

// NewFullModal precomputes the per-mode coupling coefficients. The mode set
// must be non-empty and share one core geometry.
func NewFullModal(g *grid.Grid, set []*modes.Mode) (*FullModal, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("coupling: empty mode set")
	}
	n0 := real(set[0].Neff(g.W0, 0))
	base := make([]complex128, g.SpecLen())
	for j, w := range g.W {
		if w <= 0 {
			continue
		}
		base[j] = complex(0, w/(2*phys.Eps0*phys.C*n0))
	}

	overlap := make([]float64, len(set))
	for m, md := range set {
		overlap[m] = overlapCoefficient(set[0], md)
	}
	return &FullModal{base: base, overlap: overlap}, nil
}

// Apply implements Normalizer. pol must carry one row per mode of the set.
func (n *FullModal) Apply(z float64, pol [][]complex128) {
	for m := range pol {
		o := complex(n.overlap[min(m, len(n.overlap)-1)], 0)
		for j := range pol[m] {
			pol[m][j] *= n.base[j] * o
		}
	}
}

// Overlap returns the projection coefficient of mode m, normalized so the
// fundamental projects onto itself with coefficient 1.
func (n *FullModal) Overlap(m int) float64 { return n.overlap[m] }

// overlapCoefficient integrates F_ref^3 * F_m over the cross-section,
// normalized by the self term of the reference mode.
func overlapCoefficient(ref, md *modes.Mode) float64 {
	const nq = 1024
	a := ref.Radius(0)
	dr := a / nq
	num, den := 0.0, 0.0
	for i := 0; i <= nq; i++ {
		r := float64(i) * dr
		w := 1.0
		if i == 0 || i == nq {
			w = 0.5
		}
		fr := ref.Field(r, 0)
		num += w * fr * fr * fr * md.Field(r, 0) * r * dr
		den += w * fr * fr * fr * fr * r * dr
	}
	if den == 0 {
		return 0
	}
	return num / den
}
