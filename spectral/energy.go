package spectral

import (
	"github.com/pulse-xyz/go-pulse/grid"
)

// SpectralEnergy evaluates the quadratic energy functional of a coarse
// spectrum, normalized so that it equals TemporalEnergy of the matching
// time trace (Parseval). The result is in field-squared-times-seconds
// units; physical scaling to joules is the statistics functor's business.
func SpectralEnergy(g *grid.Grid, spec []complex128) float64 {
	norm := g.Dt / float64(g.N)
	sum := 0.0
	switch g.Kind {
	case grid.RealField:
		// Half spectrum: interior bins count twice.
		sum += sqabs(spec[0])
		for j := 1; j < len(spec)-1; j++ {
			sum += 2 * sqabs(spec[j])
		}
		sum += sqabs(spec[len(spec)-1])
	case grid.Envelope:
		for _, v := range spec {
			sum += sqabs(v)
		}
	}
	return norm * sum
}

// TemporalEnergy integrates |E(t)|^2 over a time trace with spacing dt.
func TemporalEnergy(trace []complex128, dt float64) float64 {
	sum := 0.0
	for _, v := range trace {
		sum += sqabs(v)
	}
	return sum * dt
}

func sqabs(v complex128) float64 {
	return real(v)*real(v) + imag(v)*imag(v)
}
