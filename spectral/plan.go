// Package spectral owns the forward/inverse transform machinery between the
// coarse frequency-domain field state and the fine time-domain grid on which
// nonlinear products are evaluated. A Plan is created once per run, holds
// all scratch storage, and is passed to every call site; there is no
// process-wide transform cache. The underlying FFT library parallelizes
// individual transforms internally, which is the only intra-step
// parallelism in the solver.
package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"

	"github.com/mjibson/go-dsp/fft"

	"github.com/pulse-xyz/go-pulse/grid"
)

// Plan binds a Grid to reusable transform scratch buffers. A Plan must not
// be shared between concurrently running integrations; independent runs own
// independent plans.
type Plan struct {
	g *grid.Grid

	fineFreq []complex128 // fine spectrum in FFT bin order
	fineReal []float64    // fine real-valued trace for real-field grids
	scale    float64      // amplitude correction for the padded inverse
}

// NewPlan prepares transform scratch for the given grid and warms the FFT
// radix-2 factor cache for both axis lengths.
func NewPlan(g *grid.Grid) *Plan {
	fft.SetWorkerPoolSize(runtime.NumCPU())
	fft.EnsureRadix2Factors(g.N)
	fft.EnsureRadix2Factors(g.Nf)
	return &Plan{
		g:        g,
		fineFreq: make([]complex128, g.Nf),
		fineReal: make([]float64, g.Nf),
		scale:    float64(g.Nf) / float64(g.N),
	}
}

// Grid returns the grid this plan was built for.
func (p *Plan) Grid() *grid.Grid { return p.g }

// Inverse transforms a coarse spectrum onto the fine time axis via spectral
// zero-padding. dst must have length Grid.Nf. For real-field grids the
// result is real-valued (zero imaginary part by Hermitian symmetry).
func (p *Plan) Inverse(spec []complex128, dst []complex128) error {
	if len(spec) != p.g.SpecLen() {
		return fmt.Errorf("spectral: spectrum length %d, want %d", len(spec), p.g.SpecLen())
	}
	if len(dst) != p.g.Nf {
		return fmt.Errorf("spectral: destination length %d, want %d", len(dst), p.g.Nf)
	}

	for i := range p.fineFreq {
		p.fineFreq[i] = 0
	}
	switch p.g.Kind {
	case grid.RealField:
		// Hermitian extension of the half spectrum into the padded array.
		p.fineFreq[0] = spec[0]
		for j := 1; j < len(spec); j++ {
			p.fineFreq[j] = spec[j]
			p.fineFreq[p.g.Nf-j] = cmplx.Conj(spec[j])
		}
	case grid.Envelope:
		// Ascending order -> FFT bin order, zero-padded symmetrically.
		for i := range spec {
			k := i - p.g.N/2
			p.fineFreq[(k+p.g.Nf)%p.g.Nf] = spec[i]
		}
	}

	out := fft.IFFT(p.fineFreq)
	for i := range dst {
		dst[i] = out[i] * complex(p.scale, 0)
	}
	return nil
}

// Forward transforms a fine time-domain trace back onto the coarse spectral
// axis, discarding content outside the coarse band. It is the exact inverse
// of Inverse for band-limited input.
func (p *Plan) Forward(timeDomain []complex128, dst []complex128) error {
	if len(timeDomain) != p.g.Nf {
		return fmt.Errorf("spectral: time trace length %d, want %d", len(timeDomain), p.g.Nf)
	}
	if len(dst) != p.g.SpecLen() {
		return fmt.Errorf("spectral: destination length %d, want %d", len(dst), p.g.SpecLen())
	}

	inv := complex(1/p.scale, 0)
	switch p.g.Kind {
	case grid.RealField:
		// Real-field traces carry no physical imaginary part; transform
		// the real projection so rounding noise cannot leak into the
		// negative-frequency half.
		for i := range timeDomain {
			p.fineReal[i] = real(timeDomain[i])
		}
		out := fft.FFTReal(p.fineReal)
		for j := range dst {
			dst[j] = out[j] * inv
		}
	case grid.Envelope:
		out := fft.FFT(timeDomain)
		for i := range dst {
			k := i - p.g.N/2
			dst[i] = out[(k+p.g.Nf)%p.g.Nf] * inv
		}
	}
	return nil
}

// TimeDomain renders a coarse spectrum on the coarse time axis. It is used
// for statistics and plotting, not in the stepping loop, and allocates its
// result.
func (p *Plan) TimeDomain(spec []complex128) ([]complex128, error) {
	if len(spec) != p.g.SpecLen() {
		return nil, fmt.Errorf("spectral: spectrum length %d, want %d", len(spec), p.g.SpecLen())
	}
	buf := make([]complex128, p.g.N)
	switch p.g.Kind {
	case grid.RealField:
		buf[0] = spec[0]
		for j := 1; j < len(spec)-1; j++ {
			buf[j] = spec[j]
			buf[p.g.N-j] = cmplx.Conj(spec[j])
		}
		buf[p.g.N/2] = spec[p.g.N/2]
	case grid.Envelope:
		for i := range spec {
			k := i - p.g.N/2
			buf[(k+p.g.N)%p.g.N] = spec[i]
		}
	}
	return fft.IFFT(buf), nil
}
