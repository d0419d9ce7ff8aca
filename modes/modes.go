// Package modes implements the analytic Marcatili modes of a gas-filled
// hollow capillary waveguide. A Mode resolves its kind (HE/TE/TM) and index
// model (full or reduced) once at construction into concrete closures, so
// the propagation loop never branches on enumerations.
//
// Reference: Marcatili & Schmeltzer, "Hollow metallic and dielectric
// waveguides for long distance optical transmission and lasers", Bell Syst.
// Tech. J. 43 (1964) 1783-1809.
package modes

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/phys"
)

// Kind enumerates the supported capillary mode families.
type Kind int

const (
	HE Kind = iota
	TE
	TM
)

func (k Kind) String() string {
	switch k {
	case HE:
		return "HE"
	case TE:
		return "TE"
	case TM:
		return "TM"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Model selects how the effective index is computed.
type Model int

const (
	// Full solves the exact Marcatili dispersion relation with a complex
	// square root.
	Full Model = iota
	// Reduced uses the small-loss perturbative expansion, valid away from
	// cutoff.
	Reduced
)

func (m Model) String() string {
	switch m {
	case Full:
		return "full"
	case Reduced:
		return "reduced"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Validation errors surfaced at construction.
var (
	ErrBadKind    = errors.New("modes: unknown mode kind")
	ErrBadModel   = errors.New("modes: unknown index model")
	ErrBadIndices = errors.New("modes: invalid mode indices")
	ErrBadRadius  = errors.New("modes: core radius must be positive")
	ErrBadClad    = errors.New("modes: cladding index must exceed 1")
)

// Zeros of the Bessel functions J0..J5; besselZeros[p][m-1] is the m-th
// positive zero of Jp.
var besselZeros = [6][6]float64{
	{2.404825557695773, 5.520078110286311, 8.653727912911013, 11.791534439014281, 14.930917708487787, 18.071063967910924},
	{3.831705970207512, 7.015586669815619, 10.173468135062722, 13.323691936314223, 16.470630050877634, 19.615858510468243},
	{5.135622301840683, 8.417244140399864, 11.619841172149059, 14.795951782351261, 17.959819494987826, 21.116997053021846},
	{6.380161895923984, 9.761023129981670, 13.015200721698434, 16.223466160318768, 19.409415226435012, 22.582729593104442},
	{7.588342434503804, 11.064709488501185, 14.372536671617590, 17.615966049992702, 20.826932956962388, 24.019019524771110},
	{8.771483815959954, 12.338604197466944, 15.700174079711671, 18.980133875179921, 22.217799896561268, 25.430341154222704},
}

// Mode is an immutable waveguide mode. All z-dependence (taper, pressure
// gradient) lives in the closures captured at construction.
type Mode struct {
	kind  Kind
	n, m  int
	model Model

	u     float64 // mode parameter: Bessel zero
	sigma float64 // polarization-dependent loss factor
	order int     // Bessel order of the transverse profile

	radius func(z float64) float64
	index  func(w, z float64) float64

	aeffRatio float64 // Aeff / a^2, fixed by the transverse profile
}

// Option adjusts mode construction.
type Option func(*Mode)

// WithRadiusProfile makes the core radius a function of z (taper). The
// profile replaces the constant radius passed to New.
func WithRadiusProfile(a func(z float64) float64) Option {
	return func(md *Mode) { md.radius = a }
}

// New constructs a Marcatili mode of the given kind and (principal, radial)
// indices in a capillary of the given core radius [m] and cladding
// refractive index, filled with gas according to the density profile.
// TE and TM modes require principal index 1; this is a fixed physical
// constraint of the mode family, not a configurable choice.
func New(kind Kind, n, m int, radius, cladIndex float64, gas medium.Gas, density medium.Density, model Model, opts ...Option) (*Mode, error) {
	if model != Full && model != Reduced {
		return nil, fmt.Errorf("%w: %v", ErrBadModel, model)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrBadRadius, radius)
	}
	if cladIndex <= 1 {
		return nil, fmt.Errorf("%w: %g", ErrBadClad, cladIndex)
	}
	if m < 1 || m > len(besselZeros[0]) {
		return nil, fmt.Errorf("%w: radial index %d", ErrBadIndices, m)
	}

	md := &Mode{kind: kind, n: n, m: m, model: model}
	nu2 := cladIndex * cladIndex
	root := math.Sqrt(nu2 - 1)

	switch kind {
	case HE:
		if n < 1 || n > len(besselZeros) {
			return nil, fmt.Errorf("%w: principal index %d for HE", ErrBadIndices, n)
		}
		md.u = besselZeros[n-1][m-1]
		md.sigma = (nu2 + 1) / (2 * root)
		md.order = n - 1
	case TE:
		if n != 1 {
			return nil, fmt.Errorf("%w: TE modes require principal index 1, got %d", ErrBadIndices, n)
		}
		md.u = besselZeros[1][m-1]
		md.sigma = 1 / root
		md.order = 1
	case TM:
		if n != 1 {
			return nil, fmt.Errorf("%w: TM modes require principal index 1, got %d", ErrBadIndices, n)
		}
		md.u = besselZeros[1][m-1]
		md.sigma = nu2 / root
		md.order = 1
	default:
		return nil, fmt.Errorf("%w: %v", ErrBadKind, kind)
	}

	a := radius
	md.radius = func(float64) float64 { return a }
	md.index = gas.Index(density)
	md.aeffRatio = effectiveAreaRatio(md.order, md.u)

	for _, opt := range opts {
		opt(md)
	}
	return md, nil
}

// Kind returns the mode family.
func (md *Mode) Kind() Kind { return md.kind }

// Indices returns the (principal, radial) mode indices.
func (md *Mode) Indices() (int, int) { return md.n, md.m }

// Model returns the index model resolved at construction.
func (md *Mode) Model() Model { return md.model }

// String renders the usual mode designation, e.g. "HE11".
func (md *Mode) String() string {
	return fmt.Sprintf("%v%d%d", md.kind, md.n, md.m)
}

// Neff returns the complex effective index at angular frequency w and
// position z. The imaginary part is non-negative and encodes waveguide
// loss. Frequencies at or below zero return unity; the caller's spectral
// window removes any content there.
func (md *Mode) Neff(w, z float64) complex128 {
	if w <= 0 {
		return 1
	}
	a := md.radius(z)
	ng := md.index(w, z)
	k0a := w / phys.C * a

	switch md.model {
	case Full:
		s := complex(1, -md.sigma/k0a)
		ratio := complex(md.u/k0a, 0)
		arg := complex(ng*ng, 0) - ratio*ratio*s*s
		neff := cmplx.Sqrt(arg)
		if imag(neff) < 0 {
			neff = complex(real(neff), -imag(neff))
		}
		return neff
	default: // Reduced
		re := ng - md.u*md.u/(2*k0a*k0a*ng)
		im := md.u * md.u * md.sigma / (k0a * k0a * k0a)
		return complex(re, im)
	}
}

// Field evaluates the (unnormalized) transverse field profile at radius r
// from the core axis at position z. It vanishes at the core wall.
func (md *Mode) Field(r, z float64) float64 {
	a := md.radius(z)
	if r < 0 || r >= a {
		return 0
	}
	return math.Jn(md.order, md.u*r/a)
}

// Radius returns the core radius at position z.
func (md *Mode) Radius(z float64) float64 { return md.radius(z) }

// Aeff returns the effective area at position z. For the HE11 mode of a
// capillary this is approximately 1.496 a^2.
func (md *Mode) Aeff(z float64) float64 {
	a := md.radius(z)
	return md.aeffRatio * a * a
}

// effectiveAreaRatio integrates the transverse profile to obtain
// Aeff/a^2 = 2*pi*(I2)^2/I4 with In = int_0^1 J_p(u x)^n x dx.
func effectiveAreaRatio(order int, u float64) float64 {
	const nq = 2048
	dx := 1.0 / nq
	i2, i4 := 0.0, 0.0
	for i := 0; i <= nq; i++ {
		x := float64(i) * dx
		f := math.Jn(order, u*x)
		f2 := f * f
		w := 1.0
		if i == 0 || i == nq {
			w = 0.5
		}
		i2 += w * f2 * x * dx
		i4 += w * f2 * f2 * x * dx
	}
	return 2 * math.Pi * i2 * i2 / i4
}
