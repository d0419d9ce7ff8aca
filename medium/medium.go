// Package medium supplies the physical models the solver consumes as opaque
// callables: gas refractive index versus frequency, number-density profiles
// along the fibre, and field-ionization rate models. The propagation core
// never looks inside these functions; swapping in a custom model is a
// matter of passing a different closure.
package medium

import (
	"fmt"
	"math"

	"github.com/pulse-xyz/go-pulse/phys"
)

// Density returns the gas number density [1/m^3] at position z [m].
type Density func(z float64) float64

// IonizationRate returns the ionization rate [1/s] for a field magnitude
// [V/m].
type IonizationRate func(absE float64) float64

// ConstantPressure returns a uniform density profile for the given pressure
// in bar.
func ConstantPressure(bar float64) Density {
	rho := bar * phys.RefDensity
	return func(float64) float64 { return rho }
}

// GradientPressure returns the density profile of a fibre pumped to p0 bar
// at the entrance and p1 bar at the exit. Viscous flow through a capillary
// gives p(z) = sqrt(p0^2 + (z/L)(p1^2 - p0^2)).
func GradientPressure(p0, p1, length float64) Density {
	return func(z float64) float64 {
		x := z / length
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		return math.Sqrt(p0*p0+x*(p1*p1-p0*p0)) * phys.RefDensity
	}
}

// Gas bundles the dispersion and nonlinearity data for one fill gas.
// Sellmeier coefficients are tabulated at standard conditions with
// wavelengths in micrometres.
type Gas struct {
	Name string

	// Two-term Sellmeier coefficients: n^2 - 1 = B1 l^2/(l^2-C1) + B2 l^2/(l^2-C2).
	B1, C1, B2, C2 float64

	// Chi3 is the third-order susceptibility [m^2/V^2] at reference density.
	Chi3 float64

	// Ip is the first ionization potential [J].
	Ip float64
}

// Two-term Sellmeier data after Börzsönyi et al., Appl. Phys. B 92 (2008).
// Ionization potentials from the NIST ASD; Chi3 from Lehmeier et al.,
// Opt. Commun. 56 (1985), scaled to reference density.
var (
	Helium = Gas{
		Name: "He",
		B1:   4977.77e-8, C1: 28.54e-6,
		B2: 1856.94e-8, C2: 7.76e-3,
		Chi3: 3.43e-28,
		Ip:   24.587 * phys.ElectronCharge,
	}
	Neon = Gas{
		Name: "Ne",
		B1:   9154.48e-8, C1: 656.97e-6,
		B2: 4018.63e-8, C2: 5.728e-3,
		Chi3: 6.80e-28,
		Ip:   21.565 * phys.ElectronCharge,
	}
	Argon = Gas{
		Name: "Ar",
		B1:   20332.29e-8, C1: 206.12e-6,
		B2: 34458.31e-8, C2: 8.066e-3,
		Chi3: 4.06e-27,
		Ip:   15.760 * phys.ElectronCharge,
	}
)

// GasByName resolves one of the built-in gases.
func GasByName(name string) (Gas, error) {
	switch name {
	case "He", "he", "helium":
		return Helium, nil
	case "Ne", "ne", "neon":
		return Neon, nil
	case "Ar", "ar", "argon":
		return Argon, nil
	default:
		return Gas{}, fmt.Errorf("medium: unknown gas %q", name)
	}
}

// RefSusceptibility returns n^2 - 1 at reference density for angular
// frequency w. Frequencies at or below zero (present on real-field grids)
// evaluate at the static limit.
func (g Gas) RefSusceptibility(w float64) float64 {
	if w <= 0 {
		// Static limit of both Sellmeier terms.
		return g.B1 + g.B2
	}
	lum := 2 * math.Pi * phys.C / w * 1e6 // wavelength in micrometres
	l2 := lum * lum
	return g.B1*l2/(l2-g.C1) + g.B2*l2/(l2-g.C2)
}

// Index returns the refractive index model n(w, z) for this gas filled
// according to the given density profile.
func (g Gas) Index(rho Density) func(w, z float64) float64 {
	return func(w, z float64) float64 {
		chi := g.RefSusceptibility(w) * rho(z) / phys.RefDensity
		return math.Sqrt(1 + chi)
	}
}
