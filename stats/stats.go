// Package stats reduces field states to named scalar observables. A
// Functor is evaluated by the integrator on every recorded snapshot and
// the results travel with the run output, so convergence and broadening
// can be inspected without storing full fields.
package stats

import (
	"math"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/spectral"
)

// Functor maps a field state, indexed [mode][frequency], to named scalars.
// It is an alias of the unnamed function type so functors assign directly
// to the integrator's statistics hook without conversion.
type Functor = func(z float64, field [][]complex128) map[string]float64

// Compose merges the outputs of several functors into one map. Later
// functors win on key collisions.
func Compose(fs ...Functor) Functor {
	return func(z float64, field [][]complex128) map[string]float64 {
		out := make(map[string]float64)
		for _, f := range fs {
			for k, v := range f(z, field) {
				out[k] = v
			}
		}
		return out
	}
}

// Energy reports the total field energy summed over modes, key "energy".
func Energy(g *grid.Grid) Functor {
	return func(_ float64, field [][]complex128) map[string]float64 {
		total := 0.0
		for _, row := range field {
			total += spectral.SpectralEnergy(g, row)
		}
		return map[string]float64{"energy": total}
	}
}

// PeakPower reports the maximum over time of the summed squared field
// magnitude, key "peak_power". The value carries field-squared units;
// callers convert with the mode's effective area when absolute power is
// needed.
func PeakPower(plan *spectral.Plan) Functor {
	return func(_ float64, field [][]complex128) map[string]float64 {
		trace := intensityTrace(plan, field)
		peak := 0.0
		for _, p := range trace {
			if p > peak {
				peak = p
			}
		}
		return map[string]float64{"peak_power": peak}
	}
}

// ArrivalTime reports the intensity-weighted first moment of the time
// axis, key "arrival_time".
func ArrivalTime(plan *spectral.Plan) Functor {
	return func(_ float64, field [][]complex128) map[string]float64 {
		mean, _ := timeMoments(plan, field)
		return map[string]float64{"arrival_time": mean}
	}
}

// Duration reports the intensity-weighted RMS width of the time axis,
// key "rms_width".
func Duration(plan *spectral.Plan) Functor {
	return func(_ float64, field [][]complex128) map[string]float64 {
		_, width := timeMoments(plan, field)
		return map[string]float64{"rms_width": width}
	}
}

// SpectralWidth reports the RMS width of the spectral intensity summed
// over modes, key "spectral_rms_width". Monotone growth of this value
// along z is the usual signature of self-phase-modulation broadening.
func SpectralWidth(g *grid.Grid) Functor {
	return func(_ float64, field [][]complex128) map[string]float64 {
		sum, m1, m2 := 0.0, 0.0, 0.0
		for j, w := range g.W {
			p := 0.0
			for m := range field {
				v := field[m][j]
				p += real(v)*real(v) + imag(v)*imag(v)
			}
			sum += p
			m1 += p * w
			m2 += p * w * w
		}
		if sum == 0 {
			return map[string]float64{"spectral_rms_width": 0}
		}
		mean := m1 / sum
		variance := m2/sum - mean*mean
		if variance < 0 {
			variance = 0
		}
		return map[string]float64{"spectral_rms_width": math.Sqrt(variance)}
	}
}

// intensityTrace renders every mode on the coarse time axis and sums the
// squared magnitudes per sample.
func intensityTrace(plan *spectral.Plan, field [][]complex128) []float64 {
	g := plan.Grid()
	out := make([]float64, g.N)
	for _, row := range field {
		trace, err := plan.TimeDomain(row)
		if err != nil {
			continue
		}
		for i, v := range trace {
			out[i] += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return out
}

func timeMoments(plan *spectral.Plan, field [][]complex128) (mean, width float64) {
	g := plan.Grid()
	trace := intensityTrace(plan, field)
	sum, m1, m2 := 0.0, 0.0, 0.0
	for i, p := range trace {
		t := g.T[i]
		sum += p
		m1 += p * t
		m2 += p * t * t
	}
	if sum == 0 {
		return 0, 0
	}
	mean = m1 / sum
	variance := m2/sum - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
