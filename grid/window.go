package grid

import "math"

// PlanckTaper evaluates a Planck-taper window over the given axis.
// The window is zero for x <= left0 and x >= right0, one for
// left1 <= x <= right1, and follows the smooth Planck ramp
// 1/(exp(z)+1) in between, which joins both plateaus with all
// derivatives continuous.
//
// Reference: McKechan, Robinson & Sathyaprakash, "A tapering window for
// time-domain templates and simulated signals", Class. Quantum Grav. 27
// (2010) 084020.
func PlanckTaper(axis []float64, left0, left1, right1, right0 float64) []float64 {
	w := make([]float64, len(axis))
	for i, x := range axis {
		w[i] = planckPoint(x, left0, left1, right1, right0)
	}
	// The outermost samples anchor the window at exactly zero even when
	// the ramp boundaries coincide with the axis ends.
	if len(w) > 0 {
		w[0] = clampEdge(axis[0], left0, right0, w[0])
		w[len(w)-1] = clampEdge(axis[len(axis)-1], left0, right0, w[len(w)-1])
	}
	return w
}

func clampEdge(x, left0, right0, v float64) float64 {
	if x <= left0 || x >= right0 {
		return 0
	}
	return v
}

func planckPoint(x, left0, left1, right1, right0 float64) float64 {
	switch {
	case x <= left0 || x >= right0:
		return 0
	case x >= left1 && x <= right1:
		return 1
	case x < left1:
		return planckRamp(x, left0, left1)
	default:
		return planckRamp(x, right0, right1)
	}
}

// planckRamp rises smoothly from 0 at edge to 1 at plateau.
func planckRamp(x, edge, plateau float64) float64 {
	span := plateau - edge
	z := span/(x-edge) + span/(x-plateau)
	// Large |z| saturates; guard the exponential explicitly so the window
	// never produces Inf/NaN at samples adjacent to the boundaries.
	if z > 700 {
		return 0
	}
	if z < -700 {
		return 1
	}
	return 1 / (math.Exp(z) + 1)
}
