package nonlinear

// Cumtrapz writes the forward cumulative trapezoidal integral of src with
// uniform spacing dx into dst. dst[0] is zero; dst and src may not alias.
// The trapezoidal rule is exact for piecewise-linear integrands, so a
// linear ramp reproduces its quadratic antiderivative to rounding error.
func Cumtrapz(dst, src []float64, dx float64) {
	if len(dst) == 0 {
		return
	}
	dst[0] = 0
	for i := 1; i < len(src); i++ {
		dst[i] = dst[i-1] + 0.5*dx*(src[i-1]+src[i])
	}
}

// CumtrapzC is Cumtrapz over complex samples.
func CumtrapzC(dst, src []complex128, dx float64) {
	if len(dst) == 0 {
		return
	}
	h := complex(0.5*dx, 0)
	dst[0] = 0
	for i := 1; i < len(src); i++ {
		dst[i] = dst[i-1] + h*(src[i-1]+src[i])
	}
}
