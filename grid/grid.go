// Package grid constructs the immutable time/frequency axes and apodization
// windows shared by every other component of the solver. A Grid pairs a
// coarse axis set, on which the field state lives, with a finer internal
// axis set used to evaluate nonlinear products without aliasing. The fine
// axes are sized once at construction; nothing in the hot loop resizes them.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pulse-xyz/go-pulse/phys"
)

// Kind selects the field representation the grid supports.
type Kind int

const (
	// RealField pairs N real time samples with N/2+1 spectral samples on
	// an axis starting at omega = 0.
	RealField Kind = iota
	// Envelope pairs N complex time samples with N spectral samples on an
	// axis centred at the reference frequency.
	Envelope
)

func (k Kind) String() string {
	switch k {
	case RealField:
		return "real-field"
	case Envelope:
		return "envelope"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Grid holds the axes and windows for one propagation scenario. It is
// immutable after construction and passed by reference to all collaborators.
type Grid struct {
	Kind Kind

	// N and Nf are the coarse and fine time-axis lengths.
	N, Nf int

	// T and Tf are the ascending time axes [s], centred on zero.
	T, Tf []float64

	// W and Wf are the ascending angular frequency axes [rad/s].
	W, Wf []float64

	// Dt and Dtf are the coarse and fine time-axis spacings [s].
	Dt, Dtf float64

	// Dw is the angular frequency spacing [rad/s], shared by both axes.
	Dw float64

	// W0 is the reference angular frequency [rad/s].
	W0 float64

	// Wmin and Wmax bound the declared spectral pass-band [rad/s].
	Wmin, Wmax float64

	// Zmax is the maximum propagation distance [m].
	Zmax float64

	// Apodization windows, one per axis. Values lie in [0,1], are exactly
	// zero at the outermost samples and exactly one inside the pass-band.
	TimeWin, FreqWin, TimeWinFine, FreqWinFine []float64
}

// fraction of each axis end covered by the taper ramps.
const rampFraction = 0.1

// NewRealField builds a grid for a carrier-resolved real field.
// zmax is the propagation distance [m], refLambda the reference wavelength
// [m], wmin/wmax the pass-band limits [rad/s], timeWindow the full width of
// the time axis [s] and n the number of coarse time samples (a power of
// two). The fine axis is chosen automatically so that cubic nonlinear
// products up to 3*wmax stay below its Nyquist frequency.
func NewRealField(zmax, refLambda, wmin, wmax, timeWindow float64, n int) (*Grid, error) {
	g := &Grid{Kind: RealField}
	if err := g.init(zmax, refLambda, wmin, wmax, timeWindow, n); err != nil {
		return nil, err
	}
	return g, nil
}

// NewEnvelope builds a grid for a complex envelope referenced to refLambda.
// The pass-band limits are absolute frequencies bracketing the carrier.
func NewEnvelope(zmax, refLambda, wmin, wmax, timeWindow float64, n int) (*Grid, error) {
	g := &Grid{Kind: Envelope}
	if err := g.init(zmax, refLambda, wmin, wmax, timeWindow, n); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) init(zmax, refLambda, wmin, wmax, timeWindow float64, n int) error {
	switch {
	case zmax <= 0:
		return fmt.Errorf("grid: zmax must be positive, got %g", zmax)
	case refLambda <= 0:
		return fmt.Errorf("grid: reference wavelength must be positive, got %g", refLambda)
	case timeWindow <= 0:
		return fmt.Errorf("grid: time window must be positive, got %g", timeWindow)
	case n < 16 || n&(n-1) != 0:
		return fmt.Errorf("grid: sample count must be a power of two >= 16, got %d", n)
	case wmin < 0 || wmax <= wmin:
		return fmt.Errorf("grid: invalid pass-band [%g, %g]", wmin, wmax)
	}

	g.Zmax = zmax
	g.W0 = 2 * math.Pi * phys.C / refLambda
	g.Wmin, g.Wmax = wmin, wmax
	g.N = n
	g.Dt = timeWindow / float64(n)
	g.Dw = 2 * math.Pi / timeWindow

	if g.Kind == Envelope && (g.W0 <= wmin || g.W0 >= wmax) {
		return fmt.Errorf("grid: envelope carrier %g outside pass-band [%g, %g]", g.W0, wmin, wmax)
	}

	// Oversampling: the fine Nyquist must clear the highest cubic product.
	factor := 1
	for !g.fineEnough(factor) {
		factor *= 2
		if factor > 32 {
			return fmt.Errorf("grid: pass-band up to %g rad/s cannot be resolved with %d samples over %g s", wmax, n, timeWindow)
		}
	}
	g.Nf = n * factor
	g.Dtf = timeWindow / float64(g.Nf)

	g.T = timeAxis(g.N, g.Dt)
	g.Tf = timeAxis(g.Nf, g.Dtf)

	switch g.Kind {
	case RealField:
		g.W = make([]float64, g.N/2+1)
		g.Wf = make([]float64, g.Nf/2+1)
		floats.Span(g.W, 0, float64(g.N/2)*g.Dw)
		floats.Span(g.Wf, 0, float64(g.Nf/2)*g.Dw)
	case Envelope:
		g.W = envelopeAxis(g.N, g.Dw, g.W0)
		g.Wf = envelopeAxis(g.Nf, g.Dw, g.W0)
	}

	// The pass-band must sit strictly inside the coarse axis so the
	// outermost samples carry zero window weight.
	if g.Wmax >= g.W[len(g.W)-1] {
		return fmt.Errorf("grid: pass-band upper limit %g exceeds axis maximum %g", g.Wmax, g.W[len(g.W)-1])
	}
	if g.Kind == Envelope && g.Wmin <= g.W[0] {
		return fmt.Errorf("grid: pass-band lower limit %g below axis minimum %g", g.Wmin, g.W[0])
	}

	g.buildWindows()
	return nil
}

// fineEnough reports whether an oversampling factor keeps third-order
// spectral products below the fine axis Nyquist limit.
func (g *Grid) fineEnough(factor int) bool {
	nyquist := math.Pi / (g.Dt / float64(factor))
	if g.Kind == RealField {
		return 3*g.Wmax < nyquist
	}
	// Envelope products spread to three times the half-bandwidth around
	// the carrier.
	half := math.Max(g.Wmax-g.W0, g.W0-g.Wmin)
	return 3*half < nyquist
}

func timeAxis(n int, dt float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = (float64(i) - float64(n)/2) * dt
	}
	return t
}

func envelopeAxis(n int, dw, w0 float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = w0 + (float64(i)-float64(n)/2)*dw
	}
	return w
}

func (g *Grid) buildWindows() {
	tw := g.T[len(g.T)-1] - g.T[0]
	ramp := rampFraction * tw
	g.TimeWin = PlanckTaper(g.T, g.T[0], g.T[0]+ramp, g.T[len(g.T)-1]-ramp, g.T[len(g.T)-1])
	g.TimeWinFine = PlanckTaper(g.Tf, g.Tf[0], g.Tf[0]+ramp, g.Tf[len(g.Tf)-1]-ramp, g.Tf[len(g.Tf)-1])

	band := g.Wmax - g.Wmin
	wramp := rampFraction * band
	g.FreqWin = PlanckTaper(g.W, g.Wmin, g.Wmin+wramp, g.Wmax-wramp, g.Wmax)
	g.FreqWinFine = PlanckTaper(g.Wf, g.Wmin, g.Wmin+wramp, g.Wmax-wramp, g.Wmax)
}

// SpecLen returns the number of spectral samples paired with the coarse
// time axis.
func (g *Grid) SpecLen() int {
	if g.Kind == RealField {
		return g.N/2 + 1
	}
	return g.N
}

// SpecLenFine returns the number of spectral samples paired with the fine
// time axis.
func (g *Grid) SpecLenFine() int {
	if g.Kind == RealField {
		return g.Nf/2 + 1
	}
	return g.Nf
}
