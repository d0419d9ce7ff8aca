package coupling

import (
	"math"
	"testing"

	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/modes"
)

func setup(t *testing.T) (*grid.Grid, []*modes.Mode) {
	t.Helper()
	w0 := 2 * math.Pi * 299792458.0 / 800e-9
	g, err := grid.NewEnvelope(1.0, 800e-9, 0.3*w0, 1.7*w0, 400e-15, 512)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	rho := medium.ConstantPressure(1.0)
	var set []*modes.Mode
	for m := 1; m <= 3; m++ {
		md, err := modes.New(modes.HE, 1, m, 50e-6, 1.45, medium.Argon, rho, modes.Full)
		if err != nil {
			t.Fatalf("mode HE1%d: %v", m, err)
		}
		set = append(set, md)
	}
	return g, set
}

func TestModeAveragedZeroPreserving(t *testing.T) {
	g, set := setup(t)
	n, err := NewModeAveraged(g, set[0])
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}
	pol := [][]complex128{make([]complex128, g.SpecLen())}
	n.Apply(0.5, pol)
	for j, v := range pol[0] {
		if v != 0 {
			t.Fatalf("zero polarization mapped to %v at %d", v, j)
		}
	}
}

func TestModeAveragedFactorShape(t *testing.T) {
	g, set := setup(t)
	n, err := NewModeAveraged(g, set[0])
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}
	pol := [][]complex128{make([]complex128, g.SpecLen())}
	for j := range pol[0] {
		pol[0][j] = 1
	}
	n.Apply(0, pol)

	// Factor is i*w*const: purely imaginary, growing with frequency.
	jLo, jHi := g.SpecLen()/2, g.SpecLen()-1
	if real(pol[0][jLo]) != 0 {
		t.Errorf("factor should be purely imaginary, got %v", pol[0][jLo])
	}
	if imag(pol[0][jHi]) <= imag(pol[0][jLo]) {
		t.Error("factor magnitude should grow with frequency")
	}
}

func TestModeAveragedTaperRatio(t *testing.T) {
	g, _ := setup(t)
	rho := medium.ConstantPressure(1.0)
	tapered, err := modes.New(modes.HE, 1, 1, 50e-6, 1.45, medium.Argon, rho, modes.Full,
		modes.WithRadiusProfile(func(z float64) float64 { return 50e-6 * (1 - 0.4*z) }))
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	n, err := NewModeAveraged(g, tapered)
	if err != nil {
		t.Fatalf("NewModeAveraged: %v", err)
	}

	at := func(z float64) float64 {
		pol := [][]complex128{make([]complex128, g.SpecLen())}
		j := g.SpecLen() / 2
		pol[0][j] = 1
		n.Apply(z, pol)
		return imag(pol[0][j])
	}
	if at(1.0) <= at(0) {
		t.Error("shrinking core must increase the nonlinear drive")
	}
}

func TestFullModalOverlaps(t *testing.T) {
	g, set := setup(t)
	n, err := NewFullModal(g, set)
	if err != nil {
		t.Fatalf("NewFullModal: %v", err)
	}

	if math.Abs(n.Overlap(0)-1) > 1e-12 {
		t.Errorf("fundamental self-overlap = %g, want 1", n.Overlap(0))
	}
	for m := 1; m < len(set); m++ {
		o := math.Abs(n.Overlap(m))
		if o >= 1 {
			t.Errorf("HE1%d overlap %g should be below the self term", m+1, o)
		}
	}

	// Zero preservation across all modes.
	pol := make([][]complex128, len(set))
	for m := range pol {
		pol[m] = make([]complex128, g.SpecLen())
	}
	n.Apply(0.2, pol)
	for m := range pol {
		for j, v := range pol[m] {
			if v != 0 {
				t.Fatalf("mode %d: zero polarization mapped to %v at %d", m, v, j)
			}
		}
	}
}

func TestFullModalRequiresModes(t *testing.T) {
	g, _ := setup(t)
	if _, err := NewFullModal(g, nil); err == nil {
		t.Error("expected error for empty mode set")
	}
}
