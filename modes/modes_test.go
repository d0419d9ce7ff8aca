package modes

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/phys"
)

const (
	testRadius = 50e-6
	silica     = 1.45
)

func he11(t *testing.T, model Model) *Mode {
	t.Helper()
	md, err := New(HE, 1, 1, testRadius, silica, medium.Argon, medium.ConstantPressure(1.0), model)
	if err != nil {
		t.Fatalf("New(HE11): %v", err)
	}
	return md
}

func TestConstructionValidation(t *testing.T) {
	rho := medium.ConstantPressure(1.0)

	cases := []struct {
		name string
		kind Kind
		n, m int
	}{
		{"TE principal index 2", TE, 2, 1},
		{"TM principal index 0", TM, 0, 1},
		{"HE principal index 0", HE, 0, 1},
		{"radial index 0", HE, 1, 0},
		{"radial index out of table", HE, 1, 99},
		{"unknown kind", Kind(42), 1, 1},
	}
	for _, tc := range cases {
		if _, err := New(tc.kind, tc.n, tc.m, testRadius, silica, medium.Argon, rho, Full); err == nil {
			t.Errorf("%s: expected construction error", tc.name)
		}
	}

	if _, err := New(HE, 1, 1, testRadius, silica, medium.Argon, rho, Model(7)); err == nil {
		t.Error("invalid model: expected construction error")
	}
	if _, err := New(HE, 1, 1, -1, silica, medium.Argon, rho, Full); err == nil {
		t.Error("negative radius: expected construction error")
	}
	if _, err := New(HE, 1, 1, testRadius, 0.9, medium.Argon, rho, Full); err == nil {
		t.Error("cladding index below 1: expected construction error")
	}

	// TE and TM accept exactly principal index 1.
	if _, err := New(TE, 1, 2, testRadius, silica, medium.Argon, rho, Full); err != nil {
		t.Errorf("TE12 should construct: %v", err)
	}
}

func TestNeffPhysicalRegime(t *testing.T) {
	md := he11(t, Full)
	w := 2 * math.Pi * phys.C / 800e-9

	neff := md.Neff(w, 0)
	if real(neff) >= 1.001 || real(neff) <= 0.999 {
		t.Errorf("Re(neff) = %g, expected close to 1", real(neff))
	}
	// Guided mode below the gas index (waveguide contribution is negative).
	gasIdx := medium.Argon.Index(medium.ConstantPressure(1.0))(w, 0)
	if real(neff) >= gasIdx {
		t.Errorf("Re(neff)=%.9f should lie below the gas index %.9f", real(neff), gasIdx)
	}
	if imag(neff) <= 0 {
		t.Errorf("Im(neff) = %g, expected positive loss", imag(neff))
	}
}

func TestFullVersusReduced(t *testing.T) {
	full := he11(t, Full)
	red := he11(t, Reduced)
	w := 2 * math.Pi * phys.C / 800e-9

	nf := full.Neff(w, 0)
	nr := red.Neff(w, 0)

	if math.Abs(real(nf)-real(nr)) > 1e-8 {
		t.Errorf("real parts disagree: full %.12f vs reduced %.12f", real(nf), real(nr))
	}
	if rel := math.Abs(imag(nf)-imag(nr)) / imag(nf); rel > 0.01 {
		t.Errorf("loss terms disagree by %g (full %g, reduced %g)", rel, imag(nf), imag(nr))
	}
}

func TestModeOrderingByLoss(t *testing.T) {
	// Higher-order radial modes leak faster: alpha ~ u^2.
	rho := medium.ConstantPressure(1.0)
	w := 2 * math.Pi * phys.C / 800e-9
	var prev float64
	for m := 1; m <= 3; m++ {
		md, err := New(HE, 1, m, testRadius, silica, medium.Argon, rho, Full)
		if err != nil {
			t.Fatalf("HE1%d: %v", m, err)
		}
		loss := imag(md.Neff(w, 0))
		if loss <= prev {
			t.Errorf("HE1%d loss %g not above HE1%d loss %g", m, loss, m-1, prev)
		}
		prev = loss
	}

	// TM modes lose more than TE modes of the same order.
	te, _ := New(TE, 1, 1, testRadius, silica, medium.Argon, rho, Full)
	tm, _ := New(TM, 1, 1, testRadius, silica, medium.Argon, rho, Full)
	if imag(tm.Neff(w, 0)) <= imag(te.Neff(w, 0)) {
		t.Error("TM01 loss should exceed TE01 loss")
	}
}

func TestEffectiveArea(t *testing.T) {
	md := he11(t, Full)
	want := 1.496 * testRadius * testRadius
	got := md.Aeff(0)
	if math.Abs(got-want)/want > 0.03 {
		t.Errorf("Aeff = %g, want about %g", got, want)
	}
}

func TestRadiusTaper(t *testing.T) {
	rho := medium.ConstantPressure(1.0)
	md, err := New(HE, 1, 1, testRadius, silica, medium.Argon, rho, Full,
		WithRadiusProfile(func(z float64) float64 { return testRadius * (1 - 0.5*z) }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if md.Aeff(1.0) >= md.Aeff(0) {
		t.Error("tapered mode area should shrink with z")
	}
	w := 2 * math.Pi * phys.C / 800e-9
	if imag(md.Neff(w, 1.0)) <= imag(md.Neff(w, 0)) {
		t.Error("tapered mode loss should grow as the core shrinks")
	}
}

func TestFieldProfile(t *testing.T) {
	md := he11(t, Full)
	if md.Field(0, 0) != 1 {
		t.Errorf("HE11 profile at the axis = %g, want 1 (J0(0))", md.Field(0, 0))
	}
	if md.Field(testRadius, 0) != 0 {
		t.Error("profile must vanish at the core wall")
	}
	if md.Field(testRadius/2, 0) <= 0 || md.Field(testRadius/2, 0) >= 1 {
		t.Errorf("profile at a/2 = %g, want in (0,1)", md.Field(testRadius/2, 0))
	}
}

func TestNeffZeroFrequencyGuard(t *testing.T) {
	md := he11(t, Full)
	for _, w := range []float64{0, -1e14} {
		if n := md.Neff(w, 0); n != 1 || cmplx.IsNaN(n) {
			t.Errorf("Neff(%g) = %v, want exactly 1", w, n)
		}
	}
}
