package medium

import (
	"math"
	"testing"

	"github.com/pulse-xyz/go-pulse/phys"
)

func TestArgonIndexAt800nm(t *testing.T) {
	n := Argon.Index(ConstantPressure(1.0))
	w := 2 * math.Pi * phys.C / 800e-9
	got := n(w, 0)
	// Argon at ~1 bar: n - 1 ~ 2.8e-4 in the near infrared.
	if got <= 1.0 || got-1 < 1e-4 || got-1 > 5e-4 {
		t.Errorf("n(800nm, 1 bar) = %.6g, want 1 + O(2.8e-4)", got)
	}
}

func TestIndexScalesWithPressure(t *testing.T) {
	w := 2 * math.Pi * phys.C / 800e-9
	n1 := Argon.Index(ConstantPressure(1.0))(w, 0)
	n2 := Argon.Index(ConstantPressure(2.0))(w, 0)
	r := (n2*n2 - 1) / (n1*n1 - 1)
	if math.Abs(r-2) > 1e-9 {
		t.Errorf("susceptibility should scale linearly with density, ratio = %g", r)
	}
}

func TestNormalDispersion(t *testing.T) {
	n := Argon.Index(ConstantPressure(1.0))
	wRed := 2 * math.Pi * phys.C / 1000e-9
	wBlue := 2 * math.Pi * phys.C / 400e-9
	if n(wBlue, 0) <= n(wRed, 0) {
		t.Errorf("expected normal dispersion: n(400nm)=%.8f <= n(1000nm)=%.8f", n(wBlue, 0), n(wRed, 0))
	}
}

func TestStaticLimitFinite(t *testing.T) {
	for _, g := range []Gas{Helium, Neon, Argon} {
		v := g.RefSusceptibility(0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			t.Errorf("%s: static susceptibility = %g, want finite positive", g.Name, v)
		}
	}
}

func TestGradientPressureEndpoints(t *testing.T) {
	rho := GradientPressure(0, 2.0, 1.0)
	if got := rho(0); got != 0 {
		t.Errorf("entrance density = %g, want 0", got)
	}
	want := 2.0 * phys.RefDensity
	if got := rho(1.0); math.Abs(got-want)/want > 1e-12 {
		t.Errorf("exit density = %g, want %g", got, want)
	}
	// Monotone between the endpoints.
	prev := rho(0)
	for i := 1; i <= 10; i++ {
		cur := rho(float64(i) / 10)
		if cur < prev {
			t.Fatalf("gradient profile not monotone at z=%g", float64(i)/10)
		}
		prev = cur
	}
}

func TestADKRate(t *testing.T) {
	rate := ADK(Argon.Ip)

	if rate(0) != 0 {
		t.Error("rate at zero field must be zero")
	}
	if rate(1e6) != 0 {
		// Deep tunnelling regime underflows to zero.
		t.Error("rate at negligible field must underflow to zero")
	}

	// Monotone growth through the relevant intensity range.
	fields := []float64{1e10, 2e10, 5e10, 1e11}
	prev := 0.0
	for _, f := range fields {
		r := rate(f)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			t.Fatalf("rate(%g) not finite: %g", f, r)
		}
		if r < prev {
			t.Fatalf("rate not monotone at %g V/m", f)
		}
		prev = r
	}
	if prev <= 0 {
		t.Error("rate at 1e11 V/m should be positive")
	}

	// Helium is harder to ionize than argon at the same field.
	he := ADK(Helium.Ip)
	if he(5e10) >= rate(5e10) {
		t.Error("helium rate should be below argon rate at equal field")
	}
}

func TestGasByName(t *testing.T) {
	if g, err := GasByName("argon"); err != nil || g.Name != "Ar" {
		t.Errorf("GasByName(argon) = %v, %v", g.Name, err)
	}
	if _, err := GasByName("xenon5"); err == nil {
		t.Error("expected error for unknown gas")
	}
}
