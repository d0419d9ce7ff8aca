package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pulse-xyz/go-pulse/coupling"
	"github.com/pulse-xyz/go-pulse/dispersion"
	"github.com/pulse-xyz/go-pulse/grid"
	"github.com/pulse-xyz/go-pulse/medium"
	"github.com/pulse-xyz/go-pulse/modes"
	"github.com/pulse-xyz/go-pulse/nonlinear"
	"github.com/pulse-xyz/go-pulse/phys"
	"github.com/pulse-xyz/go-pulse/propagation"
	"github.com/pulse-xyz/go-pulse/results"
	"github.com/pulse-xyz/go-pulse/spectral"
	"github.com/pulse-xyz/go-pulse/stats"
)

// runConfig collects everything needed for one propagation run.
type runConfig struct {
	gasName     string
	pressureIn  float64 // bar
	pressureOut float64 // bar
	radius      float64 // m
	cladIndex   float64
	length      float64 // m

	wavelength float64 // m
	duration   float64 // s, 1/e field half-width
	peakField  float64 // V/m

	samples  int
	window   float64 // s
	bandLow  float64 // fraction of the carrier frequency
	bandHigh float64

	modeCount int
	reduced   bool
	plasma    bool

	reltol    float64
	abstol    float64
	snapshots int
}

func defaultRunConfig() runConfig {
	return runConfig{
		gasName:     "argon",
		pressureIn:  1.0,
		pressureOut: 1.0,
		radius:      125e-6,
		cladIndex:   1.45,
		length:      0.5,
		wavelength:  800e-9,
		duration:    30e-15,
		peakField:   3e10,
		samples:     2048,
		window:      1e-12,
		bandLow:     0.3,
		bandHigh:    1.7,
		modeCount:   1,
		reltol:      1e-6,
		abstol:      1e-10,
		snapshots:   21,
	}
}

// execute assembles the full solver pipeline and runs it.
func (c runConfig) execute() (*results.Results, error) {
	gas, err := medium.GasByName(c.gasName)
	if err != nil {
		return nil, err
	}
	rho := medium.GradientPressure(c.pressureIn, c.pressureOut, c.length)

	w0 := 2 * math.Pi * phys.C / c.wavelength
	g, err := grid.NewEnvelope(c.length, c.wavelength, c.bandLow*w0, c.bandHigh*w0, c.window, c.samples)
	if err != nil {
		return nil, err
	}

	model := modes.Full
	if c.reduced {
		model = modes.Reduced
	}
	if c.modeCount < 1 {
		c.modeCount = 1
	}
	set := make([]*modes.Mode, c.modeCount)
	modeNames := make([]string, c.modeCount)
	for m := range set {
		set[m], err = modes.New(modes.HE, 1, m+1, c.radius, c.cladIndex, gas, rho, model)
		if err != nil {
			return nil, err
		}
		modeNames[m] = fmt.Sprintf("HE1%d", m+1)
	}

	builder, err := dispersion.NewBuilder(g, set)
	if err != nil {
		return nil, err
	}
	var lin propagation.OperatorSource
	if c.pressureIn == c.pressureOut {
		lin, err = dispersion.NewConstant(builder)
		if err != nil {
			return nil, err
		}
	} else {
		lin = dispersion.NewPerStep(builder)
	}

	plan := spectral.NewPlan(g)
	entries := []nonlinear.Response{nonlinear.NewKerr(g, gas, rho)}
	if c.plasma {
		entries = append(entries, nonlinear.NewPlasma(g, medium.ADK(gas.Ip), gas.Ip, rho))
	}
	agg := nonlinear.NewAggregator(g, plan, entries...)

	var norm propagation.Normalizer
	if c.modeCount == 1 {
		norm, err = coupling.NewModeAveraged(g, set[0])
	} else {
		norm, err = coupling.NewFullModal(g, set)
	}
	if err != nil {
		return nil, err
	}

	initial := make([][]complex128, c.modeCount)
	for m := range initial {
		initial[m] = make([]complex128, g.SpecLen())
	}
	if err := launchGaussian(g, plan, initial[0], c.peakField, c.duration); err != nil {
		return nil, err
	}

	opts := propagation.DefaultOptions()
	opts.Reltol = c.reltol
	opts.Abstol = c.abstol

	prob := &propagation.Problem{
		Grid:       g,
		Initial:    initial,
		Linear:     lin,
		Nonlinear:  agg,
		Normalizer: norm,
		SaveAt:     savePositions(c.length, c.snapshots),
		Stats: stats.Compose(
			stats.Energy(g),
			stats.PeakPower(plan),
			stats.Duration(plan),
			stats.ArrivalTime(plan),
			stats.SpectralWidth(g),
		),
	}

	start := time.Now()
	sol, solveErr := propagation.Solve(prob, opts)
	elapsed := time.Since(start).Seconds()

	rb := results.NewBuilder().
		WithFibre(results.Fibre{
			Length:     c.length,
			CoreRadius: c.radius,
			CladIndex:  c.cladIndex,
			Gas:        gas.Name,
			Pressure:   [2]float64{c.pressureIn, c.pressureOut},
			Modes:      modeNames,
		}).
		WithPulse(results.Pulse{
			Wavelength: c.wavelength,
			Duration:   c.duration,
			PeakField:  c.peakField,
			Energy:     spectral.SpectralEnergy(g, initial[0]),
		}).
		WithGrid(g).
		WithOptions(opts)

	if solveErr != nil {
		return rb.WithError(solveErr).Build(), solveErr
	}

	res := rb.WithSolution(sol, g, elapsed, 1024).Build()
	res.Analysis = results.NewAnalyzer(res).ComputeAll()
	return res, nil
}

// launchGaussian writes a transform-limited Gaussian pulse into the
// fundamental mode's spectrum.
func launchGaussian(g *grid.Grid, plan *spectral.Plan, dst []complex128, peakField, duration float64) error {
	trace := make([]complex128, g.Nf)
	for i, tt := range g.Tf {
		x := tt / duration
		trace[i] = complex(peakField*math.Exp(-x*x/2), 0)
	}
	return plan.Forward(trace, dst)
}

func savePositions(length float64, count int) []float64 {
	if count < 2 {
		return []float64{0, length}
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = length * float64(i) / float64(count-1)
	}
	out[count-1] = length
	return out
}

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	c := defaultRunConfig()

	fs.StringVar(&c.gasName, "gas", c.gasName, "Fill gas (helium, neon, argon)")
	fs.Float64Var(&c.pressureIn, "pressure", c.pressureIn, "Fill pressure in bar (entrance and exit)")
	pressureOut := fs.Float64("pressure-out", -1, "Exit pressure in bar for gradient fills")
	fs.Float64Var(&c.radius, "radius", c.radius, "Core radius in m")
	fs.Float64Var(&c.cladIndex, "clad", c.cladIndex, "Cladding refractive index")
	fs.Float64Var(&c.length, "length", c.length, "Fibre length in m")
	fs.Float64Var(&c.wavelength, "wavelength", c.wavelength, "Carrier wavelength in m")
	fs.Float64Var(&c.duration, "duration", c.duration, "Pulse duration in s (1/e field half-width)")
	fs.Float64Var(&c.peakField, "field", c.peakField, "Peak field in V/m")
	fs.IntVar(&c.samples, "samples", c.samples, "Spectral samples (power of two)")
	fs.Float64Var(&c.window, "window", c.window, "Time window in s")
	fs.IntVar(&c.modeCount, "modes", c.modeCount, "Number of HE1m modes")
	fs.BoolVar(&c.reduced, "reduced", c.reduced, "Use the reduced dispersion model")
	fs.BoolVar(&c.plasma, "plasma", c.plasma, "Include the ionization response")
	fs.Float64Var(&c.reltol, "reltol", c.reltol, "Relative step tolerance")
	fs.Float64Var(&c.abstol, "abstol", c.abstol, "Absolute step tolerance")
	fs.IntVar(&c.snapshots, "snapshots", c.snapshots, "Number of recorded positions")
	output := fs.String("output", "", "Output file for results (required)")
	dbPath := fs.String("db", "", "Optional SQLite archive for the run")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pulse simulate [options]

Propagate an ultrashort pulse through a gas-filled hollow capillary.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 30 fs, 800 nm pulse in 1 bar of argon
  pulse simulate --gas argon --pressure 1.0 --length 0.5 --output run.json

  # Pressure-gradient fill with ionization
  pulse simulate --pressure 0 --pressure-out 2.5 --plasma --output run.json

  # Four-mode run with the reduced dispersion model
  pulse simulate --modes 4 --reduced --output run.json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("--output required")
	}
	c.pressureOut = c.pressureIn
	if *pressureOut >= 0 {
		c.pressureOut = *pressureOut
	}

	res, err := c.execute()
	if res != nil {
		if werr := results.WriteJSON(res, *output); werr != nil {
			return fmt.Errorf("write results: %w", werr)
		}
		if *dbPath != "" {
			if serr := archiveRun(*dbPath, res); serr != nil {
				return fmt.Errorf("archive run: %w", serr)
			}
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Propagation complete\n")
	fmt.Fprintf(os.Stderr, "  Run: %s\n", res.Metadata.RunID)
	fmt.Fprintf(os.Stderr, "  Steps: %d accepted, %d rejected\n",
		res.Results.Summary.Steps, res.Results.Summary.Rejected)
	if res.Analysis != nil && res.Analysis.Broadening > 0 {
		fmt.Fprintf(os.Stderr, "  Spectral broadening: %.2fx\n", res.Analysis.Broadening)
	}
	fmt.Fprintf(os.Stderr, "  Compute time: %.3fs\n", res.Metadata.ComputeTime)
	fmt.Fprintf(os.Stderr, "  Output: %s\n", *output)
	return nil
}
