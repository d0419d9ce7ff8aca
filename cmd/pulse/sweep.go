package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pulse-xyz/go-pulse/results"
	"github.com/pulse-xyz/go-pulse/sweep"
)

func sweepCmd(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	c := defaultRunConfig()

	fs.StringVar(&c.gasName, "gas", c.gasName, "Fill gas (helium, neon, argon)")
	fs.Float64Var(&c.radius, "radius", c.radius, "Core radius in m")
	fs.Float64Var(&c.length, "length", c.length, "Fibre length in m")
	fs.Float64Var(&c.wavelength, "wavelength", c.wavelength, "Carrier wavelength in m")
	fs.Float64Var(&c.duration, "duration", c.duration, "Pulse duration in s")
	fs.IntVar(&c.samples, "samples", c.samples, "Spectral samples (power of two)")
	fs.BoolVar(&c.plasma, "plasma", c.plasma, "Include the ionization response")

	pressureSpec := fs.String("pressure", "", "Sweep fill pressure: 'min:max:count' in bar")
	fieldSpec := fs.String("field", "", "Sweep peak field: 'min:max:count' in V/m")
	objective := fs.String("objective", "maximize_broadening", "Optimization objective")
	workers := fs.Int("parallel", 4, "Number of parallel runs")
	output := fs.String("output", "sweep_results.json", "Output file for sweep results")
	dbPath := fs.String("db", "", "Optional SQLite archive for every variant run")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pulse sweep [options]

Explore fill pressure and drive strength to optimize an objective.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Objectives:
  maximize_broadening   Maximize spectral RMS broadening
  maximize_peak_power   Maximize the peak power reached along the fibre
  minimize_energy_loss  Minimize transmission loss
  minimize_duration     Minimize the exit pulse duration

Examples:
  # Pressure scan at fixed drive
  pulse sweep --pressure 0.5:3.0:11 --output sweep.json

  # Two-axis scan with 8 workers
  pulse sweep --pressure 0.5:3.0:6 --field 1e10:5e10:5 --parallel 8
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pressureSpec == "" && *fieldSpec == "" {
		fs.Usage()
		return fmt.Errorf("at least one sweep axis required (--pressure or --field)")
	}
	obj, ok := sweep.Objectives[*objective]
	if !ok {
		return fmt.Errorf("unknown objective: %s", *objective)
	}

	var params []sweep.Param
	if *pressureSpec != "" {
		p, err := parseAxis("pressure", *pressureSpec)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	if *fieldSpec != "" {
		p, err := parseAxis("field", *fieldSpec)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	runner := &sweep.Runner{
		Workers:       *workers,
		Objective:     obj,
		ObjectiveName: *objective,
		Run: func(_ context.Context, assignment map[string]float64) (*results.Results, error) {
			variant := c
			if p, ok := assignment["pressure"]; ok {
				variant.pressureIn, variant.pressureOut = p, p
			}
			if f, ok := assignment["field"]; ok {
				variant.peakField = f
			}
			res, err := variant.execute()
			if err != nil {
				return nil, err
			}
			if *dbPath != "" {
				if serr := archiveRun(*dbPath, res); serr != nil {
					return nil, serr
				}
			}
			return res, nil
		},
	}

	total := 1
	for _, p := range params {
		total *= len(p.Values)
	}
	fmt.Fprintf(os.Stderr, "Parameter sweep: %d variants, objective %s\n", total, *objective)

	outcome, err := runner.Execute(context.Background(), params)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Completed: %d ok, %d failed\n",
		outcome.Summary.SuccessCount, outcome.Summary.FailureCount)
	if outcome.Best != nil {
		fmt.Fprintf(os.Stderr, "Best (score %.4g):\n", outcome.Best.Score)
		for name, value := range outcome.Best.Parameters {
			fmt.Fprintf(os.Stderr, "  %s = %g\n", name, value)
		}
	}
	fmt.Fprintf(os.Stderr, "Output: %s\n", *output)
	return nil
}

// parseAxis parses a "min:max:count" axis specification.
func parseAxis(name, spec string) (sweep.Param, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) != 3 {
		return sweep.Param{}, fmt.Errorf("invalid range for %s: %s (expected min:max:count)", name, spec)
	}
	min, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return sweep.Param{}, fmt.Errorf("invalid min for %s: %s", name, parts[0])
	}
	max, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return sweep.Param{}, fmt.Errorf("invalid max for %s: %s", name, parts[1])
	}
	count, err := strconv.Atoi(parts[2])
	if err != nil {
		return sweep.Param{}, fmt.Errorf("invalid count for %s: %s", name, parts[2])
	}
	return sweep.Linspace(name, min, max, count)
}
