package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pulse-xyz/go-pulse/results"
)

func summary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pulse summary <results.json>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("results file required")
	}

	res, err := results.ReadJSON(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s)\n", res.Metadata.RunID, res.Metadata.Status)
	fmt.Printf("  %s, %.2g m, core %.3g um, %s %g -> %g bar\n",
		res.Fibre.Gas, res.Fibre.Length, res.Fibre.CoreRadius*1e6,
		"pressure", res.Fibre.Pressure[0], res.Fibre.Pressure[1])
	fmt.Printf("  Pulse: %.0f nm, %.3g fs, %.3g V/m\n",
		res.Pulse.Wavelength*1e9, res.Pulse.Duration*1e15, res.Pulse.PeakField)
	fmt.Printf("  Stepper: %d accepted, %d rejected, %d snapshots\n",
		res.Results.Summary.Steps, res.Results.Summary.Rejected, res.Results.Summary.Snapshots)
	if res.Metadata.Error != "" {
		fmt.Printf("  Error: %s\n", res.Metadata.Error)
	}
	if res.Analysis != nil {
		if res.Analysis.Broadening > 0 {
			fmt.Printf("  Spectral broadening: %.2fx\n", res.Analysis.Broadening)
		}
		if res.Analysis.EnergyRatio > 0 {
			fmt.Printf("  Transmission: %.1f%%\n", 100*res.Analysis.EnergyRatio)
		}
		if res.Analysis.CompressionZ > 0 {
			fmt.Printf("  Peak power maximum at z = %.3g m\n", res.Analysis.CompressionZ)
		}
	}
	return nil
}
