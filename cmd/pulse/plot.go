package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pulse-xyz/go-pulse/plotter"
	"github.com/pulse-xyz/go-pulse/results"
)

func plot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	spectrumOut := fs.String("spectrum", "", "Output SVG for the exit spectrum")
	seriesOut := fs.String("observables", "", "Output SVG for observables along z")
	keys := fs.String("keys", "", "Comma-separated observables to plot (default: all)")
	width := fs.Float64("width", 900, "Plot width in px")
	height := fs.Float64("height", 600, "Plot height in px")
	floor := fs.Float64("floor", -60, "Spectral dynamic range in dB")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pulse plot <results.json> [options]

Generate SVG plots from run results.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  pulse plot run.json --spectrum spectrum.svg
  pulse plot run.json --observables evolution.svg --keys energy,spectral_rms_width
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("results file required")
	}
	if *spectrumOut == "" && *seriesOut == "" {
		fs.Usage()
		return fmt.Errorf("at least one of --spectrum or --observables required")
	}

	res, err := results.ReadJSON(fs.Arg(0))
	if err != nil {
		return err
	}

	if *spectrumOut != "" {
		if res.Results.Final == nil {
			return fmt.Errorf("results carry no exit spectrum")
		}
		svg, _ := plotter.PlotSpectrum(res, *width, *height, "Exit spectrum", *floor)
		if err := os.WriteFile(*spectrumOut, []byte(svg), 0644); err != nil {
			return fmt.Errorf("write spectrum plot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *spectrumOut)
	}

	if *seriesOut != "" {
		var keyList []string
		if *keys != "" {
			for _, k := range strings.Split(*keys, ",") {
				keyList = append(keyList, strings.TrimSpace(k))
			}
		}
		svg, _ := plotter.PlotObservables(res, keyList, *width, *height, "Evolution along the fibre")
		if err := os.WriteFile(*seriesOut, []byte(svg), 0644); err != nil {
			return fmt.Errorf("write observables plot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *seriesOut)
	}
	return nil
}
