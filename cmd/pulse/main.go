package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sweep":
		if err := sweepCmd(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "plot":
		if err := plot(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "summary":
		if err := summary(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("pulse version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pulse - ultrashort pulse propagation in gas-filled hollow capillaries

Usage:
  pulse <command> [options]

Commands:
  simulate   Propagate a pulse through a capillary fibre
  sweep      Parameter sweep and optimization
  plot       Generate SVG plots from run results
  summary    Display quick summary of run results
  runs       Inspect the run archive database
  help       Show this help message
  version    Show version information

Examples:
  # Propagate a 30 fs, 800 nm pulse through 1 bar of argon
  pulse simulate --gas argon --pressure 1.0 --length 0.5 --output run.json

  # Sweep the fill pressure for maximum broadening
  pulse sweep --pressure 0.5:3.0:11 --objective maximize_broadening --output sweep.json

  # Plot the exit spectrum
  pulse plot run.json --spectrum spectrum.svg

For command-specific help, run:
  pulse <command> --help`)
}
