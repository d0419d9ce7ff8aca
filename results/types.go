// Package results defines the structured output format for propagation runs
package results

import "time"

const SchemaVersion = "1.0.0"

// Results contains complete run output
type Results struct {
	Version    string     `json:"version"`
	Metadata   Metadata   `json:"metadata"`
	Fibre      Fibre      `json:"fibre"`
	Pulse      Pulse      `json:"pulse"`
	Simulation Simulation `json:"simulation"`
	Results    Data       `json:"results"`
	Analysis   *Analysis  `json:"analysis,omitempty"`
}

// Metadata contains run execution information
type Metadata struct {
	RunID       string    `json:"runId"`
	Timestamp   time.Time `json:"timestamp"`
	Solver      string    `json:"solver"`
	Status      string    `json:"status"` // success, error
	Error       string    `json:"error,omitempty"`
	ComputeTime float64   `json:"computeTime"` // seconds
}

// Fibre summarizes the waveguide and fill
type Fibre struct {
	Length     float64    `json:"length"`     // m
	CoreRadius float64    `json:"coreRadius"` // m
	CladIndex  float64    `json:"cladIndex"`
	Gas        string     `json:"gas"`
	Pressure   [2]float64 `json:"pressure"` // bar at entrance and exit
	Modes      []string   `json:"modes"`
}

// Pulse summarizes the input pulse
type Pulse struct {
	Wavelength float64 `json:"wavelength"` // m
	Duration   float64 `json:"duration"`   // s, 1/e field half-width
	PeakField  float64 `json:"peakField"`  // V/m
	Energy     float64 `json:"energy,omitempty"`
}

// Simulation contains discretization and stepper parameters
type Simulation struct {
	Samples    int            `json:"samples"`
	TimeWindow float64        `json:"timeWindow"` // s
	Band       [2]float64     `json:"band"`       // rad/s
	Options    *SolverOptions `json:"options,omitempty"`
}

// SolverOptions mirrors the adaptive controller configuration
type SolverOptions struct {
	InitialStep float64 `json:"initialStep,omitempty"`
	MinStep     float64 `json:"minStep,omitempty"`
	MaxStep     float64 `json:"maxStep,omitempty"`
	Abstol      float64 `json:"abstol,omitempty"`
	Reltol      float64 `json:"reltol,omitempty"`
}

// Data contains the recorded output
type Data struct {
	Summary Summary   `json:"summary"`
	Series  Series    `json:"series"`
	Final   *Spectrum `json:"final,omitempty"`
}

// Summary provides a quick overview
type Summary struct {
	Snapshots int     `json:"snapshots"`
	Steps     int     `json:"steps"`
	Rejected  int     `json:"rejected"`
	FinalZ    float64 `json:"finalZ"`
}

// Series holds the per-snapshot observables keyed by name
type Series struct {
	Z           []float64            `json:"z"`
	Observables map[string][]float64 `json:"observables"`
}

// Spectrum is the spectral intensity per mode on the coarse axis,
// possibly downsampled for storage
type Spectrum struct {
	W         []float64   `json:"w"`         // rad/s
	Intensity [][]float64 `json:"intensity"` // [mode][frequency]
}

// Analysis contains automatically computed insights
type Analysis struct {
	Broadening   float64         `json:"broadening,omitempty"`   // final/initial spectral RMS width
	CompressionZ float64         `json:"compressionZ,omitempty"` // z of maximum peak power
	EnergyRatio  float64         `json:"energyRatio,omitempty"`  // final/initial energy
	Statistics   map[string]Stat `json:"statistics,omitempty"`
}

// Stat contains a statistical summary of one observable along z
type Stat struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Final float64 `json:"final"`
}
