package propagation

import "log"

// Options controls the adaptive stepper. Zero values of the step fields
// are resolved against the grid length when the run starts.
type Options struct {
	// InitialStep is the first trial step in metres. Zero selects a
	// conservative fraction of the fibre length.
	InitialStep float64
	// MinStep is the smallest step the controller may take before
	// aborting with a StepSizeUnderflowError. Zero selects a tiny
	// fraction of the fibre length.
	MinStep float64
	// MaxStep caps the step growth. Zero means the full fibre length.
	MaxStep float64

	// Abstol and Reltol weight the embedded error estimate per spectral
	// sample: scale_i = Abstol + Reltol*max(|u_i|, |u'_i|).
	Abstol float64
	Reltol float64

	// Controller shape. Safety damps the optimal-step prediction,
	// MaxGrowth and MinShrink clamp the per-step change factor.
	Safety    float64
	MaxGrowth float64
	MinShrink float64

	// MaxSteps bounds the total number of step attempts (accepted plus
	// rejected) so a misconfigured run terminates.
	MaxSteps int

	// Verbose logs accepted and rejected steps.
	Verbose bool
}

// DefaultOptions returns settings that balance speed and accuracy for
// typical centimetre-to-metre capillary runs.
func DefaultOptions() *Options {
	return &Options{
		Abstol:    1e-10,
		Reltol:    1e-6,
		Safety:    0.9,
		MaxGrowth: 5.0,
		MinShrink: 0.1,
		MaxSteps:  1_000_000,
	}
}

// HighAccuracyOptions tightens the tolerances for convergence studies.
func HighAccuracyOptions() *Options {
	o := DefaultOptions()
	o.Abstol = 1e-12
	o.Reltol = 1e-9
	return o
}

// FastOptions loosens the tolerances for quick surveys.
func FastOptions() *Options {
	o := DefaultOptions()
	o.Reltol = 1e-4
	return o
}

// resolve fills the zero step fields from the fibre length and checks
// the controller constants.
func (o *Options) resolve(zmax float64) *ConfigurationError {
	if o.MaxStep <= 0 {
		o.MaxStep = zmax
	}
	if o.InitialStep <= 0 {
		o.InitialStep = zmax / 1000
	}
	if o.MinStep <= 0 {
		o.MinStep = zmax * 1e-12
	}
	if o.MinStep > o.MaxStep {
		return &ConfigurationError{Component: "options", Detail: "MinStep exceeds MaxStep"}
	}
	if o.InitialStep < o.MinStep {
		o.InitialStep = o.MinStep
	}
	if o.InitialStep > o.MaxStep {
		o.InitialStep = o.MaxStep
	}
	if o.Abstol <= 0 && o.Reltol <= 0 {
		return &ConfigurationError{Component: "options", Detail: "Abstol and Reltol must not both be zero"}
	}
	if o.Abstol < 0 || o.Reltol < 0 {
		return &ConfigurationError{Component: "options", Detail: "tolerances must be non-negative"}
	}
	if o.Safety <= 0 || o.Safety >= 1 {
		return &ConfigurationError{Component: "options", Detail: "Safety must lie in (0, 1)"}
	}
	if o.MaxGrowth <= 1 {
		return &ConfigurationError{Component: "options", Detail: "MaxGrowth must exceed 1"}
	}
	if o.MinShrink <= 0 || o.MinShrink >= 1 {
		return &ConfigurationError{Component: "options", Detail: "MinShrink must lie in (0, 1)"}
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 1_000_000
	}
	return nil
}

func (o *Options) logf(format string, args ...any) {
	if o.Verbose {
		log.Printf(format, args...)
	}
}
