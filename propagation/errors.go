package propagation

import "fmt"

// ConfigurationError reports an invalid problem setup. It is detected
// before the first step and never retried.
type ConfigurationError struct {
	Component string
	Detail    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("propagation: %s: %s", e.Component, e.Detail)
}

// NumericalDivergenceError reports a non-finite field sample detected
// after an accepted step. The run is aborted.
type NumericalDivergenceError struct {
	Z float64
}

func (e *NumericalDivergenceError) Error() string {
	return fmt.Sprintf("propagation: field diverged (non-finite sample) at z=%g m", e.Z)
}

// StepSizeUnderflowError reports that the adaptive controller could not
// satisfy the tolerance above the minimum step. The run is aborted.
type StepSizeUnderflowError struct {
	Z    float64 // last accepted position
	Step float64 // attempted step below the floor
}

func (e *StepSizeUnderflowError) Error() string {
	return fmt.Sprintf("propagation: step size %g m below floor at z=%g m without meeting tolerance", e.Step, e.Z)
}
