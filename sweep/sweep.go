// Package sweep explores parameter spaces by running many propagation
// variants in parallel and ranking them against an objective. The sweep
// itself is model-agnostic: callers provide a run function that maps one
// parameter assignment to a results document.
package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pulse-xyz/go-pulse/results"
)

// Param is one swept axis with its explicit value list.
type Param struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// Linspace builds a parameter axis with count evenly spaced values.
func Linspace(name string, min, max float64, count int) (Param, error) {
	if name == "" {
		return Param{}, fmt.Errorf("sweep: parameter name is required")
	}
	if count < 2 {
		return Param{}, fmt.Errorf("sweep: %s needs at least 2 values, got %d", name, count)
	}
	if max <= min {
		return Param{}, fmt.Errorf("sweep: %s range [%g, %g] is empty", name, min, max)
	}
	values := make([]float64, count)
	step := (max - min) / float64(count-1)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	return Param{Name: name, Values: values, Min: min, Max: max}, nil
}

// Variant is one parameter assignment and its evaluation.
type Variant struct {
	ID         string             `json:"id"`
	Parameters map[string]float64 `json:"parameters"`
	Score      float64            `json:"score"`
	Rank       int                `json:"rank"`
	Status     string             `json:"status"` // success, error
	Error      string             `json:"error,omitempty"`
	RunID      string             `json:"runId,omitempty"`
}

// RunFunc evaluates one parameter assignment to a results document.
type RunFunc func(ctx context.Context, params map[string]float64) (*results.Results, error)

// Objective scores a results document; lower is better.
type Objective func(*results.Results) (float64, error)

// Objectives maps objective names to scoring functions. All of them read
// the analysis section, so run functions must attach one.
var Objectives = map[string]Objective{
	"maximize_broadening": func(r *results.Results) (float64, error) {
		if r.Analysis == nil || r.Analysis.Broadening == 0 {
			return 0, fmt.Errorf("no broadening recorded")
		}
		return -r.Analysis.Broadening, nil
	},

	"maximize_peak_power": func(r *results.Results) (float64, error) {
		if r.Analysis == nil {
			return 0, fmt.Errorf("no analysis recorded")
		}
		st, ok := r.Analysis.Statistics["peak_power"]
		if !ok {
			return 0, fmt.Errorf("no peak_power series recorded")
		}
		return -st.Max, nil
	},

	"minimize_energy_loss": func(r *results.Results) (float64, error) {
		if r.Analysis == nil || r.Analysis.EnergyRatio == 0 {
			return 0, fmt.Errorf("no energy series recorded")
		}
		return 1 - r.Analysis.EnergyRatio, nil
	},

	"minimize_duration": func(r *results.Results) (float64, error) {
		if r.Analysis == nil {
			return 0, fmt.Errorf("no analysis recorded")
		}
		st, ok := r.Analysis.Statistics["rms_width"]
		if !ok {
			return 0, fmt.Errorf("no rms_width series recorded")
		}
		return st.Final, nil
	},
}

// Summary is the aggregate view of one sweep.
type Summary struct {
	TotalVariants int     `json:"totalVariants"`
	SuccessCount  int     `json:"successCount"`
	FailureCount  int     `json:"failureCount"`
	BestScore     float64 `json:"bestScore"`
	WorstScore    float64 `json:"worstScore"`
}

// Outcome is the full sweep result document.
type Outcome struct {
	Version    string   `json:"version"`
	Objective  string   `json:"objective"`
	Parameters []Param  `json:"parameters"`
	Variants   []Variant `json:"variants"`
	Best       *Variant `json:"best,omitempty"`
	Worst      *Variant `json:"worst,omitempty"`
	Summary    Summary  `json:"summary"`
}

// Runner executes a sweep with a bounded worker pool.
type Runner struct {
	// Workers is the number of concurrent evaluations; values below 1
	// mean serial execution.
	Workers int
	// Run evaluates one variant.
	Run RunFunc
	// Objective scores each evaluation; lower is better. Failed runs
	// and failed scores rank last.
	Objective Objective
	// ObjectiveName is recorded in the outcome document.
	ObjectiveName string
}

// Execute evaluates the full cartesian product of the parameter axes.
func (r *Runner) Execute(ctx context.Context, params []Param) (*Outcome, error) {
	if r.Run == nil {
		return nil, fmt.Errorf("sweep: run function is required")
	}
	if r.Objective == nil {
		return nil, fmt.Errorf("sweep: objective is required")
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("sweep: at least one parameter axis is required")
	}
	for _, p := range params {
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("sweep: parameter %s has no values", p.Name)
		}
	}

	assignments := combinations(params)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	work := make(chan map[string]float64, len(assignments))
	out := make(chan Variant, len(assignments))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for assignment := range work {
				out <- r.evaluate(ctx, assignment)
			}
		}()
	}
	for _, assignment := range assignments {
		work <- assignment
	}
	close(work)
	go func() {
		wg.Wait()
		close(out)
	}()

	variants := make([]Variant, 0, len(assignments))
	for v := range out {
		variants = append(variants, v)
	}
	Rank(variants)

	outcome := &Outcome{
		Version:    results.SchemaVersion,
		Objective:  r.ObjectiveName,
		Parameters: params,
		Variants:   variants,
	}
	for i := range variants {
		switch variants[i].Status {
		case "success":
			outcome.Summary.SuccessCount++
		default:
			outcome.Summary.FailureCount++
		}
	}
	outcome.Summary.TotalVariants = len(variants)
	if n := len(variants); n > 0 {
		outcome.Best = &variants[0]
		outcome.Worst = &variants[n-1]
		outcome.Summary.BestScore = outcome.Best.Score
		outcome.Summary.WorstScore = outcome.Worst.Score
	}
	return outcome, nil
}

func (r *Runner) evaluate(ctx context.Context, assignment map[string]float64) Variant {
	v := Variant{
		ID:         uuid.NewString(),
		Parameters: assignment,
		Status:     "success",
	}
	res, err := r.Run(ctx, assignment)
	if err != nil {
		v.Status = "error"
		v.Error = err.Error()
		v.Score = math.MaxFloat64
		return v
	}
	v.RunID = res.Metadata.RunID
	score, err := r.Objective(res)
	if err != nil {
		v.Status = "error"
		v.Error = err.Error()
		v.Score = math.MaxFloat64
		return v
	}
	v.Score = score
	return v
}

// Rank sorts variants by ascending score and assigns 1-based ranks.
func Rank(variants []Variant) {
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Score < variants[j].Score
	})
	for i := range variants {
		variants[i].Rank = i + 1
	}
}

// combinations expands the cartesian product of the parameter axes.
func combinations(params []Param) []map[string]float64 {
	out := []map[string]float64{{}}
	for _, p := range params {
		next := make([]map[string]float64, 0, len(out)*len(p.Values))
		for _, base := range out {
			for _, val := range p.Values {
				assignment := make(map[string]float64, len(base)+1)
				for k, v := range base {
					assignment[k] = v
				}
				assignment[p.Name] = val
				next = append(next, assignment)
			}
		}
		out = next
	}
	return out
}
