package sweep

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pulse-xyz/go-pulse/results"
)

// fakeRun produces a results document whose broadening peaks at
// pressure=2, energy=1.
func fakeRun(_ context.Context, params map[string]float64) (*results.Results, error) {
	p := params["pressure"]
	e := params["energy"]
	broadening := 10 - (p-2)*(p-2) - (e-1)*(e-1)
	r := results.NewBuilder().Build()
	r.Analysis = &results.Analysis{Broadening: broadening}
	return r, nil
}

func TestLinspace(t *testing.T) {
	p, err := Linspace("pressure", 1, 3, 5)
	if err != nil {
		t.Fatalf("Linspace: %v", err)
	}
	want := []float64{1, 1.5, 2, 2.5, 3}
	for i, v := range want {
		if math.Abs(p.Values[i]-v) > 1e-12 {
			t.Errorf("value %d = %g, want %g", i, p.Values[i], v)
		}
	}

	if _, err := Linspace("", 0, 1, 3); err == nil {
		t.Error("empty name: expected error")
	}
	if _, err := Linspace("x", 1, 1, 3); err == nil {
		t.Error("empty range: expected error")
	}
	if _, err := Linspace("x", 0, 1, 1); err == nil {
		t.Error("single value: expected error")
	}
}

func TestExecuteFindsOptimum(t *testing.T) {
	pressure, _ := Linspace("pressure", 1, 3, 5)
	energy, _ := Linspace("energy", 0.5, 1.5, 3)

	runner := &Runner{
		Workers:       4,
		Run:           fakeRun,
		Objective:     Objectives["maximize_broadening"],
		ObjectiveName: "maximize_broadening",
	}
	outcome, err := runner.Execute(context.Background(), []Param{pressure, energy})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if outcome.Summary.TotalVariants != 15 {
		t.Fatalf("got %d variants, want 15", outcome.Summary.TotalVariants)
	}
	if outcome.Summary.FailureCount != 0 {
		t.Fatalf("unexpected failures: %d", outcome.Summary.FailureCount)
	}
	if outcome.Best == nil {
		t.Fatal("no best variant")
	}
	if outcome.Best.Parameters["pressure"] != 2 || outcome.Best.Parameters["energy"] != 1 {
		t.Errorf("best at %v, want pressure=2 energy=1", outcome.Best.Parameters)
	}

	// Ranks are 1..n in score order.
	for i, v := range outcome.Variants {
		if v.Rank != i+1 {
			t.Fatalf("variant %d has rank %d", i, v.Rank)
		}
		if i > 0 && v.Score < outcome.Variants[i-1].Score {
			t.Fatalf("scores out of order at %d", i)
		}
		if v.ID == "" {
			t.Fatal("variant missing ID")
		}
	}
}

func TestFailedRunsRankLast(t *testing.T) {
	pressure, _ := Linspace("pressure", 1, 3, 3)
	runner := &Runner{
		Run: func(ctx context.Context, params map[string]float64) (*results.Results, error) {
			if params["pressure"] > 2.5 {
				return nil, fmt.Errorf("field diverged")
			}
			return fakeRun(ctx, params)
		},
		Objective: Objectives["maximize_broadening"],
	}
	outcome, err := runner.Execute(context.Background(), []Param{pressure})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Summary.FailureCount != 1 {
		t.Fatalf("failure count = %d, want 1", outcome.Summary.FailureCount)
	}
	last := outcome.Variants[len(outcome.Variants)-1]
	if last.Status != "error" || last.Error == "" {
		t.Errorf("failed variant not ranked last: %+v", last)
	}
}

func TestSerialAndParallelAgree(t *testing.T) {
	pressure, _ := Linspace("pressure", 1, 3, 9)
	var calls atomic.Int64
	counted := func(ctx context.Context, params map[string]float64) (*results.Results, error) {
		calls.Add(1)
		return fakeRun(ctx, params)
	}

	for _, workers := range []int{0, 1, 8} {
		calls.Store(0)
		runner := &Runner{Workers: workers, Run: counted, Objective: Objectives["maximize_broadening"]}
		outcome, err := runner.Execute(context.Background(), []Param{pressure})
		if err != nil {
			t.Fatalf("Execute(workers=%d): %v", workers, err)
		}
		if calls.Load() != 9 {
			t.Errorf("workers=%d: %d evaluations, want 9", workers, calls.Load())
		}
		if outcome.Best.Parameters["pressure"] != 2 {
			t.Errorf("workers=%d: best pressure = %g, want 2", workers, outcome.Best.Parameters["pressure"])
		}
	}
}

func TestExecuteValidation(t *testing.T) {
	pressure, _ := Linspace("pressure", 1, 3, 3)
	obj := Objectives["maximize_broadening"]

	if _, err := (&Runner{Objective: obj}).Execute(context.Background(), []Param{pressure}); err == nil {
		t.Error("missing run function: expected error")
	}
	if _, err := (&Runner{Run: fakeRun}).Execute(context.Background(), []Param{pressure}); err == nil {
		t.Error("missing objective: expected error")
	}
	if _, err := (&Runner{Run: fakeRun, Objective: obj}).Execute(context.Background(), nil); err == nil {
		t.Error("no parameters: expected error")
	}
	if _, err := (&Runner{Run: fakeRun, Objective: obj}).Execute(context.Background(), []Param{{Name: "x"}}); err == nil {
		t.Error("empty axis: expected error")
	}
}
