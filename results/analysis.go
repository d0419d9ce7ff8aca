package results

import "math"

// Analyzer computes insights from run results
type Analyzer struct {
	results *Results
}

// NewAnalyzer creates an analyzer for results
func NewAnalyzer(r *Results) *Analyzer {
	return &Analyzer{results: r}
}

// ComputeAll derives the standard insight set from the recorded series.
// Observable-specific entries are skipped when the corresponding series
// was not recorded.
func (a *Analyzer) ComputeAll() *Analysis {
	analysis := &Analysis{
		Statistics: make(map[string]Stat),
	}

	series := a.results.Results.Series
	for name, data := range series.Observables {
		if len(data) == 0 {
			continue
		}
		analysis.Statistics[name] = computeStats(data)
	}

	if w, ok := series.Observables["spectral_rms_width"]; ok && len(w) > 1 && w[0] > 0 {
		analysis.Broadening = w[len(w)-1] / w[0]
	}
	if p, ok := series.Observables["peak_power"]; ok && len(p) > 0 && len(series.Z) == len(p) {
		best := 0
		for i, v := range p {
			if v > p[best] {
				best = i
			}
		}
		analysis.CompressionZ = series.Z[best]
	}
	if e, ok := series.Observables["energy"]; ok && len(e) > 1 && e[0] > 0 {
		analysis.EnergyRatio = e[len(e)-1] / e[0]
	}

	return analysis
}

func computeStats(data []float64) Stat {
	s := Stat{Min: math.Inf(1), Max: math.Inf(-1), Final: data[len(data)-1]}
	sum := 0.0
	for _, v := range data {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(data))
	return s
}
