package batch

import (
	"fmt"

	exchanger "HeatX/internal/calc/exchanger"
)

type Run struct {
	Name string `json:"name"`
	exchanger.Input
}

type BatchInput struct {
	Runs []Run `json:"runs"`
}

type RunResult struct {
	Name   string            `json:"name"`
	Output *exchanger.Output `json:"output,omitempty"`
	Error  string            `json:"error,omitempty"`
}

type BatchResult struct {
	Results []RunResult `json:"results"`
}

// Calculate evaluates each run on its own; a run rejected as a whole keeps
// its error and does not affect the others.
func Calculate(calc func(exchanger.Input) (exchanger.Output, error), in BatchInput) (BatchResult, error) {
	if len(in.Runs) == 0 {
		return BatchResult{}, fmt.Errorf("no runs")
	}
	out := BatchResult{Results: make([]RunResult, 0, len(in.Runs))}
	for i, run := range in.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run %d", i+1)
		}
		res, err := calc(run.Input)
		if err != nil {
			out.Results = append(out.Results, RunResult{Name: name, Error: err.Error()})
			continue
		}
		out.Results = append(out.Results, RunResult{Name: name, Output: &res})
	}
	return out, nil
}

type Comparison struct {
	Min     exchanger.Output `json:"min"`
	Average exchanger.Output `json:"average"`
}

// ComparePolicies computes the same readings under both duty policies.
func ComparePolicies(calc func(exchanger.Input) (exchanger.Output, error), in exchanger.Input) (Comparison, error) {
	var cmp Comparison
	var err error

	in.Policy = exchanger.PolicyMin
	if cmp.Min, err = calc(in); err != nil {
		return Comparison{}, err
	}
	in.Policy = exchanger.PolicyAverage
	if cmp.Average, err = calc(in); err != nil {
		return Comparison{}, err
	}
	return cmp, nil
}
