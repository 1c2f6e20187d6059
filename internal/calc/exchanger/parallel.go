package exchanger

import "golang.org/x/sync/errgroup"

type outcome struct {
	idx int
	res Result
	err error
}

// evaluate runs ComputeReading over the batch. Readings are independent, so
// batches at or above ParallelThreshold fan out over Workers goroutines;
// every outcome lands in its input slot, keeping order stable.
func (e *Engine) evaluate(readings []Reading, cfg Config) []outcome {
	out := make([]outcome, len(readings))
	if e.Workers <= 1 || e.ParallelThreshold <= 0 || len(readings) < e.ParallelThreshold {
		for i, r := range readings {
			res, err := ComputeReading(i, r, cfg)
			out[i] = outcome{idx: i, res: res, err: err}
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(e.Workers)
	for i, r := range readings {
		i, r := i, r
		g.Go(func() error {
			res, err := ComputeReading(i, r, cfg)
			out[i] = outcome{idx: i, res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
