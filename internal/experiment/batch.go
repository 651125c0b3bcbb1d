package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qdsim/internal/config"
	"github.com/san-kum/qdsim/internal/lme"
)

// RunBatch runs independent configurations concurrently, at most limit at
// a time when limit is positive. Results keep the order of cfgs. The first
// failure cancels the runs that have not started yet.
func RunBatch(ctx context.Context, cfgs []*config.Config, limit int, setup func(*Experiment), opts ...lme.Option) ([]*lme.Result, error) {
	exps := make([]*Experiment, len(cfgs))
	for i, cfg := range cfgs {
		exp, err := New(cfg, opts...)
		if err != nil {
			return nil, err
		}
		if setup != nil {
			setup(exp)
		}
		exps[i] = exp
	}

	results := make([]*lme.Result, len(exps))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, exp := range exps {
		i, exp := i, exp
		g.Go(func() error {
			res, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
