// Package optim tunes experiment parameters by exhaustive search.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/qdsim/internal/config"
	"github.com/san-kum/qdsim/internal/experiment"
)

var (
	ErrNoResult      = errors.New("optim: no grid point completed")
	ErrUnknownMetric = errors.New("optim: metric not reported")
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every grid point and returns the parameters minimising
// metricName. Points whose experiment cannot be built or fails are
// skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoResult
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMetric, metricName)
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// ControlGains returns a builder that copies base and overrides its PID
// settings with the kp, ki, kd, target and max_amplitude params present.
func ControlGains(base *config.Config, setup func(*experiment.Experiment)) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		if base.Control == nil {
			return nil, fmt.Errorf("%w: no control section", config.ErrInvalidConfig)
		}
		cfg := *base
		ctl := *base.Control
		for name, v := range params {
			switch name {
			case "kp":
				ctl.Kp = v
			case "ki":
				ctl.Ki = v
			case "kd":
				ctl.Kd = v
			case "target":
				ctl.Target = v
			case "max_amplitude":
				ctl.MaxAmplitude = v
			default:
				return nil, fmt.Errorf("%w: unknown control parameter %q", config.ErrInvalidConfig, name)
			}
		}
		cfg.Control = &ctl

		exp, err := experiment.New(&cfg)
		if err != nil {
			return nil, err
		}
		if setup != nil {
			setup(exp)
		}
		return exp, nil
	}
}
