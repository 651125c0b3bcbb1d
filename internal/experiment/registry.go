package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/metrics"
)

type Registry struct {
	metrics map[string]func() lme.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() lme.Metric),
	}

	r.metrics["trace_drift"] = func() lme.Metric { return metrics.NewTraceDrift() }
	r.metrics["hermiticity_drift"] = func() lme.Metric { return metrics.NewHermiticityDrift() }
	r.metrics["purity"] = func() lme.Metric { return metrics.NewPurity() }
	r.metrics["min_eigenvalue"] = func() lme.Metric { return metrics.NewPositivity() }

	return r
}

func (r *Registry) GetMetric(name string) (func() lme.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []func() lme.Metric {
	return []func() lme.Metric{
		r.metrics["trace_drift"],
		r.metrics["hermiticity_drift"],
		r.metrics["purity"],
	}
}
