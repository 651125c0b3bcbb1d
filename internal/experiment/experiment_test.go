package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/qdsim/internal/config"
	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/operator"
)

func TestRunPresets(t *testing.T) {
	reg := NewRegistry()
	for _, eq := range config.Equations() {
		for _, name := range config.ListPresets(eq) {
			t.Run(eq+"/"+name, func(t *testing.T) {
				cfg := config.GetPreset(eq, name)
				cfg.TF = 1.0

				exp, err := New(cfg)
				if err != nil {
					t.Fatalf("new: %v", err)
				}
				exp.Setup(reg.DefaultMetrics()...)

				res, err := exp.Run(context.Background())
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				if res.Status != lme.Completed {
					t.Errorf("expected completed, got %s", res.Status)
				}
				if res.Metrics["trace_drift"] > 1e-9 {
					t.Errorf("trace drift %g", res.Metrics["trace_drift"])
				}
				if res.Metrics["hermiticity_drift"] > 1e-12 {
					t.Errorf("hermiticity drift %g", res.Metrics["hermiticity_drift"])
				}
			})
		}
	}
}

func TestRunControlledAddsEffort(t *testing.T) {
	exp, err := New(config.GetPreset("lme", "controlled"))
	if err != nil {
		t.Fatal(err)
	}

	first, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Metrics["control_effort"] <= 0 {
		t.Errorf("expected positive control effort, got %f", first.Metrics["control_effort"])
	}

	second, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	_, a, _ := first.Trajectory.Last()
	_, b, _ := second.Trajectory.Last()
	diff, err := operator.Sub(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if operator.MaxAbs(diff) != 0 {
		t.Error("repeated runs should be identical")
	}
}

func TestRunDecayPopulation(t *testing.T) {
	cfg := config.GetPreset("lme", "decay")
	cfg.TF = 2.0
	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tf, last, err := res.Trajectory.Last()
	if err != nil {
		t.Fatal(err)
	}
	// gamma = 0.5
	want := math.Exp(-0.5 * tf)
	if got := real(last.At(1, 1)); math.Abs(got-want) > 1e-6 {
		t.Errorf("excited population %f, want %f", got, want)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Method = "verlet"
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunShapeError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Hamiltonian = config.Matrix{{"1", "0", "0"}, {"0", "1", "0"}, {"0", "0", "1"}}
	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Run(context.Background()); !errors.Is(err, lme.ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	exp, err := New(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunBatch(t *testing.T) {
	var cfgs []*config.Config
	for _, tf := range []float64{0.1, 0.2, 0.3} {
		cfg := config.DefaultConfig()
		cfg.TF = tf
		cfgs = append(cfgs, cfg)
	}

	results, err := RunBatch(context.Background(), cfgs, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Trajectory.Len() <= results[i-1].Trajectory.Len() {
			t.Errorf("results out of order at %d", i)
		}
	}
}

func TestRunBatchFailure(t *testing.T) {
	good := config.DefaultConfig()
	bad := config.DefaultConfig()
	bad.Initial = config.Matrix{{"1", "1"}, {"0", "0"}}

	if _, err := RunBatch(context.Background(), []*config.Config{good, bad}, 0, nil); !errors.Is(err, lme.ErrInvariantViolation) {
		t.Errorf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	names := reg.ListMetrics()
	if len(names) != 4 {
		t.Errorf("expected 4 metrics, got %v", names)
	}
	for _, name := range names {
		fn, err := reg.GetMetric(name)
		if err != nil {
			t.Fatal(err)
		}
		if fn().Name() != name {
			t.Errorf("metric %s reports name %s", name, fn().Name())
		}
	}
	if _, err := reg.GetMetric("energy"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGeneratorDecay(t *testing.T) {
	exp, err := New(config.GetPreset("lme", "decay"))
	if err != nil {
		t.Fatal(err)
	}
	gen, err := exp.Generator()
	if err != nil {
		t.Fatal(err)
	}
	r, c := gen.Dims()
	if r != 4 || c != 4 {
		t.Fatalf("expected 4x4 generator, got %dx%d", r, c)
	}
	// population transfer E11 -> E00 at gamma = 0.5; basis index 3 is E11
	if got := gen.At(3, 3); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("expected -0.5 decay of the excited population, got %f", got)
	}
}

func TestGeneratorFME(t *testing.T) {
	exp, err := New(config.GetPreset("fme", "feedback"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Generator(); err != nil {
		t.Fatal(err)
	}
}
