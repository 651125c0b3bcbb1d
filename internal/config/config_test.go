package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/qdsim/internal/operator"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Equation != EquationLME {
		t.Errorf("expected equation lme, got %s", cfg.Equation)
	}
	if cfg.TStep <= 0 {
		t.Error("tstep should be positive")
	}
	if cfg.TF <= 0 {
		t.Error("tf should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lme", "decay")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Lindblad) != 1 {
		t.Errorf("expected 1 lindblad operator, got %d", len(cfg.Lindblad))
	}

	cfg.TF = 99
	if GetPreset("lme", "decay").TF == 99 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("lme", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "rabi")
	if cfg != nil {
		t.Error("expected nil for nonexistent equation")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("lme")
	want := []string{"controlled", "decay", "dephasing", "rabi"}
	if len(presets) != len(want) {
		t.Fatalf("expected %v, got %v", want, presets)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("presets[%d]: expected %s, got %s", i, want[i], presets[i])
		}
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent equation")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, eq := range Equations() {
		for _, name := range ListPresets(eq) {
			cfg := GetPreset(eq, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s: %v", eq, name, err)
			}
			ops, err := cfg.Operators()
			if err != nil {
				t.Fatalf("preset %s/%s: %v", eq, name, err)
			}
			tr, _ := operator.Trace(ops.Initial)
			if tr != 1 {
				t.Errorf("preset %s/%s: initial trace %v", eq, name, tr)
			}
			if !operator.IsHermitian(ops.Hamiltonian) {
				t.Errorf("preset %s/%s: hamiltonian is not Hermitian", eq, name)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown equation", func(c *Config) { c.Equation = "schrodinger" }},
		{"unknown method", func(c *Config) { c.Method = "leapfrog" }},
		{"zero tstep", func(c *Config) { c.TStep = 0 }},
		{"tf below tstep", func(c *Config) { c.TF = c.TStep / 2 }},
		{"missing hamiltonian", func(c *Config) { c.Hamiltonian = nil }},
		{"fme without feedback", func(c *Config) { c.Equation = EquationFME }},
		{"bad cell", func(c *Config) { c.Initial = Matrix{{"1", "x"}, {"0", "0"}} }},
		{"ragged rows", func(c *Config) { c.Initial = Matrix{{"1", "0"}, {"0"}} }},
		{"control without drive", func(c *Config) { c.Control = &ControlConfig{Observable: sigmaZ} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMatrixParse(t *testing.T) {
	m, err := Matrix{{"0", "-1i"}, {"1i", "(0.5+0.25i)"}}.CDense()
	if err != nil {
		t.Fatal(err)
	}
	if m.At(0, 1) != -1i || m.At(1, 0) != 1i || m.At(1, 1) != complex(0.5, 0.25) {
		t.Errorf("unexpected matrix %v", m.RawCMatrix().Data)
	}

	back, err := MatrixOf(m).CDense()
	if err != nil {
		t.Fatal(err)
	}
	if back.At(1, 1) != m.At(1, 1) {
		t.Errorf("formatted matrix did not parse back: %v", back.At(1, 1))
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("lme", "controlled")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "controlled" || loaded.TF != 5.0 {
		t.Errorf("unexpected config %+v", loaded)
	}
	if loaded.Control == nil || loaded.Control.Kp != 1.0 {
		t.Errorf("control section not restored: %+v", loaded.Control)
	}
	if loaded.Hamiltonian[0][0] != "0" {
		t.Errorf("unexpected hamiltonian %v", loaded.Hamiltonian)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "name: partial\ninitial:\n  - [\"1\", \"0\"]\n  - [\"0\", \"0\"]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Equation != EquationLME || cfg.Method != DefaultMethod {
		t.Errorf("expected scalar defaults, got %s/%s", cfg.Equation, cfg.Method)
	}
	if cfg.TStep != DefaultTStep || cfg.TF != DefaultTF {
		t.Errorf("expected default tstep/tf, got %g/%g", cfg.TStep, cfg.TF)
	}
	if cfg.Hamiltonian != nil {
		t.Errorf("hamiltonian should not be filled in, got %v", cfg.Hamiltonian)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for a missing hamiltonian, got %v", err)
	}
}
