package config

import "sort"

const (
	sqrtHalf    = "0.7071067811865476"
	sqrtQuarter = "0.5"
)

var (
	ground  = Matrix{{"1", "0"}, {"0", "0"}}
	excited = Matrix{{"0", "0"}, {"0", "1"}}
	plus    = Matrix{{"0.5", "0.5"}, {"0.5", "0.5"}}
	zero    = Matrix{{"0", "0"}, {"0", "0"}}
	sigmaX  = Matrix{{"0", "1"}, {"1", "0"}}
	sigmaZ  = Matrix{{"1", "0"}, {"0", "-1"}}
	halfZ   = Matrix{{"0.5", "0"}, {"0", "-0.5"}}
)

var Presets = map[string]map[string]*Config{
	EquationLME: {
		"rabi": {
			Name: "rabi", Equation: EquationLME, Method: "rk4", TStep: 0.01, TF: 10.0,
			Initial: ground, Hamiltonian: sigmaX,
		},
		"decay": {
			Name: "decay", Equation: EquationLME, Method: "rk4", TStep: 0.01, TF: 10.0,
			Initial: excited, Hamiltonian: halfZ,
			Lindblad: []Matrix{{{"0", sqrtHalf}, {"0", "0"}}},
		},
		"dephasing": {
			Name: "dephasing", Equation: EquationLME, Method: "rk4", TStep: 0.01, TF: 10.0,
			Initial: plus, Hamiltonian: zero,
			Lindblad: []Matrix{{{sqrtQuarter, "0"}, {"0", "-" + sqrtQuarter}}},
		},
		"controlled": {
			Name: "controlled", Equation: EquationLME, Method: "rk4", TStep: 0.01, TF: 5.0,
			Initial: ground, Hamiltonian: zero,
			Control: &ControlConfig{Observable: sigmaZ, Drive: sigmaX, Kp: 1.0, Target: 0.0},
		},
	},
	EquationFME: {
		"feedback": {
			Name: "feedback", Equation: EquationFME, Method: "rk4", TStep: 0.01, TF: 10.0,
			Initial: plus, Hamiltonian: halfZ,
			Measurement: Matrix{{"0", sqrtQuarter}, {"0", "0"}},
			Feedback:    Matrix{{"0", "-0.5i"}, {"0.5i", "0"}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(equation, preset string) *Config {
	presets, ok := Presets[equation]
	if !ok {
		return nil
	}
	cfg, ok := presets[preset]
	if !ok {
		return nil
	}
	return cfg.clone()
}

func ListPresets(equation string) []string {
	presets, ok := Presets[equation]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Equations() []string {
	return []string{EquationLME, EquationFME}
}
