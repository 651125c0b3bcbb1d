package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/qdsim/internal/lme"
)

const (
	DefaultTStep  = 0.01
	DefaultTF     = 10.0
	DefaultMethod = "rk4"

	EquationLME = "lme"
	EquationFME = "fme"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name        string         `yaml:"name"`
	Equation    string         `yaml:"equation"`
	Method      string         `yaml:"method"`
	TStep       float64        `yaml:"tstep"`
	TF          float64        `yaml:"tf"`
	Initial     Matrix         `yaml:"initial"`
	Hamiltonian Matrix         `yaml:"hamiltonian"`
	Lindblad    []Matrix       `yaml:"lindblad,omitempty"`
	Measurement Matrix         `yaml:"measurement,omitempty"`
	Feedback    Matrix         `yaml:"feedback,omitempty"`
	Control     *ControlConfig `yaml:"control,omitempty"`
}

// ControlConfig configures PID feedback on the expectation of Observable
// through the drive Hamiltonian Drive.
type ControlConfig struct {
	Observable   Matrix  `yaml:"observable"`
	Drive        Matrix  `yaml:"drive"`
	Kp           float64 `yaml:"kp"`
	Ki           float64 `yaml:"ki"`
	Kd           float64 `yaml:"kd"`
	Target       float64 `yaml:"target"`
	MaxAmplitude float64 `yaml:"max_amplitude,omitempty"`
}

// Matrix is a row-major complex matrix whose cells are written the way
// strconv.ParseComplex reads them, e.g. "1", "-0.5i" or "(0.5+0.5i)".
type Matrix [][]string

// Operators holds the parsed matrices of a Config.
type Operators struct {
	Initial     *mat.CDense
	Hamiltonian *mat.CDense
	Lindblad    []*mat.CDense
	Measurement *mat.CDense
	Feedback    *mat.CDense
	Observable  *mat.CDense
	Drive       *mat.CDense
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "rabi",
		Equation:    EquationLME,
		Method:      DefaultMethod,
		TStep:       DefaultTStep,
		TF:          DefaultTF,
		Initial:     Matrix{{"1", "0"}, {"0", "0"}},
		Hamiltonian: Matrix{{"0", "1"}, {"1", "0"}},
	}
}

// Load reads a YAML config. Only the scalar settings have defaults; the
// operators must be given in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Equation: EquationLME,
		Method:   DefaultMethod,
		TStep:    DefaultTStep,
		TF:       DefaultTF,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked without integrating.
// Shape and Hermiticity are left to the engine.
func (c *Config) Validate() error {
	switch c.Equation {
	case EquationLME:
	case EquationFME:
		if len(c.Measurement) == 0 || len(c.Feedback) == 0 {
			return fmt.Errorf("%w: fme needs measurement and feedback operators", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown equation %q", ErrInvalidConfig, c.Equation)
	}
	if _, err := lme.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !(c.TStep > 0) {
		return fmt.Errorf("%w: tstep must be positive, got %g", ErrInvalidConfig, c.TStep)
	}
	if c.TF < c.TStep {
		return fmt.Errorf("%w: tf %g is shorter than tstep %g", ErrInvalidConfig, c.TF, c.TStep)
	}
	if len(c.Initial) == 0 || len(c.Hamiltonian) == 0 {
		return fmt.Errorf("%w: initial state and hamiltonian are required", ErrInvalidConfig)
	}
	if c.Control != nil && (len(c.Control.Observable) == 0 || len(c.Control.Drive) == 0) {
		return fmt.Errorf("%w: control needs observable and drive operators", ErrInvalidConfig)
	}
	_, err := c.Operators()
	return err
}

// Operators parses every matrix of the configuration.
func (c *Config) Operators() (*Operators, error) {
	ops := &Operators{}
	var err error
	if ops.Initial, err = c.Initial.CDense(); err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	if ops.Hamiltonian, err = c.Hamiltonian.CDense(); err != nil {
		return nil, fmt.Errorf("hamiltonian: %w", err)
	}
	for i, l := range c.Lindblad {
		m, err := l.CDense()
		if err != nil {
			return nil, fmt.Errorf("lindblad[%d]: %w", i, err)
		}
		ops.Lindblad = append(ops.Lindblad, m)
	}
	if len(c.Measurement) > 0 {
		if ops.Measurement, err = c.Measurement.CDense(); err != nil {
			return nil, fmt.Errorf("measurement: %w", err)
		}
	}
	if len(c.Feedback) > 0 {
		if ops.Feedback, err = c.Feedback.CDense(); err != nil {
			return nil, fmt.Errorf("feedback: %w", err)
		}
	}
	if c.Control != nil {
		if ops.Observable, err = c.Control.Observable.CDense(); err != nil {
			return nil, fmt.Errorf("control observable: %w", err)
		}
		if ops.Drive, err = c.Control.Drive.CDense(); err != nil {
			return nil, fmt.Errorf("control drive: %w", err)
		}
	}
	return ops, nil
}

// CDense parses m. Rows must all have the same, nonzero length.
func (m Matrix) CDense() (*mat.CDense, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidConfig)
	}
	r, c := len(m), len(m[0])
	data := make([]complex128, 0, r*c)
	for i, row := range m {
		if len(row) != c {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidConfig, i, len(row), c)
		}
		for j, cell := range row {
			v, err := strconv.ParseComplex(cell, 128)
			if err != nil {
				return nil, fmt.Errorf("%w: cell (%d,%d): %v", ErrInvalidConfig, i, j, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewCDense(r, c, data), nil
}

// MatrixOf formats a as a Matrix.
func MatrixOf(a mat.CMatrix) Matrix {
	r, c := a.Dims()
	m := make(Matrix, r)
	for i := range m {
		m[i] = make([]string, c)
		for j := range m[i] {
			m[i][j] = strconv.FormatComplex(a.At(i, j), 'g', -1, 128)
		}
	}
	return m
}

func (c *Config) clone() *Config {
	out := *c
	out.Lindblad = append([]Matrix(nil), c.Lindblad...)
	if c.Control != nil {
		ctl := *c.Control
		out.Control = &ctl
	}
	return &out
}
