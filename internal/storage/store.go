package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/signal"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var ErrCorrupt = errors.New("storage: corrupt run data")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Equation      string             `json:"equation"`
	Method        string             `json:"method"`
	Timestamp     time.Time          `json:"timestamp"`
	TStep         float64            `json:"tstep"`
	TF            float64            `json:"tf"`
	Order         int                `json:"order"`
	Samples       int                `json:"samples"`
	Status        string             `json:"status"`
	MaxDelta      float64            `json:"max_delta"`
	DriftExceeded bool               `json:"drift_exceeded"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes the run under a fresh ID and returns that ID. The
// trajectory is stored as its upper triangle; states are assumed
// Hermitian when loaded back.
func (s *Store) Save(name, equation string, tstep, tf float64, result *lme.Result) (string, error) {
	if result == nil || result.Trajectory == nil {
		return "", errors.New("storage: nothing to save")
	}
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	order, _, _ := result.Trajectory.Shape()
	meta := RunMetadata{
		ID:            runID,
		Name:          name,
		Equation:      equation,
		Method:        string(result.Method),
		Timestamp:     time.Now(),
		TStep:         tstep,
		TF:            tf,
		Order:         order,
		Samples:       result.Trajectory.Len(),
		Status:        result.Status.String(),
		MaxDelta:      result.MaxDelta,
		DriftExceeded: result.DriftExceeded,
		Metrics:       result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), result.Trajectory); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectory(path string, traj *signal.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	n, _, ok := traj.Shape()
	if !ok {
		w.Flush()
		return w.Error()
	}
	entries, err := traj.UpperTriangleTrajectories()
	if err != nil {
		return err
	}

	header := []string{"time"}
	for i := range entries {
		row, col := signal.UpperTriangleIndex(n, i)
		header = append(header, fmt.Sprintf("re_%d_%d", row, col), fmt.Sprintf("im_%d_%d", row, col))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	times := traj.Timeline()
	for k, t := range times {
		record := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, series := range entries {
			v := series[k]
			record = append(record,
				strconv.FormatFloat(real(v), 'g', -1, 64),
				strconv.FormatFloat(imag(v), 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory rebuilds the stored trajectory, filling the lower
// triangle with the conjugate of the upper one.
func (s *Store) LoadTrajectory(runID string) (*signal.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	traj := signal.New(runID)
	if len(records) < 2 {
		return traj, nil
	}

	n := orderOf(len(records[0]))
	if n == 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrCorrupt, len(records[0]))
	}

	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			if values[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, line+2, err)
			}
		}

		state := mat.NewCDense(n, n, nil)
		for i := 0; i < n*(n+1)/2; i++ {
			row, col := signal.UpperTriangleIndex(n, i)
			v := complex(values[1+2*i], values[2+2*i])
			state.Set(row, col, v)
			if row != col {
				state.Set(col, row, complex(real(v), -imag(v)))
			}
		}
		if err := traj.Append(values[0], state); err != nil {
			return nil, err
		}
	}
	return traj, nil
}

// orderOf returns n such that 1 + n(n+1) == columns, or 0.
func orderOf(columns int) int {
	for n := 1; n*(n+1)+1 <= columns; n++ {
		if n*(n+1)+1 == columns {
			return n
		}
	}
	return 0
}

type ExportData struct {
	RunMetadata
	Times  []float64        `json:"times"`
	States [][][][2]float64 `json:"states"`
}

// ExportJSON writes a stored run as one JSON document. Each state is a
// row-major matrix of [re, im] pairs.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       traj.Timeline(),
		States:      make([][][][2]float64, 0, traj.Len()),
	}
	for _, st := range traj.States() {
		r, c := st.Dims()
		m := make([][][2]float64, r)
		for i := range m {
			m[i] = make([][2]float64, c)
			for j := range m[i] {
				v := st.At(i, j)
				m[i][j] = [2]float64{real(v), imag(v)}
			}
		}
		data.States = append(data.States, m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
