package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/analysis"
	"github.com/san-kum/qdsim/internal/lme"
)

const liveHistory = 600

var (
	livePanel = lipgloss.NewStyle().Padding(1, 2)
	liveGraph = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	liveLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
)

// StepMsg carries the populations of one recorded state, plus its Bloch
// vector for single qubits.
type StepMsg struct {
	Step        int
	T           float64
	Populations []float64
	Bloch       *analysis.Bloch
}

type ProgressMsg struct {
	Percent float64
	ETA     time.Duration
}

type DriftMsg struct {
	MaxDelta float64
}

// DoneMsg ends the live view.
type DoneMsg struct {
	Err error
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// LiveObserver forwards engine notifications to a bubbletea program.
// Steps closer together than interval are dropped; the first step is
// always sent.
type LiveObserver struct {
	to       Sender
	interval time.Duration
	now      func() time.Time
	last     time.Time
	sent     bool
}

var _ lme.Observer = (*LiveObserver)(nil)

func NewLiveObserver(to Sender, interval time.Duration) *LiveObserver {
	return &LiveObserver{to: to, interval: interval, now: time.Now}
}

func (o *LiveObserver) OnStep(step int, t float64, state *mat.CDense) {
	now := o.now()
	if o.sent && now.Sub(o.last) < o.interval {
		return
	}
	o.last, o.sent = now, true

	n, _ := state.Dims()
	msg := StepMsg{Step: step, T: t, Populations: make([]float64, n)}
	for i := range msg.Populations {
		msg.Populations[i] = real(state.At(i, i))
	}
	if n == 2 {
		if b, err := analysis.BlochOf(state); err == nil {
			msg.Bloch = &b
		}
	}
	o.to.Send(msg)
}

func (o *LiveObserver) OnProgress(percent float64, eta time.Duration) {
	o.to.Send(ProgressMsg{Percent: percent, ETA: eta})
}

func (o *LiveObserver) OnDriftWarning(maxDelta float64) {
	o.to.Send(DriftMsg{MaxDelta: maxDelta})
}

// LiveModel renders a running integration: progress, population history
// and the Bloch vector of qubit runs.
type LiveModel struct {
	name     string
	tf       float64
	t        float64
	step     int
	history  [][]float64
	bloch    *analysis.Bloch
	eta      time.Duration
	drift    float64
	done     bool
	err      error
}

func NewLiveModel(name string, tf float64) LiveModel {
	return LiveModel{name: name, tf: tf}
}

func (m LiveModel) Init() tea.Cmd { return nil }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case StepMsg:
		m.step, m.t = msg.Step, msg.T
		if m.history == nil {
			m.history = make([][]float64, len(msg.Populations))
		}
		for i, p := range msg.Populations {
			if i >= len(m.history) {
				break
			}
			m.history[i] = append(m.history[i], p)
			if len(m.history[i]) > liveHistory {
				m.history[i] = m.history[i][1:]
			}
		}
		m.bloch = msg.Bloch
	case ProgressMsg:
		m.eta = msg.ETA
	case DriftMsg:
		m.drift = msg.MaxDelta
	case DoneMsg:
		m.done, m.err = true, msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m LiveModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.name)) + "\n\n")

	var status string
	switch {
	case m.err != nil:
		status = StatusFail.Render("FAILED: " + m.err.Error())
	case m.done:
		status = StatusOK.Render("DONE")
	case m.drift > 0:
		status = StatusWarn.Render(fmt.Sprintf("RUNNING (drift %.3g)", m.drift))
	default:
		status = StatusOK.Render("RUNNING")
	}
	s.WriteString(status + "\n\n")

	frac := 0.0
	if m.tf > 0 {
		frac = m.t / m.tf
	}
	s.WriteString(ProgressBar(frac, 40) + fmt.Sprintf(" %5.1f%%", 100*frac) + "\n")
	s.WriteString(liveLabel.Render("t") + MetricValue.Render(fmt.Sprintf("%.4f / %g", m.t, m.tf)) + "\n")
	s.WriteString(liveLabel.Render("step") + MetricValue.Render(fmt.Sprint(m.step)) + "\n")
	if m.eta > 0 && !m.done {
		s.WriteString(liveLabel.Render("eta") + MetricValue.Render(m.eta.Round(time.Second).String()) + "\n")
	}
	if m.bloch != nil {
		b := m.bloch
		s.WriteString(liveLabel.Render("bloch") +
			MetricValue.Render(fmt.Sprintf("(%+.3f, %+.3f, %+.3f) |r|=%.3f", b.X, b.Y, b.Z, b.Norm())) + "\n")
	}

	if len(m.history) > 0 && len(m.history[0]) > 1 {
		chart := asciigraph.PlotMany(m.history,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("populations vs step"),
		)
		s.WriteString(liveGraph.Render(chart) + "\n")
	}

	s.WriteString(Separator(40) + "\n")
	s.WriteString(Subtle.Render("q: close view"))
	return livePanel.Render(s.String())
}

// Done reports whether the run finished while the view was open.
func (m LiveModel) Done() bool { return m.done }
