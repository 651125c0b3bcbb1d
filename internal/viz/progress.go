package viz

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/qdsim/internal/lme"
)

// ProgressReporter is an lme.Observer that draws a progress bar on w.
type ProgressReporter struct {
	w     io.Writer
	width int
}

func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{w: w, width: 30}
}

func (p *ProgressReporter) OnStep(int, float64, *mat.CDense) {}

func (p *ProgressReporter) OnProgress(percent float64, eta time.Duration) {
	fmt.Fprintf(p.w, "%s %5.1f%% eta %s\n",
		ProgressBar(percent/100, p.width), percent, eta.Round(time.Second))
}

func (p *ProgressReporter) OnDriftWarning(maxDelta float64) {
	fmt.Fprintln(p.w, StatusWarn.Render(
		fmt.Sprintf("warning: max step delta %.3g exceeds %.0e, consider a smaller tstep", maxDelta, lme.DriftThreshold)))
}

// Summary writes the outcome of a run followed by its metrics in name
// order.
func Summary(w io.Writer, res *lme.Result) error {
	status := StatusOK
	switch {
	case res.Status == lme.Failed:
		status = StatusFail
	case res.DriftExceeded:
		status = StatusWarn
	}

	fmt.Fprintf(w, "%s %s\n", MetricLabel.Render("status:"), status.Render(res.Status.String()))
	fmt.Fprintf(w, "%s %s\n", MetricLabel.Render("method:"), MetricValue.Render(string(res.Method)))
	fmt.Fprintf(w, "%s %s\n", MetricLabel.Render("steps:"), MetricValue.Render(fmt.Sprint(res.Steps)))
	fmt.Fprintf(w, "%s %s\n", MetricLabel.Render("max delta:"), MetricValue.Render(fmt.Sprintf("%.3g", res.MaxDelta)))
	fmt.Fprintf(w, "%s %s\n", MetricLabel.Render("elapsed:"), MetricValue.Render(res.Elapsed.String()))

	if len(res.Metrics) == 0 {
		return nil
	}
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, Separator(40))
	fmt.Fprintln(w, HeaderStyle.Render("metrics"))
	for _, name := range names {
		_, err := fmt.Fprintf(w, "  %s %s\n", MetricLabel.Render(name+":"), MetricValue.Render(fmt.Sprintf("%.6g", res.Metrics[name])))
		if err != nil {
			return err
		}
	}
	return nil
}
