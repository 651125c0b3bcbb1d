package viz

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qdsim/internal/signal"
)

type PlotOptions struct {
	Height int
	Width  int
	// MaxPlots bounds the number of charts; zero plots every entry.
	MaxPlots int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 10, Width: 80, MaxPlots: 6}
}

// PlotTrajectory writes one chart per upper-triangle entry of traj.
// Diagonal entries plot the real part; off-diagonal entries plot the real
// and imaginary parts together.
func PlotTrajectory(w io.Writer, traj *signal.Trajectory, opts PlotOptions) error {
	n, _, ok := traj.Shape()
	if !ok {
		return signal.ErrEmpty
	}
	entries, err := traj.UpperTriangleTrajectories()
	if err != nil {
		return err
	}

	count := len(entries)
	if opts.MaxPlots > 0 && count > opts.MaxPlots {
		count = opts.MaxPlots
	}

	for i := 0; i < count; i++ {
		row, col := signal.UpperTriangleIndex(n, i)
		re, im := split(entries[i])

		var graph string
		if row == col {
			graph = asciigraph.Plot(re,
				asciigraph.Height(opts.Height),
				asciigraph.Width(opts.Width),
				asciigraph.Caption(fmt.Sprintf("rho[%d,%d] vs time", row, col)),
			)
		} else {
			graph = asciigraph.PlotMany([][]float64{re, im},
				asciigraph.Height(opts.Height),
				asciigraph.Width(opts.Width),
				asciigraph.Caption(fmt.Sprintf("re/im rho[%d,%d] vs time", row, col)),
			)
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", graph); err != nil {
			return err
		}
	}
	return nil
}

// PlotSeries writes a single captioned chart.
func PlotSeries(w io.Writer, data []float64, caption string, opts PlotOptions) error {
	if len(data) == 0 {
		return signal.ErrEmpty
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
	_, err := fmt.Fprintf(w, "%s\n\n", graph)
	return err
}

// PlotSpectrum charts the lowest quarter of the bins of a power spectrum,
// or every bin when the quarter holds fewer than two. An empty spectrum
// writes nothing.
func PlotSpectrum(w io.Writer, ps []float64, caption string, opts PlotOptions) error {
	bins := ps[:len(ps)/4]
	if len(bins) < 2 {
		bins = ps
	}
	if len(bins) == 0 {
		return nil
	}
	return PlotSeries(w, bins, caption, opts)
}

func split(series []complex128) (re, im []float64) {
	re = make([]float64, len(series))
	im = make([]float64, len(series))
	for i, v := range series {
		re[i] = real(v)
		im[i] = imag(v)
	}
	return re, im
}
