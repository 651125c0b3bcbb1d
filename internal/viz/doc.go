// Package viz renders integration results in the terminal.
//
//   - [PlotTrajectory]: asciigraph line charts of the upper-triangle entries
//     of a density operator trajectory
//   - [ProgressReporter]: an lme.Observer drawing progress bars and drift
//     warnings
//   - [Summary]: a styled table of run metrics
//
// Styling uses lipgloss; output degrades to plain text when the writer is
// not a terminal.
package viz
