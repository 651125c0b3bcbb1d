package analysis

import "math"

// ExponentialBound samples (end-start)(1 - e^(lambda t)) + start at
// t = 0, tstep, 2 tstep, ... while t < tf. With lambda < 0 it is the
// envelope of a relaxation from start toward end.
func ExponentialBound(start, end, lambda, tf, tstep float64) []float64 {
	if tstep <= 0 {
		return nil
	}
	out := []float64{start}
	for t := tstep; t < tf; t += tstep {
		out = append(out, (end-start)*(1-math.Exp(lambda*t))+start)
	}
	return out
}
