package viz

import (
	"fmt"
	"math"
	"strings"
)

var seriesColors = []string{"#00ff88", "#00ccff", "#ffcc00", "#ff4444", "#ff00ff", "#ffffff"}

// SeriesSVG draws each series against xs as a polyline. Series shorter
// than xs are drawn up to their length. It returns "" when there is
// nothing to draw.
func SeriesSVG(xs []float64, series [][]float64, width, height int) string {
	if len(xs) < 2 || len(series) == 0 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		minX = min(minX, x)
		maxX = max(maxX, x)
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ys := range series {
		for _, y := range ys {
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if minY > maxY {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for s, ys := range series {
		n := min(len(xs), len(ys))
		if n < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, seriesColors[s%len(seriesColors)])
		for i := 0; i < n; i++ {
			x := (xs[i] - minX) / rangeX * float64(width)
			y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
