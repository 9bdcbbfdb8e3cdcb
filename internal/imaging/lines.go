package imaging

import (
	"errors"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoLines is returned when no straight edge segment could be fitted.
var ErrNoLines = errors.New("no line segments detected")

const (
	cellSize = 16
	// Fitted segments steeper than this are walls or corners, not roof lines.
	maxRoofAngle = 75.0
	// Mean absolute residual, in pixels, above which a cell is not a line.
	maxResidual = 1.5
	// Edge pixels must reach this share of the strongest gradient.
	edgeRatio = 0.25
)

// SteepestLineAngle finds straight edge segments in the image and returns
// the steepest one's angle from horizontal, in degrees. Edges come from a
// Sobel operator; each cell of the image with enough edge pixels gets a
// least-squares line fit, and cells that do not fit a line are ignored.
func SteepestLineAngle(img image.Image) (float64, error) {
	g := toGray(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w < 3*cellSize || h < 3*cellSize {
		return 0, ErrNoLines
	}

	mag := sobel(g)
	var peak float64
	for _, m := range mag {
		peak = math.Max(peak, m)
	}
	if peak == 0 {
		return 0, ErrNoLines
	}
	threshold := peak * edgeRatio

	best := -1.0
	for cy := 1; cy+cellSize < h-1; cy += cellSize {
		for cx := 1; cx+cellSize < w-1; cx += cellSize {
			var xs, ys []float64
			for y := cy; y < cy+cellSize; y++ {
				for x := cx; x < cx+cellSize; x++ {
					if mag[y*w+x] >= threshold {
						xs = append(xs, float64(x))
						ys = append(ys, float64(y))
					}
				}
			}
			angle, ok := fitAngle(xs, ys)
			if ok && angle <= maxRoofAngle && angle > best {
				best = angle
			}
		}
	}
	if best < 0 {
		return 0, ErrNoLines
	}
	return best, nil
}

// fitAngle regresses the dependent axis with the larger spread on the other
// and returns the line's angle from horizontal.
func fitAngle(xs, ys []float64) (float64, bool) {
	if len(xs) < cellSize {
		return 0, false
	}
	spanX := span(xs)
	spanY := span(ys)
	if math.Max(spanX, spanY) < cellSize/2 {
		return 0, false
	}

	indep, dep := xs, ys
	steepAxis := false
	if spanY > spanX {
		indep, dep = ys, xs
		steepAxis = true
	}

	alpha, beta := stat.LinearRegression(indep, dep, nil, false)
	var resid float64
	for i := range indep {
		resid += math.Abs(dep[i] - (alpha + beta*indep[i]))
	}
	resid /= float64(len(indep))
	// Perpendicular distance from the fitted line.
	resid *= math.Cos(math.Atan(math.Abs(beta)))
	if resid > maxResidual {
		return 0, false
	}

	angle := math.Atan(math.Abs(beta)) * 180 / math.Pi
	if steepAxis {
		angle = 90 - angle
	}
	return angle, true
}

func span(v []float64) float64 {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return hi - lo
}

// sobel returns gradient magnitudes in row-major order. Border pixels are 0.
func sobel(g *image.Gray) []float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := make([]float64, w*h)
	px := func(x, y int) float64 { return float64(g.Pix[y*g.Stride+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1) +
				px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			out[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return out
}
