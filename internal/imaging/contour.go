package imaging

import (
	"errors"
	"image"
)

// ErrNoContour is returned when no isolated shape surrounds the image center.
var ErrNoContour = errors.New("no building contour at image center")

const (
	// Luminance distance from the seed that still belongs to the shape.
	contourTolerance = 30
	minContourPixels = 64
)

// Contour is the region grown from the image center.
type Contour struct {
	PixelArea int
	Bounds    image.Rectangle
}

// CenterContour grows a 4-connected region of similar luminance from the
// image center, the way a top-down tile centered on a geocoded address puts
// the roof in the middle. The region must not touch the image border;
// touching it means the seed landed on open ground or pavement.
func CenterContour(img image.Image) (Contour, error) {
	g := toGray(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w < 8 || h < 8 {
		return Contour{}, ErrNoContour
	}

	cx, cy := w/2, h/2
	var sum, n int
	for y := cy - 1; y <= cy+1; y++ {
		for x := cx - 1; x <= cx+1; x++ {
			sum += int(g.Pix[y*g.Stride+x])
			n++
		}
	}
	seed := sum / n

	visited := make([]bool, w*h)
	stack := []image.Point{{X: cx, Y: cy}}
	visited[cy*w+cx] = true
	bounds := image.Rect(cx, cy, cx+1, cy+1)
	area := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		if p.X == 0 || p.Y == 0 || p.X == w-1 || p.Y == h-1 {
			return Contour{}, ErrNoContour
		}
		for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			q := p.Add(d)
			i := q.Y*w + q.X
			if visited[i] {
				continue
			}
			if abs(int(g.Pix[q.Y*g.Stride+q.X])-seed) > contourTolerance {
				continue
			}
			visited[i] = true
			stack = append(stack, q)
		}
	}

	if area < minContourPixels {
		return Contour{}, ErrNoContour
	}
	return Contour{PixelArea: area, Bounds: bounds}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
