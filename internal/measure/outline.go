package measure

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

// DefaultOutlineZoom is the satellite zoom the map widget draws outlines at.
const DefaultOutlineZoom = 20

// Feet per pixel of the map widget's satellite layer at each zoom level.
var feetPerPixel = map[int]float64{
	17: 3.92,
	18: 1.96,
	19: 0.98,
	20: 0.49,
	21: 0.245,
}

// Outline is a user-drawn roof polygon in screen pixels.
type Outline struct {
	Points [][2]float64 `json:"points"`
	Zoom   int          `json:"zoom"`
}

var errNoOutline = errors.New("no roof outline supplied")

// OutlineStrategy measures a user-drawn polygon with the shoelace formula.
type OutlineStrategy struct{}

func (OutlineStrategy) Source() domain.MeasurementSource { return domain.SourceOutline }

func (OutlineStrategy) Attempt(_ context.Context, in Input) (domain.BuildingMeasurement, error) {
	if in.Outline == nil {
		return domain.BuildingMeasurement{}, errNoOutline
	}
	return MeasureOutline(*in.Outline)
}

// MeasureOutline converts a pixel polygon to feet.
func MeasureOutline(o Outline) (domain.BuildingMeasurement, error) {
	if len(o.Points) < 3 {
		return domain.BuildingMeasurement{}, fmt.Errorf("outline needs at least 3 points, got %d", len(o.Points))
	}
	zoom := o.Zoom
	if zoom == 0 {
		zoom = DefaultOutlineZoom
	}
	fpp, ok := feetPerPixel[zoom]
	if !ok {
		return domain.BuildingMeasurement{}, fmt.Errorf("unsupported outline zoom %d", zoom)
	}

	flat := make([]float64, 0, 2*(len(o.Points)+1))
	for _, p := range o.Points {
		flat = append(flat, p[0], p[1])
	}
	if o.Points[0] != o.Points[len(o.Points)-1] {
		flat = append(flat, o.Points[0][0], o.Points[0][1])
	}
	poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})

	b := poly.Bounds()
	dx := (b.Max(0) - b.Min(0)) * fpp
	dy := (b.Max(1) - b.Min(1)) * fpp

	return domain.BuildingMeasurement{
		Width:  math.Round(math.Max(dx, dy)),
		Length: math.Round(math.Min(dx, dy)),
		Area:   math.Round(math.Abs(poly.Area()) * fpp * fpp),
	}, nil
}
