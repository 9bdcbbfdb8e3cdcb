package measure

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/imaging"
)

const (
	sqftPerSqMeter = 10.7639
	feetPerMeter   = 3.28084
)

var errNoTile = errors.New("no satellite tile available")

// MetersPerPixel is the ground resolution of a Web Mercator tile.
func MetersPerPixel(lat float64, zoom int) float64 {
	return 156543.03392 * math.Cos(lat*math.Pi/180) / math.Pow(2, float64(zoom))
}

// SatelliteStrategy finds the roof in the top-down tile and converts its
// pixel area to square feet.
type SatelliteStrategy struct{}

func (SatelliteStrategy) Source() domain.MeasurementSource { return domain.SourceSatellite }

func (SatelliteStrategy) Attempt(_ context.Context, in Input) (domain.BuildingMeasurement, error) {
	if len(in.SatelliteTile) == 0 {
		return domain.BuildingMeasurement{}, errNoTile
	}
	img, err := imaging.Decode(in.SatelliteTile)
	if err != nil {
		return domain.BuildingMeasurement{}, fmt.Errorf("satellite tile: %w", err)
	}
	c, err := imaging.CenterContour(img)
	if err != nil {
		return domain.BuildingMeasurement{}, fmt.Errorf("satellite tile: %w", err)
	}

	zoom := in.SatelliteZoom
	if zoom == 0 {
		zoom = DefaultOutlineZoom
	}
	lat, _ := in.Point()
	return MeasureContour(c, lat, zoom), nil
}

// MeasureContour converts a contour found in a tile at the given zoom.
func MeasureContour(c imaging.Contour, lat float64, zoom int) domain.BuildingMeasurement {
	mpp := MetersPerPixel(lat, zoom)
	dx := float64(c.Bounds.Dx()) * mpp * feetPerMeter
	dy := float64(c.Bounds.Dy()) * mpp * feetPerMeter
	return domain.BuildingMeasurement{
		Width:  math.Round(math.Max(dx, dy)),
		Length: math.Round(math.Min(dx, dy)),
		Area:   math.Round(float64(c.PixelArea) * mpp * mpp * sqftPerSqMeter),
	}
}
