package measure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/upstream"
)

// feetPerDegreeLat is the length of one degree of latitude in feet.
const feetPerDegreeLat = 364320.0

var errNoFootprint = errors.New("no closed building footprint near point")

// FootprintStrategy measures the bounding box of the nearest building
// outline from crowd-sourced map data.
type FootprintStrategy struct {
	finder       domain.FootprintFinder
	radiusMeters float64
	timeout      time.Duration
	metrics      *observability.Metrics
}

// NewFootprintStrategy creates the footprint lookup stage.
func NewFootprintStrategy(finder domain.FootprintFinder, radiusMeters float64, timeout time.Duration, metrics *observability.Metrics) *FootprintStrategy {
	return &FootprintStrategy{finder: finder, radiusMeters: radiusMeters, timeout: timeout, metrics: metrics}
}

func (s *FootprintStrategy) Source() domain.MeasurementSource { return domain.SourceFootprint }

func (s *FootprintStrategy) Attempt(ctx context.Context, in Input) (domain.BuildingMeasurement, error) {
	lat, lon := in.Point()

	start := time.Now()
	footprints, err := upstream.Call(ctx, s.timeout, func(ctx context.Context) ([]domain.Footprint, error) {
		return s.finder.FindBuildings(ctx, lat, lon, s.radiusMeters)
	})
	s.metrics.ObserveUpstream("footprint", start, err)
	if err != nil {
		return domain.BuildingMeasurement{}, &domain.UpstreamError{Service: "footprint", Err: err}
	}

	fp, ok := nearestClosed(footprints, lat, lon)
	if !ok {
		return domain.BuildingMeasurement{}, errNoFootprint
	}
	m := MeasureFootprint(fp, lat)
	if m.Area <= 0 {
		return domain.BuildingMeasurement{}, fmt.Errorf("degenerate footprint %d", fp.ID)
	}
	return m, nil
}

// MeasureFootprint converts a footprint's bounding box to feet. Width is the
// longer side; area is width times length.
func MeasureFootprint(fp domain.Footprint, lat float64) domain.BuildingMeasurement {
	flat := make([]float64, 0, 2*len(fp.Nodes))
	for _, n := range fp.Nodes {
		flat = append(flat, n.Lon, n.Lat)
	}
	b := geom.NewLineStringFlat(geom.XY, flat).Bounds()

	latFeet := (b.Max(1) - b.Min(1)) * feetPerDegreeLat
	lonFeet := (b.Max(0) - b.Min(0)) * feetPerDegreeLat * math.Cos(lat*math.Pi/180)

	width := math.Round(math.Max(latFeet, lonFeet))
	length := math.Round(math.Min(latFeet, lonFeet))
	return domain.BuildingMeasurement{
		Width:        width,
		Length:       length,
		Area:         width * length,
		Levels:       levelsTag(fp.Tags),
		RoofMaterial: roofMaterialTag(fp.Tags),
	}
}

// nearestClosed picks the closed way with at least three nodes whose
// centroid lies nearest the point.
func nearestClosed(footprints []domain.Footprint, lat, lon float64) (domain.Footprint, bool) {
	var best domain.Footprint
	bestDist := math.Inf(1)
	for _, fp := range footprints {
		if !fp.Closed || len(fp.Nodes) < 3 {
			continue
		}
		var cLat, cLon float64
		for _, n := range fp.Nodes {
			cLat += n.Lat
			cLon += n.Lon
		}
		cLat /= float64(len(fp.Nodes))
		cLon /= float64(len(fp.Nodes))
		d := math.Hypot(cLat-lat, (cLon-lon)*math.Cos(lat*math.Pi/180))
		if d < bestDist {
			best, bestDist = fp, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func levelsTag(tags map[string]string) int {
	for _, k := range []string{"building:levels", "levels"} {
		if v, ok := tags[k]; ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

func roofMaterialTag(tags map[string]string) string {
	switch strings.ToLower(tags["roof:material"]) {
	case "":
		return ""
	case "roof_tiles", "tile", "tiles":
		return "Clay Tile"
	case "metal", "tin", "copper":
		return "Metal"
	case "slate":
		return "Slate"
	case "wood", "shingle", "wood_shingles":
		return "Wood Shakes"
	default:
		return domain.DefaultRoofMaterial
	}
}
