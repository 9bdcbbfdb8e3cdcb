package measure

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/upstream"
)

// ReferenceDoorWidthFt is the assumed real width of a detected door.
const ReferenceDoorWidthFt = 3.0

// sideAspect is the assumed width/length ratio when only one axis of the
// building was photographed.
const sideAspect = 1.25

var errNoScale = errors.New("no photo with both a door and a building detected")

// PhotoScaleStrategy uses a door of known width as a ruler for the facade it
// sits in. North and south photos measure the width, east and west the length.
type PhotoScaleStrategy struct {
	detector domain.ObjectDetector
	timeout  time.Duration
	metrics  *observability.Metrics
}

// NewPhotoScaleStrategy creates the photo measurement stage.
func NewPhotoScaleStrategy(detector domain.ObjectDetector, timeout time.Duration, metrics *observability.Metrics) *PhotoScaleStrategy {
	return &PhotoScaleStrategy{detector: detector, timeout: timeout, metrics: metrics}
}

func (s *PhotoScaleStrategy) Source() domain.MeasurementSource { return domain.SourcePhoto }

func (s *PhotoScaleStrategy) Attempt(ctx context.Context, in Input) (domain.BuildingMeasurement, error) {
	var front, side float64
	for _, p := range in.Photos {
		start := time.Now()
		concepts, err := upstream.Call(ctx, s.timeout, func(ctx context.Context) ([]domain.Concept, error) {
			return s.detector.Detect(ctx, p.Data)
		})
		s.metrics.ObserveUpstream("detection", start, err)
		if err != nil {
			continue
		}
		ft, ok := FacadeWidth(concepts)
		if !ok {
			continue
		}
		switch p.Direction {
		case domain.North, domain.South:
			front = math.Max(front, ft)
		default:
			side = math.Max(side, ft)
		}
	}

	switch {
	case front == 0 && side == 0:
		return domain.BuildingMeasurement{}, errNoScale
	case side == 0:
		side = front / sideAspect
	case front == 0:
		front = side * sideAspect
	}
	width := math.Round(math.Max(front, side))
	length := math.Round(math.Min(front, side))
	return domain.BuildingMeasurement{Width: width, Length: length, Area: width * length}, nil
}

// FacadeWidth scales the widest building box by the widest door box in the
// same image. Both boxes are in relative coordinates so the image size
// cancels out.
func FacadeWidth(concepts []domain.Concept) (float64, bool) {
	var door, building float64
	for _, c := range concepts {
		if c.Box == nil || c.Box.Width() <= 0 {
			continue
		}
		name := strings.ToLower(c.Name)
		switch {
		case strings.Contains(name, "door"):
			door = math.Max(door, c.Box.Width())
		case strings.Contains(name, "house"), strings.Contains(name, "building"), strings.Contains(name, "home"):
			building = math.Max(building, c.Box.Width())
		}
	}
	if door == 0 || building == 0 {
		return 0, false
	}
	return building * ReferenceDoorWidthFt / door, true
}
