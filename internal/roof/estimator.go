// Package roof derives roof pitch, area and height from the building
// measurement and whatever imagery the request produced.
package roof

import (
	"context"
	"log/slog"
	"math"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/imaging"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
)

// BaseStoryHeightFt is the wall height of one story.
const BaseStoryHeightFt = 10.0

// Input carries the measurement and candidate images, best source first.
// Top-down imagery is never a candidate: a plan view carries no roof slope.
type Input struct {
	Measurement domain.BuildingMeasurement
	UserPhotos  []domain.Photo
	StreetView  []domain.Photo
}

type candidate struct {
	source domain.PitchSource
	data   []byte
	label  string
}

// Estimator picks a pitch from the first image a roof line can be found in.
type Estimator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEstimator creates a roof Estimator.
func NewEstimator(logger *slog.Logger, metrics *observability.Metrics) *Estimator {
	return &Estimator{logger: logger, metrics: metrics}
}

// Estimate never fails. Without a usable image the pitch is the default and
// marked unreliable.
func (e *Estimator) Estimate(ctx context.Context, in Input) domain.RoofInfo {
	pitch, source := domain.DefaultPitch, domain.PitchFromDefault
	for _, c := range candidates(in) {
		if ctx.Err() != nil {
			break
		}
		angle, err := detectAngle(c.data)
		if err != nil {
			e.logger.Debug("no roof line in image", "source", c.source, "image", c.label, "error", err)
			continue
		}
		pitch, source = PitchFromAngle(angle), c.source
		e.logger.Debug("roof pitch detected", "source", source, "image", c.label, "angle", angle, "pitch", pitch)
		break
	}
	e.metrics.PitchSource.WithLabelValues(string(source)).Inc()

	material := in.Measurement.RoofMaterial
	if material == "" {
		material = domain.DefaultRoofMaterial
	}
	return domain.RoofInfo{
		Pitch:           pitch,
		Height:          Height(in.Measurement.Width, in.Measurement.Levels, pitch),
		RoofArea:        RoofArea(in.Measurement.Area, pitch),
		RoofMaterial:    material,
		IsPitchReliable: source != domain.PitchFromDefault,
		PitchSource:     source,
	}
}

func candidates(in Input) []candidate {
	out := make([]candidate, 0, len(in.UserPhotos)+len(in.StreetView))
	for _, p := range in.UserPhotos {
		out = append(out, candidate{source: domain.PitchFromUserImage, data: p.Data, label: string(p.Direction)})
	}
	for _, p := range in.StreetView {
		out = append(out, candidate{source: domain.PitchFromStreetView, data: p.Data, label: string(p.Direction)})
	}
	return out
}

func detectAngle(data []byte) (float64, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return 0, err
	}
	return imaging.SteepestLineAngle(img)
}

// PitchFromAngle buckets a roof line angle in degrees.
func PitchFromAngle(deg float64) domain.Pitch {
	switch {
	case deg > 45:
		return domain.Pitch8in12
	case deg > 30:
		return domain.Pitch6in12
	default:
		return domain.Pitch4in12
	}
}

// RoofArea is the sloped roof surface for a footprint area, rounded to the
// nearest square foot.
func RoofArea(area float64, pitch domain.Pitch) float64 {
	return math.Round(area * pitch.Factor())
}

// Height is the ridge height: wall height plus the rise over half the width.
func Height(width float64, levels int, pitch domain.Pitch) float64 {
	base := BaseStoryHeightFt
	if levels > 0 {
		base *= float64(levels)
	}
	return base + (width/2)*(pitch.Rise()/12)
}
