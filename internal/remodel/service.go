// Package remodel orchestrates one estimate request:
// GEOCODE, MEASURE, ROOF, DETECT_OPENINGS, ESTIMATE, PERSIST, RESPOND.
// DETECT_OPENINGS may end the request early by asking the client to resubmit
// photos for the directions that could not be classified.
package remodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/estimate"
	"github.com/couchcryptid/remodel-estimate-service/internal/measure"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/openings"
	"github.com/couchcryptid/remodel-estimate-service/internal/roof"
)

// Stage names, used in logs and the stage duration metric.
const (
	StageGeocode        = "GEOCODE"
	StageMeasure        = "MEASURE"
	StageRoof           = "ROOF"
	StageDetectOpenings = "DETECT_OPENINGS"
	StageEstimate       = "ESTIMATE"
	StagePersist        = "PERSIST"
	StageRespond        = "RESPOND"
)

// MeasurementResolver produces the building measurement.
type MeasurementResolver interface {
	Resolve(ctx context.Context, in measure.Input) domain.BuildingMeasurement
}

// RoofEstimator derives roof information.
type RoofEstimator interface {
	Estimate(ctx context.Context, in roof.Input) domain.RoofInfo
}

// OpeningDetector counts windows and doors.
type OpeningDetector interface {
	Detect(ctx context.Context, in openings.Input) openings.Result
}

// Deps are the collaborators of a Service. Satellite, StreetView, Blobs and
// Events are optional.
type Deps struct {
	Geocoder   domain.Geocoder
	Resolver   MeasurementResolver
	Roof       RoofEstimator
	Openings   OpeningDetector
	Satellite  domain.SatelliteImagery
	StreetView domain.StreetViewImagery
	Blobs      domain.BlobStore
	Store      domain.RemodelStore
	Events     domain.EventPublisher
}

// Options tune imagery fetching.
type Options struct {
	SatelliteZoom  int
	TileSizePx     int
	ImageryTimeout time.Duration
}

// Service runs estimate requests.
type Service struct {
	deps    Deps
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service.
func New(deps Deps, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if opts.SatelliteZoom == 0 {
		opts.SatelliteZoom = measure.DefaultOutlineZoom
	}
	if opts.TileSizePx == 0 {
		opts.TileSizePx = 640
	}
	return &Service{deps: deps, opts: opts, logger: logger, metrics: metrics}
}

// Estimate runs the full pipeline. The returned error is a
// *domain.ValidationError, domain.ErrAddressNotFound, a *domain.UpstreamError
// from the geocoder, or a *domain.PersistenceError.
func (s *Service) Estimate(ctx context.Context, req Request) (Outcome, error) {
	out, err := s.estimate(ctx, req)
	s.metrics.Requests.WithLabelValues(outcomeLabel(out, err)).Inc()
	return out, err
}

func (s *Service) estimate(ctx context.Context, req Request) (Outcome, error) {
	parsed, err := req.parse()
	if err != nil {
		return nil, err
	}

	done := s.stage(StageGeocode)
	addr, err := domain.ResolveAddress(ctx, s.deps.Geocoder, parsed.address, s.logger)
	done()
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("address", addr.DisplayName)
	lat, lon := addr.Lat, addr.Lon
	if parsed.pin != nil {
		lat, lon = parsed.pin.Lat, parsed.pin.Lon
	}

	tile, tileErr := s.fetchSatellite(ctx, lat, lon)
	if tileErr != nil {
		logger.Warn("satellite tile unavailable", "error", tileErr)
	}
	userPhotos := primaryPhotos(parsed.photos)

	done = s.stage(StageMeasure)
	m := s.deps.Resolver.Resolve(ctx, measure.Input{
		Address:       addr,
		Pin:           parsed.pin,
		Outline:       parsed.outline,
		SatelliteTile: tile,
		SatelliteZoom: s.opts.SatelliteZoom,
		Photos:        userPhotos,
	})
	done()

	var streetView []domain.Photo
	if len(userPhotos) == 0 {
		streetView = s.fetchStreetViews(ctx, lat, lon)
	}

	done = s.stage(StageRoof)
	roofInfo := s.deps.Roof.Estimate(ctx, roof.Input{
		Measurement: m,
		UserPhotos:  userPhotos,
		StreetView:  streetView,
	})
	done()

	done = s.stage(StageDetectOpenings)
	detected := s.deps.Openings.Detect(ctx, openings.Input{
		Photos:     parsed.photos,
		Manual:     parsed.manual,
		StreetView: streetView,
	})
	done()

	if len(detected.FailedDirections) > 0 && parsed.manual == nil && !parsed.isRetry && !detected.UsedStreetView {
		logger.Info("requesting photo resubmission", "directions", detected.FailedDirections)
		return NeedsRetry{Directions: detected.FailedDirections}, nil
	}

	done = s.stage(StageEstimate)
	est := estimate.Compute(estimate.Input{
		Address:     addr,
		Measurement: m,
		Openings:    detected.Count,
		Roof:        roofInfo,
		Components:  parsed.components,
	})
	done()

	rec := domain.RemodelRecord{
		Address:                addr,
		Measurements:           m,
		IsMeasurementsReliable: m.IsReliable,
		RoofInfo:               roofInfo,
		WindowDoorCount:        detected.Count,
		Components:             parsed.components,
		MaterialEstimates:      est.Materials,
		CostEstimates:          est.Costs,
		TimelineWeeks:          est.Weeks,
		ProcessedImages:        map[domain.Direction]string{},
		CreatedAt:              domain.Now().UTC(),
	}

	done = s.stage(StagePersist)
	s.attachImages(ctx, logger, &rec, imageSet{
		all:        parsed.photos,
		processed:  detected.Processed,
		streetView: streetView,
		tile:       tile,
		tileErr:    tileErr,
	})
	id, err := s.deps.Store.Save(ctx, rec)
	done()
	if err != nil {
		logger.Error("persist remodel failed", "error", err)
		return nil, &domain.PersistenceError{Err: err}
	}
	rec.ID = id

	done = s.stage(StageRespond)
	if s.deps.Events != nil {
		if err := s.deps.Events.PublishEstimate(ctx, rec); err != nil {
			logger.Warn("publish estimate event failed", "remodel_id", id, "error", err)
		}
	}
	done()

	logger.Info("estimate complete",
		"remodel_id", id,
		"area", m.Area,
		"measurement_source", m.Source,
		"windows", detected.Count.Windows,
		"doors", detected.Count.Doors,
		"total_low", est.Costs.TotalLow,
		"total_high", est.Costs.TotalHigh,
	)
	return Complete{Record: rec}, nil
}

// Get returns a stored record.
func (s *Service) Get(ctx context.Context, id string) (domain.RemodelRecord, error) {
	rec, err := s.deps.Store.Get(ctx, id)
	switch {
	case errors.Is(err, domain.ErrRemodelNotFound):
		return rec, err
	case err != nil:
		return rec, &domain.PersistenceError{Err: fmt.Errorf("get remodel %s: %w", id, err)}
	}
	return rec, nil
}

// stage logs entry and returns a func that records the stage duration.
func (s *Service) stage(name string) func() {
	start := time.Now()
	s.logger.Debug("stage started", "stage", name)
	return func() {
		s.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func outcomeLabel(out Outcome, err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrAddressNotFound):
		return "invalid"
	case err != nil:
		return "error"
	}
	if _, ok := out.(NeedsRetry); ok {
		return "retry"
	}
	return "complete"
}
