// Package measure derives the building footprint used by every estimate. It
// tries an ordered chain of strategies, most precise first, and accepts the
// first result inside the plausible-area band. The regional default ends the
// chain and always succeeds.
package measure

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
)

// Input is everything the strategies may draw on.
type Input struct {
	Address domain.Address
	// Pin overrides the geocoded coordinates when the user marked the building.
	Pin *domain.LatLon
	// Outline is a user-drawn roof polygon over the satellite tile.
	Outline *Outline
	// SatelliteTile is the top-down tile fetched for this address, if any.
	SatelliteTile []byte
	SatelliteZoom int
	// Photos holds the first photo of each facade, in direction order.
	Photos []domain.Photo
}

// Point returns the coordinate measurements are taken at.
func (in Input) Point() (lat, lon float64) {
	if in.Pin != nil {
		return in.Pin.Lat, in.Pin.Lon
	}
	return in.Address.Lat, in.Address.Lon
}

// Strategy is one way of measuring the building.
type Strategy interface {
	Source() domain.MeasurementSource
	Attempt(ctx context.Context, in Input) (domain.BuildingMeasurement, error)
}

// Resolver runs the strategy chain.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewResolver creates a Resolver that tries strategies in the given order
// before falling back to the regional default.
func NewResolver(strategies []Strategy, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{strategies: strategies, logger: logger, metrics: metrics}
}

// Resolve never fails. A result from a strategy is marked reliable; the
// regional default is not.
func (r *Resolver) Resolve(ctx context.Context, in Input) domain.BuildingMeasurement {
	for _, s := range r.strategies {
		m, err := s.Attempt(ctx, in)
		if err != nil {
			r.logger.Debug("measurement strategy failed", "source", s.Source(), "error", err)
			continue
		}
		if !m.Plausible() {
			r.logger.Warn("measurement outside plausible band, discarding",
				"source", s.Source(),
				"area", m.Area,
				"min", domain.MinPlausibleArea,
				"max", domain.MaxPlausibleArea,
			)
			continue
		}
		m.Source = s.Source()
		m.IsReliable = true
		r.metrics.MeasurementSource.WithLabelValues(string(m.Source)).Inc()
		return m
	}

	m := RegionalDefault(in.Address)
	r.logger.Info("using regional default measurements",
		"address", in.Address.DisplayName,
		"area", m.Area,
	)
	r.metrics.MeasurementSource.WithLabelValues(string(m.Source)).Inc()
	return m
}
