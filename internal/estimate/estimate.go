package estimate

import "github.com/couchcryptid/remodel-estimate-service/internal/domain"

// Input is everything the estimator consumes.
type Input struct {
	Address     domain.Address             `json:"address"`
	Measurement domain.BuildingMeasurement `json:"measurements"`
	Openings    domain.WindowDoorCount     `json:"windowDoorCount"`
	Roof        domain.RoofInfo            `json:"roofInfo"`
	Components  []domain.Component         `json:"components"`
}

// Output is the priced estimate.
type Output struct {
	Materials []domain.LineItem   `json:"materialEstimates"`
	Costs     domain.CostEstimate `json:"costEstimates"`
	Weeks     int                 `json:"timelineEstimate"`
}

// Compute runs materials, costs and timeline. An empty component list
// selects every component.
func Compute(in Input) Output {
	components := in.Components
	if len(components) == 0 {
		components = domain.AllComponents
	}
	items := Materials(in.Measurement, in.Openings, in.Roof, components)
	return Output{
		Materials: items,
		Costs:     Costs(items, in.Measurement.Area, in.Address),
		Weeks:     Timeline(in.Measurement.Area, in.Openings, components),
	}
}
