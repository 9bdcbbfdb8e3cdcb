package domain

// MeasurementSource names the strategy that produced a BuildingMeasurement.
type MeasurementSource string

const (
	SourceFootprint MeasurementSource = "footprint"
	SourceOutline   MeasurementSource = "outline"
	SourceSatellite MeasurementSource = "satellite"
	SourcePhoto     MeasurementSource = "photo"
	SourceRegional  MeasurementSource = "regional_default"
)

// Sanity band for a single-family footprint, in square feet.
const (
	MinPlausibleArea = 500.0
	MaxPlausibleArea = 5000.0
)

// BuildingMeasurement is the footprint used for every downstream estimate.
type BuildingMeasurement struct {
	Width      float64           `json:"width"`
	Length     float64           `json:"length"`
	Area       float64           `json:"area"`
	IsReliable bool              `json:"isReliable"`
	Source     MeasurementSource `json:"source"`

	// Hints carried from footprint tags, zero when unknown.
	Levels       int    `json:"levels,omitempty"`
	RoofMaterial string `json:"roofMaterial,omitempty"`
}

// Plausible reports whether the area lies inside the sanity band.
func (m BuildingMeasurement) Plausible() bool {
	return m.Area >= MinPlausibleArea && m.Area <= MaxPlausibleArea
}
