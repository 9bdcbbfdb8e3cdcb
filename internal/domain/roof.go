package domain

// Pitch is roof steepness as rise over a 12-inch run.
type Pitch string

const (
	Pitch4in12 Pitch = "4/12"
	Pitch6in12 Pitch = "6/12"
	Pitch8in12 Pitch = "8/12"

	DefaultPitch        = Pitch6in12
	DefaultRoofMaterial = "Asphalt Shingles"
)

// Factor is the multiplier from footprint area to sloped roof area.
func (p Pitch) Factor() float64 {
	switch p {
	case Pitch4in12:
		return 1.054
	case Pitch8in12:
		return 1.202
	default:
		return 1.118
	}
}

// Rise is the vertical rise in inches per 12 inches of run.
func (p Pitch) Rise() float64 {
	switch p {
	case Pitch4in12:
		return 4
	case Pitch8in12:
		return 8
	default:
		return 6
	}
}

// PitchSource names where the pitch came from.
type PitchSource string

const (
	PitchFromDefault    PitchSource = "default"
	PitchFromUserImage  PitchSource = "user_image"
	PitchFromStreetView PitchSource = "street_view"
	// PitchFromSatellite is accepted in stored records but never produced;
	// a top-down tile shows no slope.
	PitchFromSatellite PitchSource = "satellite"
)

// RoofInfo describes the roof derived from measurements and imagery.
type RoofInfo struct {
	Pitch           Pitch       `json:"pitch"`
	Height          float64     `json:"height"`
	RoofArea        float64     `json:"roofArea"`
	RoofMaterial    string      `json:"roofMaterial"`
	IsPitchReliable bool        `json:"isPitchReliable"`
	PitchSource     PitchSource `json:"pitchSource"`
}
