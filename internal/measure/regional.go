package measure

import (
	"math"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

// Average single-family home size by census region, in square feet.
const (
	areaNortheast = 1900.0
	areaMidwest   = 1800.0
	areaSouth     = 2100.0
	areaWest      = 2000.0
	areaUnknown   = 1500.0
)

var stateRegion = map[string]string{
	"Connecticut": "northeast", "Maine": "northeast", "Massachusetts": "northeast",
	"New Hampshire": "northeast", "Rhode Island": "northeast", "Vermont": "northeast",
	"New Jersey": "northeast", "New York": "northeast", "Pennsylvania": "northeast",

	"Illinois": "midwest", "Indiana": "midwest", "Michigan": "midwest", "Ohio": "midwest",
	"Wisconsin": "midwest", "Iowa": "midwest", "Kansas": "midwest", "Minnesota": "midwest",
	"Missouri": "midwest", "Nebraska": "midwest", "North Dakota": "midwest", "South Dakota": "midwest",

	"Delaware": "south", "Florida": "south", "Georgia": "south", "Maryland": "south",
	"North Carolina": "south", "South Carolina": "south", "Virginia": "south",
	"District of Columbia": "south", "West Virginia": "south", "Alabama": "south",
	"Kentucky": "south", "Mississippi": "south", "Tennessee": "south", "Arkansas": "south",
	"Louisiana": "south", "Oklahoma": "south", "Texas": "south",

	"Arizona": "west", "Colorado": "west", "Idaho": "west", "Montana": "west",
	"Nevada": "west", "New Mexico": "west", "Utah": "west", "Wyoming": "west",
	"Alaska": "west", "California": "west", "Hawaii": "west", "Oregon": "west",
	"Washington": "west",
}

var regionArea = map[string]float64{
	"northeast": areaNortheast,
	"midwest":   areaMidwest,
	"south":     areaSouth,
	"west":      areaWest,
}

// RegionalAverage returns the average home size for the state named in the
// address and the region it belongs to ("" when no state matched).
func RegionalAverage(address domain.Address) (float64, string) {
	region := stateRegion[domain.StateOf(address.DisplayName)]
	if area, ok := regionArea[region]; ok {
		return area, region
	}
	return areaUnknown, ""
}

// RegionalDefault builds the terminal, unreliable measurement.
func RegionalDefault(address domain.Address) domain.BuildingMeasurement {
	area, _ := RegionalAverage(address)
	width := math.Round(math.Sqrt(area) * 1.25)
	return domain.BuildingMeasurement{
		Width:      width,
		Length:     area / width,
		Area:       area,
		IsReliable: false,
		Source:     domain.SourceRegional,
	}
}
