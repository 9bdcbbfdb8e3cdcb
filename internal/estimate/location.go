package estimate

import "github.com/couchcryptid/remodel-estimate-service/internal/domain"

// Multiplier bands applied to every priced line.
var (
	highCostBand = domain.CostRange{Low: 1.2, High: 1.4}
	standardBand = domain.CostRange{Low: 1.0, High: 1.15}
	discountBand = domain.CostRange{Low: 0.9, High: 1.0}
)

// Coastal and high-cost-of-living states.
var highCostStates = map[string]bool{
	"California":           true,
	"New York":             true,
	"Massachusetts":        true,
	"Hawaii":               true,
	"Washington":           true,
	"New Jersey":           true,
	"Connecticut":          true,
	"Alaska":               true,
	"Maryland":             true,
	"District of Columbia": true,
	"Oregon":               true,
}

// LocationMultiplier picks the band for the state named in the address. The
// second value is the matched state, or "unknown".
func LocationMultiplier(address domain.Address) (domain.CostRange, string) {
	state := domain.StateOf(address.DisplayName)
	switch {
	case state == "":
		return discountBand, "unknown"
	case highCostStates[state]:
		return highCostBand, state
	default:
		return standardBand, state
	}
}
