package estimate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

// rate is a low/high pair for material and labor, per unit of the line item.
type rate struct {
	material domain.CostRange
	labor    domain.CostRange
}

var (
	sidingRate = rate{material: domain.CostRange{Low: 3, High: 6}, labor: domain.CostRange{Low: 2, High: 4}}
	// Paint material is per gallon; paint labor is per square foot of house.
	paintRate = rate{material: domain.CostRange{Low: 30, High: 50}, labor: domain.CostRange{Low: 1.5, High: 3}}

	windowStandardRate = rate{material: domain.CostRange{Low: 250, High: 450}, labor: domain.CostRange{Low: 100, High: 200}}
	windowLargeRate    = rate{material: domain.CostRange{Low: 400, High: 700}, labor: domain.CostRange{Low: 150, High: 250}}
	doorStandardRate   = rate{material: domain.CostRange{Low: 500, High: 900}, labor: domain.CostRange{Low: 200, High: 350}}
	doorLargeRate      = rate{material: domain.CostRange{Low: 700, High: 1200}, labor: domain.CostRange{Low: 250, High: 400}}

	roofingLabor = domain.CostRange{Low: 2, High: 3.5}
	// Roofing material per square foot by display material.
	roofingMaterial = map[string]domain.CostRange{
		domain.DefaultRoofMaterial: {Low: 1.5, High: 3},
		"Metal":                    {Low: 4, High: 8},
		"Clay Tile":                {Low: 6, High: 12},
		"Slate":                    {Low: 10, High: 20},
		"Wood Shakes":              {Low: 4.5, High: 9},
	}
)

// Openings at least this large, in square feet, are priced as the large bucket.
const (
	largeWindowSqft = 20.0
	largeDoorSqft   = 24.0
)

var sizeRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ft\s*x\s*(\d+(?:\.\d+)?)\s*ft`)

// Costs prices each line item and applies the location multiplier. Low and
// high totals are summed independently.
func Costs(items []domain.LineItem, area float64, address domain.Address) domain.CostEstimate {
	mult, region := LocationMultiplier(address)
	area = math.Max(area, 0)

	est := domain.CostEstimate{
		Breakdown:  make([]string, 0, len(items)+1),
		Lines:      make([]domain.CostLine, 0, len(items)),
		Multiplier: mult,
	}
	var total domain.CostRange
	for _, it := range items {
		line := priceLine(it, area)
		line.Total = line.Material.Add(line.Labor).Scale(mult)
		line.Total = domain.CostRange{Low: math.Round(line.Total.Low), High: math.Round(line.Total.High)}
		total = total.Add(line.Total)

		est.Lines = append(est.Lines, line)
		est.Breakdown = append(est.Breakdown, fmt.Sprintf("%s: $%.0f - $%.0f", line.Description, line.Total.Low, line.Total.High))
	}
	est.TotalLow, est.TotalHigh = total.Low, total.High
	est.Breakdown = append(est.Breakdown, fmt.Sprintf("Location multiplier (%s): x%.2f - x%.2f", region, mult.Low, mult.High))
	return est
}

func priceLine(it domain.LineItem, area float64) domain.CostLine {
	line := domain.CostLine{Kind: it.Kind, Description: it.String()}
	qty := math.Max(it.Quantity, 0)
	switch it.Kind {
	case domain.KindSiding:
		line.Material = perUnit(sidingRate.material, qty)
		line.Labor = perUnit(sidingRate.labor, qty)
	case domain.KindPaint:
		line.Material = perUnit(paintRate.material, qty)
		line.Labor = perUnit(paintRate.labor, area)
	case domain.KindWindow:
		r := windowStandardRate
		if openingSqft(it.Size) >= largeWindowSqft {
			r = windowLargeRate
		}
		line.Material = perUnit(r.material, qty)
		line.Labor = perUnit(r.labor, qty)
	case domain.KindDoor:
		r := doorStandardRate
		if openingSqft(it.Size) >= largeDoorSqft {
			r = doorLargeRate
		}
		line.Material = perUnit(r.material, qty)
		line.Labor = perUnit(r.labor, qty)
	case domain.KindRoofing:
		m, ok := roofingMaterial[it.Size]
		if !ok {
			m = roofingMaterial[domain.DefaultRoofMaterial]
		}
		line.Material = perUnit(m, qty)
		line.Labor = perUnit(roofingLabor, qty)
	}
	return line
}

func perUnit(r domain.CostRange, qty float64) domain.CostRange {
	return domain.CostRange{Low: r.Low * qty, High: r.High * qty}
}

// openingSqft parses "W ft x H ft"; unparseable sizes count as zero and are
// priced as the standard bucket.
func openingSqft(size string) float64 {
	m := sizeRe.FindStringSubmatch(size)
	if m == nil {
		return 0
	}
	w, err1 := strconv.ParseFloat(m[1], 64)
	h, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0
	}
	return w * h
}
