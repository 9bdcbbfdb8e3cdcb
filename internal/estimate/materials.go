// Package estimate turns a measurement, opening count and roof into material
// line items, a priced cost range and a timeline. Every function is pure and
// total: bad or missing input yields zero contributions, never an error.
package estimate

import (
	"fmt"
	"math"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const (
	sidingWasteFactor = 1.1
	paintCoats        = 2
	sqftPerGallon     = 400
)

// Materials lists what the selected components need, in the fixed order
// siding, paint, windows, doors, roofing.
func Materials(m domain.BuildingMeasurement, openings domain.WindowDoorCount, roof domain.RoofInfo, components []domain.Component) []domain.LineItem {
	area := math.Max(m.Area, 0)
	items := make([]domain.LineItem, 0, 3+openings.Windows+openings.Doors)

	if domain.Includes(components, domain.ComponentSiding) {
		items = append(items,
			domain.LineItem{Kind: domain.KindSiding, Label: "Siding", Quantity: math.Round(area * sidingWasteFactor), Unit: "sq ft"},
			domain.LineItem{Kind: domain.KindPaint, Label: "Exterior Paint", Quantity: math.Ceil(area * paintCoats / sqftPerGallon), Unit: "gallons"},
		)
	}
	if domain.Includes(components, domain.ComponentWindows) {
		items = appendOpenings(items, domain.KindWindow, "Window", openings.Windows, openings.WindowSizes, domain.WindowSizeStandard)
	}
	if domain.Includes(components, domain.ComponentDoors) {
		items = appendOpenings(items, domain.KindDoor, "Door", openings.Doors, openings.DoorSizes, domain.DoorSizeStandard)
	}
	if domain.Includes(components, domain.ComponentRoof) {
		material := roof.RoofMaterial
		if material == "" {
			material = domain.DefaultRoofMaterial
		}
		items = append(items, domain.LineItem{
			Kind:     domain.KindRoofing,
			Label:    fmt.Sprintf("Roofing (%s)", material),
			Quantity: math.Round(math.Max(roof.RoofArea, 0)),
			Unit:     "sq ft",
			Size:     material,
		})
	}
	return items
}

func appendOpenings(items []domain.LineItem, kind domain.ItemKind, label string, n int, sizes []string, fallback string) []domain.LineItem {
	for i := 0; i < n; i++ {
		size := fallback
		if i < len(sizes) && sizes[i] != "" {
			size = sizes[i]
		}
		items = append(items, domain.LineItem{
			Kind:     kind,
			Label:    fmt.Sprintf("%s %d", label, i+1),
			Quantity: 1,
			Unit:     "each",
			Size:     size,
		})
	}
	return items
}

// Timeline is the job length in whole weeks, never less than one.
func Timeline(area float64, openings domain.WindowDoorCount, components []domain.Component) int {
	perArea := int(math.Ceil(math.Max(area, 0) / 500))
	weeks := perArea
	if domain.Includes(components, domain.ComponentRoof) {
		weeks += perArea
	}
	var n int
	if domain.Includes(components, domain.ComponentWindows) {
		n += max(openings.Windows, 0)
	}
	if domain.Includes(components, domain.ComponentDoors) {
		n += max(openings.Doors, 0)
	}
	weeks += (n + 4) / 5
	return max(weeks, 1)
}
