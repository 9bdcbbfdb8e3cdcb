package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemKind classifies a material line item.
type ItemKind string

const (
	KindSiding  ItemKind = "siding"
	KindPaint   ItemKind = "paint"
	KindWindow  ItemKind = "window"
	KindDoor    ItemKind = "door"
	KindRoofing ItemKind = "roofing"
)

// LineItem is one material requirement. Items are ordered: siding, paint,
// windows, doors, roofing.
type LineItem struct {
	Kind     ItemKind `json:"kind"`
	Label    string   `json:"label"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Size     string   `json:"size,omitempty"` // opening size ("3ft x 4ft") or roofing material
}

// String renders the item as a customer-facing line.
func (li LineItem) String() string {
	switch li.Kind {
	case KindWindow, KindDoor:
		return fmt.Sprintf("%s: %s", li.Label, li.Size)
	default:
		return fmt.Sprintf("%s: %s %s", li.Label, strconv.FormatFloat(li.Quantity, 'f', -1, 64), li.Unit)
	}
}

// CostRange is a low/high dollar pair. Bounds are never mixed.
type CostRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Add sums two ranges bound by bound.
func (r CostRange) Add(o CostRange) CostRange {
	return CostRange{Low: r.Low + o.Low, High: r.High + o.High}
}

// Scale multiplies each bound by its own factor.
func (r CostRange) Scale(f CostRange) CostRange {
	return CostRange{Low: r.Low * f.Low, High: r.High * f.High}
}

// CostLine is the priced form of a single LineItem.
type CostLine struct {
	Kind        ItemKind  `json:"kind"`
	Description string    `json:"description"`
	Material    CostRange `json:"material"`
	Labor       CostRange `json:"labor"`
	Total       CostRange `json:"total"`
}

// CostEstimate is the priced total for a remodel.
type CostEstimate struct {
	TotalLow   float64    `json:"totalLow"`
	TotalHigh  float64    `json:"totalHigh"`
	Breakdown  []string   `json:"breakdown"`
	Lines      []CostLine `json:"lines"`
	Multiplier CostRange  `json:"locationMultiplier"`
}

// Component is a part of the exterior the customer wants quoted.
type Component string

const (
	ComponentRoof    Component = "roof"
	ComponentWindows Component = "windows"
	ComponentDoors   Component = "doors"
	ComponentSiding  Component = "siding"
)

// AllComponents is used when a request names none.
var AllComponents = []Component{ComponentSiding, ComponentWindows, ComponentDoors, ComponentRoof}

// ParseComponents validates a component list. An empty list selects all.
func ParseComponents(names []string) ([]Component, error) {
	if len(names) == 0 {
		return append([]Component(nil), AllComponents...), nil
	}
	seen := make(map[Component]bool, len(names))
	out := make([]Component, 0, len(names))
	for _, n := range names {
		c := Component(strings.ToLower(strings.TrimSpace(n)))
		switch c {
		case ComponentRoof, ComponentWindows, ComponentDoors, ComponentSiding:
		default:
			return nil, Invalid("components", "unknown component %q", n)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// Includes reports whether c is in the list.
func Includes(list []Component, c Component) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
