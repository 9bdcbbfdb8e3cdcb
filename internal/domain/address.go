package domain

import "strings"

// Address is a geocoded street address.
type Address struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Valid reports whether the coordinates fall within WGS-84 ranges and a
// display name is present.
func (a Address) Valid() bool {
	if strings.TrimSpace(a.DisplayName) == "" {
		return false
	}
	return LatLon{Lat: a.Lat, Lon: a.Lon}.Valid()
}

// usStates lists full state names in the order they are matched against a
// display name. Multi-word names come before their single-word prefixes so
// "West Virginia" is not read as "Virginia".
var usStates = []string{
	"District of Columbia",
	"New Hampshire", "New Jersey", "New Mexico", "New York",
	"North Carolina", "North Dakota", "South Carolina", "South Dakota",
	"Rhode Island", "West Virginia",
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
	"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine",
	"Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "Ohio", "Oklahoma", "Oregon",
	"Pennsylvania", "Tennessee", "Texas", "Utah", "Vermont", "Virginia",
	"Washington", "Wisconsin", "Wyoming",
}

// StateOf returns the first US state name found in the text, or "" when none
// matches. Matching is a case-insensitive substring search.
func StateOf(text string) string {
	lower := strings.ToLower(text)
	for _, s := range usStates {
		if strings.Contains(lower, strings.ToLower(s)) {
			return s
		}
	}
	return ""
}
