package domain

// Standard opening size buckets, written the way customers enter them.
const (
	WindowSizeStandard = "3ft x 4ft"
	WindowSizeLarge    = "4ft x 5ft"
	DoorSizeStandard   = "3ft x 7ft"
	DoorSizeLarge      = "3ft x 8ft"
)

// WindowDoorCount is the number and sizes of openings on the building.
type WindowDoorCount struct {
	Windows     int      `json:"windows"`
	Doors       int      `json:"doors"`
	WindowSizes []string `json:"windowSizes"`
	DoorSizes   []string `json:"doorSizes"`
	IsReliable  bool     `json:"isReliable"`
}
