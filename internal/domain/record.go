package domain

import "time"

// RemodelRecord is the persisted aggregate of one estimate. It is created
// once and never updated.
type RemodelRecord struct {
	ID                     string                 `json:"remodelId"`
	Address                Address                `json:"addressData"`
	Measurements           BuildingMeasurement    `json:"measurements"`
	IsMeasurementsReliable bool                   `json:"isMeasurementsReliable"`
	RoofInfo               RoofInfo               `json:"roofInfo"`
	WindowDoorCount        WindowDoorCount        `json:"windowDoorCount"`
	Components             []Component            `json:"components"`
	MaterialEstimates      []LineItem             `json:"materialEstimates"`
	CostEstimates          CostEstimate           `json:"costEstimates"`
	TimelineWeeks          int                    `json:"timelineEstimate"`
	ProcessedImages        map[Direction]string   `json:"processedImages"`
	UploadedImages         map[Direction][]string `json:"uploadedImages,omitempty"`
	SatelliteImage         string                 `json:"satelliteImage,omitempty"`
	SatelliteImageError    string                 `json:"satelliteImageError,omitempty"`
	StreetViewImage        string                 `json:"streetViewImage,omitempty"`
	CreatedAt              time.Time              `json:"timestamp"`
}
