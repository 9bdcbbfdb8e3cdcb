package remodel

import "github.com/couchcryptid/remodel-estimate-service/internal/domain"

// Outcome is the terminal state of an estimate request: Complete or
// NeedsRetry.
type Outcome interface {
	outcome()
}

// Complete carries the persisted record.
type Complete struct {
	Record domain.RemodelRecord
}

// NeedsRetry lists the directions whose photos must be resubmitted. Nothing
// was persisted.
type NeedsRetry struct {
	Directions []domain.Direction `json:"retryDirections"`
}

func (Complete) outcome()   {}
func (NeedsRetry) outcome() {}
