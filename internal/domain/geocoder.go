package domain

import (
	"context"
	"time"
)

// Geocoder resolves a free-text address.
type Geocoder interface {
	// Geocode returns candidate matches, best first. An empty slice with a
	// nil error means the provider found nothing.
	Geocode(ctx context.Context, query string) ([]Address, error)
}

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair falls within WGS-84 ranges.
func (p LatLon) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Footprint is a building outline returned by the footprint service.
type Footprint struct {
	ID     int64             `json:"id"`
	Nodes  []LatLon          `json:"nodes"`
	Closed bool              `json:"closed"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// FootprintFinder looks up building outlines near a coordinate.
type FootprintFinder interface {
	FindBuildings(ctx context.Context, lat, lon, radiusMeters float64) ([]Footprint, error)
}

// SatelliteImagery fetches top-down imagery centered on a coordinate.
type SatelliteImagery interface {
	SatelliteTile(ctx context.Context, lat, lon float64, zoom, sizePx int) ([]byte, error)
}

// StreetViewImagery fetches street-level imagery looking at a coordinate.
type StreetViewImagery interface {
	StreetView(ctx context.Context, lat, lon float64, heading int) ([]byte, error)
}

// BoundingBox is a detection region in relative image coordinates (0..1).
type BoundingBox struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Width returns the relative width of the box.
func (b BoundingBox) Width() float64 { return b.Right - b.Left }

// Height returns the relative height of the box.
func (b BoundingBox) Height() float64 { return b.Bottom - b.Top }

// Concept is a label returned by an image recognition service.
type Concept struct {
	Name  string       `json:"name"`
	Score float64      `json:"score"`
	Box   *BoundingBox `json:"box,omitempty"`
}

// Recognizer classifies the contents of an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]Concept, error)
}

// ObjectDetector locates labelled objects inside an image. Returned
// concepts carry a Box.
type ObjectDetector interface {
	Detect(ctx context.Context, image []byte) ([]Concept, error)
}

// BlobStore keeps image bytes and hands out expiring URLs to them.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (signedURL string, err error)
}

// RemodelStore persists remodel records. Save assigns the ID.
type RemodelStore interface {
	Save(ctx context.Context, rec RemodelRecord) (string, error)
	Get(ctx context.Context, id string) (RemodelRecord, error)
}

// EventPublisher announces completed estimates to downstream consumers.
type EventPublisher interface {
	PublishEstimate(ctx context.Context, rec RemodelRecord) error
}

// Now returns the current time from the package clock.
func Now() time.Time { return clock.Now() }
