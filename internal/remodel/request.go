package remodel

import (
	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/measure"
	"github.com/couchcryptid/remodel-estimate-service/internal/openings"
)

// Request is the body of an estimate request. Photos are data URIs keyed by
// direction name.
type Request struct {
	Address     string              `json:"address"`
	Photos      map[string][]string `json:"photos,omitempty"`
	RetryPhotos map[string][]string `json:"retryPhotos,omitempty"`
	WindowCount *int                `json:"windowCount,omitempty"`
	DoorCount   *int                `json:"doorCount,omitempty"`
	WindowSizes []string            `json:"windowSizes,omitempty"`
	DoorSizes   []string            `json:"doorSizes,omitempty"`
	Components  []string            `json:"components,omitempty"`
	Outline     *measure.Outline    `json:"outline,omitempty"`
	Pin         *domain.LatLon      `json:"pin,omitempty"`
}

// parsedRequest is a Request after validation.
type parsedRequest struct {
	address    string
	photos     map[domain.Direction][]domain.Photo
	isRetry    bool
	manual     *openings.ManualCounts
	components []domain.Component
	outline    *measure.Outline
	pin        *domain.LatLon
}

func (r Request) parse() (parsedRequest, error) {
	p := parsedRequest{address: r.Address, outline: r.Outline, pin: r.Pin}

	components, err := domain.ParseComponents(r.Components)
	if err != nil {
		return p, err
	}
	p.components = components

	if p.photos, err = parsePhotos(r.Photos); err != nil {
		return p, err
	}
	retry, err := parsePhotos(r.RetryPhotos)
	if err != nil {
		return p, err
	}
	for dir, photos := range retry {
		p.photos[dir] = photos
		p.isRetry = true
	}

	if r.WindowCount != nil && r.DoorCount != nil {
		if *r.WindowCount < 0 || *r.DoorCount < 0 {
			return p, domain.Invalid("windowCount", "counts must not be negative")
		}
		p.manual = &openings.ManualCounts{
			Windows:     *r.WindowCount,
			Doors:       *r.DoorCount,
			WindowSizes: r.WindowSizes,
			DoorSizes:   r.DoorSizes,
		}
	}

	if r.Pin != nil && !r.Pin.Valid() {
		return p, domain.Invalid("pin", "coordinates out of range")
	}
	return p, nil
}

func parsePhotos(raw map[string][]string) (map[domain.Direction][]domain.Photo, error) {
	out := make(map[domain.Direction][]domain.Photo, len(raw))
	for key, uris := range raw {
		dir, err := domain.ParseDirection(key)
		if err != nil {
			return nil, err
		}
		if len(uris) == 0 {
			continue
		}
		photos := make([]domain.Photo, 0, len(uris))
		for _, uri := range uris {
			ph, err := domain.ParsePhoto(dir, uri)
			if err != nil {
				return nil, err
			}
			photos = append(photos, ph)
		}
		out[dir] = photos
	}
	return out, nil
}

// primaryPhotos returns the first photo of each direction in canonical order.
func primaryPhotos(photos map[domain.Direction][]domain.Photo) []domain.Photo {
	out := make([]domain.Photo, 0, len(photos))
	for _, dir := range domain.AllDirections {
		if ps := photos[dir]; len(ps) > 0 {
			out = append(out, ps[0])
		}
	}
	return out
}
