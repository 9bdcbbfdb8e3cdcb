package remodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/upstream"
)

// streetViewAttempts is the number of tries per heading.
const streetViewAttempts = 2

var errNoSatellite = errors.New("satellite imagery not configured")

func (s *Service) fetchSatellite(ctx context.Context, lat, lon float64) ([]byte, error) {
	if s.deps.Satellite == nil {
		return nil, errNoSatellite
	}
	start := time.Now()
	tile, err := upstream.Call(ctx, s.opts.ImageryTimeout, func(ctx context.Context) ([]byte, error) {
		return s.deps.Satellite.SatelliteTile(ctx, lat, lon, s.opts.SatelliteZoom, s.opts.TileSizePx)
	})
	s.metrics.ObserveUpstream("satellite", start, err)
	if err != nil {
		return nil, &domain.UpstreamError{Service: "satellite", Err: err}
	}
	return tile, nil
}

// fetchStreetViews fetches one image per compass heading, each retried once.
// Headings that still fail are left out.
func (s *Service) fetchStreetViews(ctx context.Context, lat, lon float64) []domain.Photo {
	if s.deps.StreetView == nil {
		return nil
	}
	var out []domain.Photo
	for _, dir := range domain.AllDirections {
		var (
			img []byte
			err error
		)
		for attempt := 1; attempt <= streetViewAttempts; attempt++ {
			start := time.Now()
			img, err = upstream.Call(ctx, s.opts.ImageryTimeout, func(ctx context.Context) ([]byte, error) {
				return s.deps.StreetView.StreetView(ctx, lat, lon, dir.Heading())
			})
			s.metrics.ObserveUpstream("streetview", start, err)
			if err == nil {
				break
			}
			s.logger.Warn("street view fetch failed", "direction", dir, "attempt", attempt, "error", err)
		}
		if err != nil {
			continue
		}
		out = append(out, domain.Photo{Direction: dir, MIMEType: "image/jpeg", Data: img, EncodedSize: len(img) * 4 / 3})
	}
	return out
}

type imageSet struct {
	all        map[domain.Direction][]domain.Photo
	processed  map[domain.Direction]domain.Photo
	streetView []domain.Photo
	tile       []byte
	tileErr    error
}

// attachImages uploads every image to blob storage and records the signed
// URLs. Failed uploads are logged and left out of the record.
func (s *Service) attachImages(ctx context.Context, logger *slog.Logger, rec *domain.RemodelRecord, set imageSet) {
	if set.tileErr != nil {
		rec.SatelliteImageError = set.tileErr.Error()
	}
	if s.deps.Blobs == nil {
		if set.tileErr == nil {
			rec.SatelliteImageError = "blob storage not configured"
		}
		return
	}
	prefix := "remodels/" + uuid.NewString()

	put := func(key string, data []byte, contentType string) (string, bool) {
		url, err := s.deps.Blobs.Put(ctx, key, data, contentType)
		if err != nil {
			logger.Warn("image upload failed", "key", key, "error", err)
			return "", false
		}
		return url, true
	}

	rec.UploadedImages = make(map[domain.Direction][]string)
	for _, dir := range domain.AllDirections {
		for i, p := range set.all[dir] {
			if url, ok := put(fmt.Sprintf("%s/uploads/%s/%d%s", prefix, dir, i, extension(p.MIMEType)), p.Data, p.MIMEType); ok {
				rec.UploadedImages[dir] = append(rec.UploadedImages[dir], url)
			}
		}
	}

	rec.ProcessedImages = make(map[domain.Direction]string, len(set.processed))
	for _, dir := range domain.AllDirections {
		p, ok := set.processed[dir]
		if !ok {
			continue
		}
		if url, ok := put(fmt.Sprintf("%s/processed/%s%s", prefix, dir, extension(p.MIMEType)), p.Data, p.MIMEType); ok {
			rec.ProcessedImages[dir] = url
		}
	}

	if len(set.streetView) > 0 {
		p := set.streetView[0]
		if url, ok := put(fmt.Sprintf("%s/streetview/%s.jpg", prefix, p.Direction), p.Data, p.MIMEType); ok {
			rec.StreetViewImage = url
		}
	}

	if set.tileErr == nil && len(set.tile) > 0 {
		if url, ok := put(prefix+"/satellite.png", set.tile, "image/png"); ok {
			rec.SatelliteImage = url
		} else {
			rec.SatelliteImageError = "satellite image upload failed"
		}
	}
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
