package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolveAddress geocodes a free-text address and returns the first
// candidate with valid coordinates. Geocoding has no fallback: an upstream
// failure is returned as an *UpstreamError and an empty or invalid result
// as ErrAddressNotFound.
func ResolveAddress(ctx context.Context, geocoder Geocoder, query string, logger *slog.Logger) (Address, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Address{}, Invalid("address", "address is required")
	}
	if geocoder == nil {
		return Address{}, &UpstreamError{Service: "geocoder", Err: fmt.Errorf("no geocoder configured")}
	}

	candidates, err := geocoder.Geocode(ctx, query)
	if err != nil {
		logger.Error("geocoding failed", "address", query, "error", err)
		return Address{}, &UpstreamError{Service: "geocoder", Err: err}
	}

	for _, c := range candidates {
		if c.Valid() {
			logger.Debug("address resolved", "address", query, "display_name", c.DisplayName)
			return c, nil
		}
		logger.Warn("skipping geocoder candidate with invalid coordinates",
			"address", query,
			"lat", c.Lat,
			"lon", c.Lon,
		)
	}
	return Address{}, ErrAddressNotFound
}
