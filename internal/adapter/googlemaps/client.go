// Package googlemaps fetches static satellite tiles and street-level imagery
// from the Google Maps Platform image APIs.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultStaticMapURL  = "https://maps.googleapis.com/maps/api/staticmap"
	defaultStreetViewURL = "https://maps.googleapis.com/maps/api/streetview"

	streetViewSize  = "640x640"
	streetViewPitch = "10"

	// maxImageBytes bounds a single downloaded image.
	maxImageBytes = 10 << 20
)

// ErrNoPanorama is returned by StreetView when no street-level imagery exists
// near the point. The image endpoint answers such requests with a grey
// placeholder, so availability is checked through the metadata endpoint first.
var ErrNoPanorama = errors.New("no street view panorama")

// Client implements domain.SatelliteImagery and domain.StreetViewImagery.
type Client struct {
	apiKey        string
	httpClient    *http.Client
	staticMapURL  string
	streetViewURL string
}

// NewClient creates a Maps Platform image client.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: timeout},
		staticMapURL:  defaultStaticMapURL,
		streetViewURL: defaultStreetViewURL,
	}
}

// SatelliteTile returns a square PNG satellite image centered on the point.
func (c *Client) SatelliteTile(ctx context.Context, lat, lon float64, zoom, sizePx int) ([]byte, error) {
	params := url.Values{
		"center":  {latLng(lat, lon)},
		"zoom":    {strconv.Itoa(zoom)},
		"size":    {fmt.Sprintf("%dx%d", sizePx, sizePx)},
		"maptype": {"satellite"},
		"format":  {"png"},
		"key":     {c.apiKey},
	}
	data, err := c.fetch(ctx, c.staticMapURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch satellite tile: %w", err)
	}
	return data, nil
}

// StreetView returns a JPEG street-level image of the point seen from the
// given compass heading.
func (c *Client) StreetView(ctx context.Context, lat, lon float64, heading int) ([]byte, error) {
	if err := c.checkPanorama(ctx, lat, lon); err != nil {
		return nil, fmt.Errorf("fetch street view heading %d: %w", heading, err)
	}
	params := url.Values{
		"size":     {streetViewSize},
		"location": {latLng(lat, lon)},
		"heading":  {strconv.Itoa(heading)},
		"pitch":    {streetViewPitch},
		"key":      {c.apiKey},
	}
	data, err := c.fetch(ctx, c.streetViewURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch street view heading %d: %w", heading, err)
	}
	return data, nil
}

func (c *Client) checkPanorama(ctx context.Context, lat, lon float64) error {
	params := url.Values{
		"location": {latLng(lat, lon)},
		"key":      {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streetViewURL+"/metadata?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("maps API error: status %d: %s", resp.StatusCode, body)
	}

	var meta metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if meta.Status != "OK" {
		return fmt.Errorf("%w: status %s", ErrNoPanorama, meta.Status)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, base string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("maps API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("empty image")
	case len(data) > maxImageBytes:
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}

func latLng(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}

type metadataResponse struct {
	Status string `json:"status"`
}
