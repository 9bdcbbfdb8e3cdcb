// Package nominatim geocodes addresses with the OpenStreetMap Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "remodel-estimate-service/1.0"
)

// Client implements domain.Geocoder against a Nominatim instance. Nominatim's
// usage policy requires an identifying User-Agent on every request.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode returns the single best match for query, or an empty slice.
func (c *Client) Geocode(ctx context.Context, query string) (addrs []domain.Address, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveUpstream("nominatim", start, err) }()

	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	addrs = make([]domain.Address, 0, len(places))
	for _, p := range places {
		a, err := p.address()
		if err != nil {
			c.logger.Warn("discarding nominatim result", "display_name", p.DisplayName, "error", err)
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// place mirrors the fields we use from a Nominatim search result. Coordinates
// arrive as decimal strings.
type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p place) address() (domain.Address, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.Address{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.Address{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	return domain.Address{DisplayName: p.DisplayName, Lat: lat, Lon: lon}, nil
}
