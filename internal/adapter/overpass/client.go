// Package overpass finds building outlines through the OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// querier is the subset of overpass.Client used here.
type querier interface {
	Query(query string) (overpass.Result, error)
}

// Client implements domain.FootprintFinder.
type Client struct {
	client querier
}

// NewClient creates a footprint finder. At most two queries run concurrently
// against the endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := overpass.NewWithSettings(endpoint, 2, &http.Client{Timeout: timeout})
	return &Client{client: &c}
}

// FindBuildings returns every way tagged as a building within radiusMeters of
// the point, ordered by OSM id.
func (c *Client) FindBuildings(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Footprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := c.client.Query(buildingQuery(lat, lon, radiusMeters))
	if err != nil {
		return nil, fmt.Errorf("overpass building query: %w", err)
	}
	return toFootprints(result), nil
}

func buildingQuery(lat, lon, radiusMeters float64) string {
	return fmt.Sprintf(`[out:json];
way["building"](around:%.0f,%.6f,%.6f);
out body;
>;
out skel qt;`, radiusMeters, lat, lon)
}

func toFootprints(result overpass.Result) []domain.Footprint {
	footprints := make([]domain.Footprint, 0, len(result.Ways))
	for _, way := range result.Ways {
		if way == nil {
			continue
		}
		fp := domain.Footprint{
			ID:    way.ID,
			Tags:  way.Tags,
			Nodes: make([]domain.LatLon, 0, len(way.Nodes)),
		}
		for _, n := range way.Nodes {
			if n == nil {
				continue
			}
			fp.Nodes = append(fp.Nodes, domain.LatLon{Lat: n.Lat, Lon: n.Lon})
		}
		// A closed way repeats its first node at the end.
		if k := len(way.Nodes); k > 3 && way.Nodes[0] != nil && way.Nodes[k-1] != nil {
			fp.Closed = way.Nodes[0].ID == way.Nodes[k-1].ID
		}
		footprints = append(footprints, fp)
	}
	sort.Slice(footprints, func(i, j int) bool { return footprints[i].ID < footprints[j].ID })
	return footprints
}
