package remodel_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/measure"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/openings"
	"github.com/couchcryptid/remodel-estimate-service/internal/remodel"
	"github.com/couchcryptid/remodel-estimate-service/internal/roof"
)

// --- mocks ---

type mockGeocoder struct {
	results []domain.Address
	err     error
}

func (m *mockGeocoder) Geocode(context.Context, string) ([]domain.Address, error) {
	return m.results, m.err
}

type mockRecognizer struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
}

func (m *mockRecognizer) Recognize(_ context.Context, img []byte) ([]domain.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failFor[string(img)] {
		return nil, errors.New("recognition service returned 500")
	}
	return []domain.Concept{{Name: "window", Score: 0.95}, {Name: "door", Score: 0.5}}, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]domain.RemodelRecord
	err     error
}

func (m *memoryStore) Save(_ context.Context, rec domain.RemodelRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.records == nil {
		m.records = make(map[string]domain.RemodelRecord)
	}
	id := fmt.Sprintf("rec-%d", len(m.records)+1)
	rec.ID = id
	m.records[id] = rec
	return id, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (domain.RemodelRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return domain.RemodelRecord{}, domain.ErrRemodelNotFound
	}
	return rec, nil
}

type mockBlobs struct {
	keys []string
	fail bool
}

func (m *mockBlobs) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if m.fail {
		return "", errors.New("bucket unavailable")
	}
	m.keys = append(m.keys, key)
	return "https://blobs.example/" + key + "?sig=x", nil
}

type mockEvents struct {
	published []domain.RemodelRecord
}

func (m *mockEvents) PublishEstimate(_ context.Context, rec domain.RemodelRecord) error {
	m.published = append(m.published, rec)
	return nil
}

type mockStreetView struct {
	calls    int
	failures int // fail this many calls before succeeding
}

func (m *mockStreetView) StreetView(_ context.Context, _, _ float64, heading int) ([]byte, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("street view 503")
	}
	return []byte(fmt.Sprintf("sv-%d", heading)), nil
}

type mockSatellite struct {
	tile []byte
}

func (m *mockSatellite) SatelliteTile(context.Context, float64, float64, int, int) ([]byte, error) {
	return m.tile, nil
}

// --- helpers ---

// rooftopPNG renders a flat dark rectangle on a light ground, as seen from above.
func rooftopPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 640, 640))
	for y := 0; y < 640; y++ {
		for x := 0; x < 640; x++ {
			c := color.Gray{Y: 240}
			if x >= 200 && x < 440 && y >= 240 && y < 400 {
				c = color.Gray{Y: 50}
			}
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var boulder = domain.Address{DisplayName: "1777 Broadway, Boulder, Colorado, USA", Lat: 40.01, Lon: -105.27}

func dataURI(content string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func allDirections() map[string][]string {
	return map[string][]string{
		"north": {dataURI("north"), dataURI("north-2")},
		"south": {dataURI("south")},
		"east":  {dataURI("east")},
		"west":  {dataURI("west")},
	}
}

type fixture struct {
	svc        *remodel.Service
	recognizer *mockRecognizer
	store      *memoryStore
	blobs      *mockBlobs
	events     *mockEvents
	streetView *mockStreetView
	metrics    *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		recognizer: &mockRecognizer{},
		store:      &memoryStore{},
		blobs:      &mockBlobs{},
		events:     &mockEvents{},
		streetView: &mockStreetView{},
		metrics:    observability.NewMetricsForTesting(),
	}
	f.svc = remodel.New(remodel.Deps{
		Geocoder:   &mockGeocoder{results: []domain.Address{boulder}},
		Resolver:   measure.NewResolver(nil, logger, f.metrics),
		Roof:       roof.NewEstimator(logger, f.metrics),
		Openings:   openings.NewDetector(f.recognizer, time.Second, 512000, logger, f.metrics),
		StreetView: f.streetView,
		Blobs:      f.blobs,
		Store:      f.store,
		Events:     f.events,
	}, remodel.Options{ImageryTimeout: time.Second}, logger, f.metrics)
	return f
}

func intPtr(v int) *int { return &v }

// --- tests ---

func TestEstimate_Complete(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	f := newFixture(t)
	out, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway, Boulder", Photos: allDirections()})
	require.NoError(t, err)

	done, ok := out.(remodel.Complete)
	require.True(t, ok, "expected Complete, got %T", out)
	rec := done.Record

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, boulder, rec.Address)
	assert.False(t, rec.IsMeasurementsReliable)
	assert.Equal(t, domain.SourceRegional, rec.Measurements.Source)
	assert.Equal(t, 4, rec.WindowDoorCount.Windows)
	assert.Equal(t, 4, rec.WindowDoorCount.Doors)
	assert.True(t, rec.WindowDoorCount.IsReliable)
	assert.Equal(t, fakeClock.Now(), rec.CreatedAt)
	assert.Equal(t, 4, f.recognizer.calls)
	assert.Zero(t, f.streetView.calls)

	assert.Len(t, rec.ProcessedImages, 4)
	assert.Len(t, rec.UploadedImages[domain.North], 2)
	assert.Equal(t, "satellite imagery not configured", rec.SatelliteImageError)
	require.Len(t, f.events.published, 1)
	assert.Equal(t, "rec-1", f.events.published[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("complete")))
}

func TestEstimate_RetryRequestedForFailedDirections(t *testing.T) {
	f := newFixture(t)
	f.recognizer.failFor = map[string]bool{"east": true, "west": true}

	out, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway", Photos: allDirections()})
	require.NoError(t, err)

	retry, ok := out.(remodel.NeedsRetry)
	require.True(t, ok, "expected NeedsRetry, got %T", out)
	assert.Equal(t, []domain.Direction{domain.East, domain.West}, retry.Directions)
	assert.Empty(t, f.store.records)
	assert.Empty(t, f.blobs.keys)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("retry")))
}

func TestEstimate_NoRecognizerCompletesWithFallbacks(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	store := &memoryStore{}
	svc := remodel.New(remodel.Deps{
		Geocoder: &mockGeocoder{results: []domain.Address{boulder}},
		Resolver: measure.NewResolver(nil, logger, metrics),
		Roof:     roof.NewEstimator(logger, metrics),
		Openings: openings.NewDetector(nil, time.Second, 512000, logger, metrics),
		Store:    store,
	}, remodel.Options{ImageryTimeout: time.Second}, logger, metrics)

	out, err := svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway", Photos: allDirections()})
	require.NoError(t, err)

	done, ok := out.(remodel.Complete)
	require.True(t, ok, "expected Complete, got %T", out)
	assert.Equal(t, 4*openings.FallbackWindows, done.Record.WindowDoorCount.Windows)
	assert.Equal(t, 4*openings.FallbackDoors, done.Record.WindowDoorCount.Doors)
	assert.False(t, done.Record.WindowDoorCount.IsReliable)
	assert.Len(t, store.records, 1)
	assert.Zero(t, testutil.ToFloat64(metrics.Requests.WithLabelValues("retry")))
}

func TestEstimate_RetryPhotosNeverLoop(t *testing.T) {
	f := newFixture(t)
	f.recognizer.failFor = map[string]bool{"east-again": true}

	out, err := f.svc.Estimate(context.Background(), remodel.Request{
		Address:     "1777 Broadway",
		Photos:      allDirections(),
		RetryPhotos: map[string][]string{"east": {dataURI("east-again")}},
	})
	require.NoError(t, err)

	done, ok := out.(remodel.Complete)
	require.True(t, ok, "expected Complete, got %T", out)
	// Three classified directions plus the east fallback.
	assert.Equal(t, 3+openings.FallbackWindows, done.Record.WindowDoorCount.Windows)
	assert.Equal(t, 3+openings.FallbackDoors, done.Record.WindowDoorCount.Doors)
}

func TestEstimate_SatelliteTileNeverSetsPitch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	svc := remodel.New(remodel.Deps{
		Geocoder:  &mockGeocoder{results: []domain.Address{boulder}},
		Resolver:  measure.NewResolver(nil, logger, metrics),
		Roof:      roof.NewEstimator(logger, metrics),
		Openings:  openings.NewDetector(&mockRecognizer{}, time.Second, 512000, logger, metrics),
		Satellite: &mockSatellite{tile: rooftopPNG(t)},
		Store:     &memoryStore{},
	}, remodel.Options{ImageryTimeout: time.Second}, logger, metrics)

	out, err := svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway"})
	require.NoError(t, err)

	done, ok := out.(remodel.Complete)
	require.True(t, ok, "expected Complete, got %T", out)
	info := done.Record.RoofInfo
	assert.Equal(t, domain.Pitch6in12, info.Pitch)
	assert.False(t, info.IsPitchReliable)
	assert.Equal(t, domain.PitchFromDefault, info.PitchSource)
	assert.Equal(t, roof.RoofArea(done.Record.Measurements.Area, domain.Pitch6in12), info.RoofArea)
}

func TestEstimate_ManualCountsSkipDetection(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Estimate(context.Background(), remodel.Request{
		Address:     "1777 Broadway",
		Photos:      allDirections(),
		WindowCount: intPtr(3),
		DoorCount:   intPtr(2),
		WindowSizes: []string{"3ft x 4ft", "3ft x 4ft", "4ft x 5ft"},
		DoorSizes:   []string{"3ft x 7ft", "3ft x 8ft"},
		Components:  []string{"windows", "doors"},
	})
	require.NoError(t, err)

	rec := out.(remodel.Complete).Record
	assert.Zero(t, f.recognizer.calls)
	assert.True(t, rec.WindowDoorCount.IsReliable)
	assert.Equal(t, 3, rec.WindowDoorCount.Windows)
	assert.Len(t, rec.MaterialEstimates, 5)
	assert.Equal(t, []domain.Component{domain.ComponentWindows, domain.ComponentDoors}, rec.Components)
}

func TestEstimate_StreetViewWhenNoPhotos(t *testing.T) {
	f := newFixture(t)
	f.streetView.failures = 1
	f.recognizer.failFor = map[string]bool{"sv-90": true}

	out, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway"})
	require.NoError(t, err)

	rec := out.(remodel.Complete).Record
	// First heading fails once and is retried.
	assert.Equal(t, 5, f.streetView.calls)
	assert.Equal(t, 4, f.recognizer.calls)
	assert.True(t, rec.WindowDoorCount.IsReliable)
	assert.NotEmpty(t, rec.StreetViewImage)
	assert.Empty(t, rec.UploadedImages)
}

func TestEstimate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   remodel.Request
		field string
	}{
		{"empty address", remodel.Request{Address: "  "}, "address"},
		{"bad direction", remodel.Request{Address: "x", Photos: map[string][]string{"up": {dataURI("a")}}}, "photos"},
		{"bad data uri", remodel.Request{Address: "x", Photos: map[string][]string{"north": {"not-a-uri"}}}, "photos"},
		{"bad component", remodel.Request{Address: "x", Components: []string{"gutters"}}, "components"},
		{"negative count", remodel.Request{Address: "x", WindowCount: intPtr(-1), DoorCount: intPtr(0)}, "windowCount"},
		{"bad pin", remodel.Request{Address: "x", Pin: &domain.LatLon{Lat: 120}}, "pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFixture(t).svc.Estimate(context.Background(), tt.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestEstimate_AddressNotFound(t *testing.T) {
	f := newFixture(t)
	svc := remodel.New(remodel.Deps{
		Geocoder: &mockGeocoder{},
		Store:    f.store,
	}, remodel.Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)), f.metrics)

	_, err := svc.Estimate(context.Background(), remodel.Request{Address: "nowhere at all"})
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("invalid")))
}

func TestEstimate_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("connection refused")

	_, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway", Photos: allDirections()})
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, f.events.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("error")))
}

func TestEstimate_BlobFailuresAreBestEffort(t *testing.T) {
	f := newFixture(t)
	f.blobs.fail = true

	out, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway", Photos: allDirections()})
	require.NoError(t, err)
	rec := out.(remodel.Complete).Record
	assert.Empty(t, rec.ProcessedImages)
	assert.Empty(t, rec.UploadedImages)
}

func TestGet_RoundTripPreservesMaterialOrder(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Estimate(context.Background(), remodel.Request{Address: "1777 Broadway", Photos: allDirections()})
	require.NoError(t, err)
	want := out.(remodel.Complete).Record

	got, err := f.svc.Get(context.Background(), want.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(want.MaterialEstimates, got.MaterialEstimates); diff != "" {
		t.Errorf("materials changed on read back (-want +got):\n%s", diff)
	}

	_, err = f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRemodelNotFound)
}
