package openings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRecognizer struct {
	mu       sync.Mutex
	calls    int
	byImage  map[string][]domain.Concept
	failFor  map[string]bool
	err      error
	blockFor time.Duration
}

func (m *mockRecognizer) Recognize(ctx context.Context, img []byte) ([]domain.Concept, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.blockFor > 0 {
		time.Sleep(m.blockFor)
	}
	if m.err != nil || m.failFor[string(img)] {
		return nil, errors.Join(m.err, errors.New("recognition service returned 500"))
	}
	return m.byImage[string(img)], nil
}

func (m *mockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func photo(dir domain.Direction, data string) domain.Photo {
	return domain.Photo{Direction: dir, MIMEType: "image/jpeg", Data: []byte(data), EncodedSize: len(data) * 4 / 3}
}

func onePerDirection() map[domain.Direction][]domain.Photo {
	out := make(map[domain.Direction][]domain.Photo)
	for _, d := range domain.AllDirections {
		out[d] = []domain.Photo{photo(d, string(d))}
	}
	return out
}

func newDetector(rec domain.Recognizer, metrics *observability.Metrics) *Detector {
	return NewDetector(rec, time.Second, 512000, discardLogger(), metrics)
}

func TestDetect_AllFourFail(t *testing.T) {
	rec := &mockRecognizer{err: errors.New("boom")}
	metrics := observability.NewMetricsForTesting()

	res := newDetector(rec, metrics).Detect(context.Background(), Input{Photos: onePerDirection()})

	assert.Equal(t, 8, res.Count.Windows)
	assert.Equal(t, 4, res.Count.Doors)
	assert.Len(t, res.Count.WindowSizes, 8)
	assert.Len(t, res.Count.DoorSizes, 4)
	assert.False(t, res.Count.IsReliable)
	assert.Equal(t, domain.AllDirections, res.FailedDirections)
	assert.Equal(t, 4, rec.Calls())
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.OpeningDetections.WithLabelValues("failure")))
}

func TestDetect_NoRecognizerUsesFallbacksWithoutRetry(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	res := newDetector(nil, metrics).Detect(context.Background(), Input{Photos: onePerDirection()})

	assert.Equal(t, 8, res.Count.Windows)
	assert.Equal(t, 4, res.Count.Doors)
	assert.False(t, res.Count.IsReliable)
	assert.Empty(t, res.FailedDirections)
	assert.Len(t, res.Processed, 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.OpeningDetections.WithLabelValues("unconfigured")))
}

func TestDetect_ManualShortCircuits(t *testing.T) {
	rec := &mockRecognizer{}
	manual := &ManualCounts{
		Windows:     3,
		Doors:       2,
		WindowSizes: []string{"3ft x 4ft", "3ft x 4ft", "4ft x 5ft"},
		DoorSizes:   []string{"3ft x 7ft", "3ft x 8ft"},
	}

	res := newDetector(rec, observability.NewMetricsForTesting()).
		Detect(context.Background(), Input{Photos: onePerDirection(), Manual: manual})

	assert.True(t, res.Count.IsReliable)
	assert.Equal(t, 3, res.Count.Windows)
	assert.Equal(t, 2, res.Count.Doors)
	assert.Equal(t, manual.WindowSizes, res.Count.WindowSizes)
	assert.Equal(t, 0, rec.Calls())
	assert.Empty(t, res.FailedDirections)
	assert.Len(t, res.Processed, 4)
}

func TestDetect_ManualWithoutSizes(t *testing.T) {
	res := newDetector(&mockRecognizer{}, observability.NewMetricsForTesting()).
		Detect(context.Background(), Input{Manual: &ManualCounts{Windows: 6, Doors: 1}})

	assert.True(t, res.Count.IsReliable)
	assert.Equal(t, 6, res.Count.Windows)
	assert.Empty(t, res.Count.WindowSizes)
}

func TestDetect_ClassifiesAndMergesByDirection(t *testing.T) {
	rec := &mockRecognizer{
		byImage: map[string][]domain.Concept{
			"north": {{Name: "window", Score: 0.95}, {Name: "window", Score: 0.5}, {Name: "door", Score: 0.97}},
			"south": {{Name: "Bay Window", Score: 0.8}, {Name: "tree", Score: 0.99}},
			"west":  {{Name: "garage door", Score: 0.6}},
		},
		failFor: map[string]bool{"east": true},
	}

	res := newDetector(rec, observability.NewMetricsForTesting()).
		Detect(context.Background(), Input{Photos: onePerDirection()})

	assert.True(t, res.Count.IsReliable)
	assert.Equal(t, []domain.Direction{domain.East}, res.FailedDirections)
	assert.Equal(t, []string{
		domain.WindowSizeLarge, domain.WindowSizeStandard, // north
		domain.WindowSizeStandard,                            // south
		domain.WindowSizeStandard, domain.WindowSizeStandard, // east fallback
	}, res.Count.WindowSizes)
	assert.Equal(t, []string{
		domain.DoorSizeLarge,    // north
		domain.DoorSizeStandard, // east fallback
		domain.DoorSizeStandard, // west
	}, res.Count.DoorSizes)
	assert.Equal(t, 5, res.Count.Windows)
	assert.Equal(t, 3, res.Count.Doors)
}

func TestDetect_OnlyFirstPhotoPerDirection(t *testing.T) {
	rec := &mockRecognizer{byImage: map[string][]domain.Concept{"first": {{Name: "window", Score: 0.5}}}}
	photos := map[domain.Direction][]domain.Photo{
		domain.North: {photo(domain.North, "first"), photo(domain.North, "second"), photo(domain.North, "third")},
	}

	res := newDetector(rec, observability.NewMetricsForTesting()).Detect(context.Background(), Input{Photos: photos})

	assert.Equal(t, 1, rec.Calls())
	assert.Equal(t, 1, res.Count.Windows)
	assert.Equal(t, "first", string(res.Processed[domain.North].Data))
}

func TestDetect_OversizedSkipsRecognizer(t *testing.T) {
	rec := &mockRecognizer{}
	metrics := observability.NewMetricsForTesting()
	big := photo(domain.South, "huge")
	big.EncodedSize = 600000

	res := newDetector(rec, metrics).Detect(context.Background(), Input{Photos: map[domain.Direction][]domain.Photo{domain.South: {big}}})

	assert.Equal(t, 0, rec.Calls())
	assert.Equal(t, FallbackWindows, res.Count.Windows)
	assert.Equal(t, FallbackDoors, res.Count.Doors)
	assert.Equal(t, []domain.Direction{domain.South}, res.FailedDirections)
	assert.Contains(t, res.Processed, domain.South)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OpeningDetections.WithLabelValues("oversized")))
}

func TestDetect_TimeoutIsFailure(t *testing.T) {
	rec := &mockRecognizer{blockFor: 200 * time.Millisecond}
	d := NewDetector(rec, 20*time.Millisecond, 0, discardLogger(), observability.NewMetricsForTesting())

	res := d.Detect(context.Background(), Input{Photos: map[domain.Direction][]domain.Photo{domain.East: {photo(domain.East, "e")}}})

	assert.Equal(t, []domain.Direction{domain.East}, res.FailedDirections)
	assert.Equal(t, 2, res.Count.Windows)
	assert.False(t, res.Count.IsReliable)
}

func TestDetect_StreetViewSubstitute(t *testing.T) {
	rec := &mockRecognizer{byImage: map[string][]domain.Concept{"sv-north": {{Name: "window", Score: 0.7}}}}
	sv := []domain.Photo{photo(domain.North, "sv-north"), photo(domain.East, "sv-east")}

	res := newDetector(rec, observability.NewMetricsForTesting()).Detect(context.Background(), Input{StreetView: sv})

	require.True(t, res.UsedStreetView)
	assert.Equal(t, 2, rec.Calls())
	assert.True(t, res.Count.IsReliable)
	assert.Len(t, res.Processed, 2)
}

func TestDetect_NoPhotos(t *testing.T) {
	rec := &mockRecognizer{}
	res := newDetector(rec, observability.NewMetricsForTesting()).Detect(context.Background(), Input{})

	assert.Equal(t, 0, res.Count.Windows)
	assert.Equal(t, 0, res.Count.Doors)
	assert.NotNil(t, res.Count.WindowSizes)
	assert.False(t, res.Count.IsReliable)
	assert.Empty(t, res.FailedDirections)
	assert.Equal(t, 0, rec.Calls())
}

func TestClassify(t *testing.T) {
	w, d := Classify([]domain.Concept{
		{Name: "window", Score: 0.91},
		{Name: "door", Score: 0.9},
		{Name: "roof", Score: 0.99},
	})
	assert.Equal(t, []string{domain.WindowSizeLarge}, w)
	assert.Equal(t, []string{domain.DoorSizeStandard}, d)
}
