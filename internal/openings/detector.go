// Package openings counts the windows and doors on each facade of the
// building. Manual counts short-circuit detection; otherwise the first photo
// of every direction is classified concurrently and each failed photo
// contributes a fixed fallback count instead of failing the request.
package openings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/upstream"
)

// Fallback contribution of a photo that could not be classified.
const (
	FallbackWindows = 2
	FallbackDoors   = 1
)

// largeScore is the confidence above which an opening is bucketed as large.
const largeScore = 0.9

// ManualCounts are customer-entered counts. Sizes may be shorter than the
// counts or empty.
type ManualCounts struct {
	Windows     int
	Doors       int
	WindowSizes []string
	DoorSizes   []string
}

// Input is the photos to classify. StreetView substitutes for Photos when the
// customer submitted none.
type Input struct {
	Photos     map[domain.Direction][]domain.Photo
	Manual     *ManualCounts
	StreetView []domain.Photo
}

// Result is the merged count plus what the orchestrator needs to decide on a
// retry and to report processed images.
type Result struct {
	Count            domain.WindowDoorCount
	FailedDirections []domain.Direction
	Processed        map[domain.Direction]domain.Photo
	UsedStreetView   bool
}

// Detector classifies facade photos with a Recognizer.
type Detector struct {
	recognizer    domain.Recognizer
	timeout       time.Duration
	maxImageBytes int
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewDetector creates a Detector. Photos whose encoded payload exceeds
// maxImageBytes are never sent to the recognizer. A nil recognizer means no
// recognition backend is configured and every photo gets fallback counts.
func NewDetector(recognizer domain.Recognizer, timeout time.Duration, maxImageBytes int, logger *slog.Logger, metrics *observability.Metrics) *Detector {
	return &Detector{
		recognizer:    recognizer,
		timeout:       timeout,
		maxImageBytes: maxImageBytes,
		logger:        logger,
		metrics:       metrics,
	}
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	outcomeOversized
	outcomeUnconfigured
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeOversized:
		return "oversized"
	case outcomeUnconfigured:
		return "unconfigured"
	default:
		return "failure"
	}
}

type directionResult struct {
	dir         domain.Direction
	outcome     outcome
	windowSizes []string
	doorSizes   []string
}

// Detect never fails; every problem degrades to fallback counts.
func (d *Detector) Detect(ctx context.Context, in Input) Result {
	primary := firstPerDirection(in.Photos)
	res := Result{Processed: primary}

	if in.Manual != nil {
		res.Count = manualCount(*in.Manual)
		return res
	}

	if len(primary) == 0 && len(in.StreetView) > 0 {
		primary = make(map[domain.Direction]domain.Photo, len(in.StreetView))
		for _, p := range in.StreetView {
			if _, ok := primary[p.Direction]; !ok {
				primary[p.Direction] = p
			}
		}
		res.Processed = primary
		res.UsedStreetView = true
	}

	res.Count = domain.WindowDoorCount{WindowSizes: []string{}, DoorSizes: []string{}}
	if len(primary) == 0 {
		return res
	}

	results := make([]directionResult, len(domain.AllDirections))
	var g errgroup.Group
	for i, dir := range domain.AllDirections {
		photo, ok := primary[dir]
		if !ok {
			continue
		}
		g.Go(func() error {
			results[i] = d.classify(ctx, dir, photo)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.dir == "" {
			continue
		}
		d.metrics.OpeningDetections.WithLabelValues(r.outcome.String()).Inc()
		switch r.outcome {
		case outcomeSuccess:
			if len(r.windowSizes)+len(r.doorSizes) > 0 {
				res.Count.IsReliable = true
			}
		case outcomeUnconfigured:
			// A resend cannot succeed without a backend, so no retry.
			r.windowSizes, r.doorSizes = fallbackSizes()
		default:
			res.FailedDirections = append(res.FailedDirections, r.dir)
			r.windowSizes, r.doorSizes = fallbackSizes()
		}
		res.Count.WindowSizes = append(res.Count.WindowSizes, r.windowSizes...)
		res.Count.DoorSizes = append(res.Count.DoorSizes, r.doorSizes...)
	}
	res.Count.Windows = len(res.Count.WindowSizes)
	res.Count.Doors = len(res.Count.DoorSizes)
	return res
}

func (d *Detector) classify(ctx context.Context, dir domain.Direction, p domain.Photo) directionResult {
	r := directionResult{dir: dir}
	if d.recognizer == nil {
		r.outcome = outcomeUnconfigured
		return r
	}
	if d.maxImageBytes > 0 && p.EncodedSize > d.maxImageBytes {
		d.logger.Warn("photo too large for recognition, using fallback counts",
			"direction", dir,
			"size", p.EncodedSize,
			"max", d.maxImageBytes,
		)
		r.outcome = outcomeOversized
		return r
	}

	start := time.Now()
	concepts, err := upstream.Call(ctx, d.timeout, func(ctx context.Context) ([]domain.Concept, error) {
		return d.recognizer.Recognize(ctx, p.Data)
	})
	d.metrics.ObserveUpstream("recognition", start, err)
	if err != nil {
		d.logger.Warn("opening detection failed, using fallback counts", "direction", dir, "error", err)
		r.outcome = outcomeFailure
		return r
	}

	r.windowSizes, r.doorSizes = Classify(concepts)
	return r
}

// Classify buckets concepts whose label mentions a window or a door.
func Classify(concepts []domain.Concept) (windowSizes, doorSizes []string) {
	for _, c := range concepts {
		name := strings.ToLower(c.Name)
		switch {
		case strings.Contains(name, "window"):
			size := domain.WindowSizeStandard
			if c.Score > largeScore {
				size = domain.WindowSizeLarge
			}
			windowSizes = append(windowSizes, size)
		case strings.Contains(name, "door"):
			size := domain.DoorSizeStandard
			if c.Score > largeScore {
				size = domain.DoorSizeLarge
			}
			doorSizes = append(doorSizes, size)
		}
	}
	return windowSizes, doorSizes
}

func fallbackSizes() (windowSizes, doorSizes []string) {
	windowSizes = make([]string, FallbackWindows)
	for i := range windowSizes {
		windowSizes[i] = domain.WindowSizeStandard
	}
	doorSizes = make([]string, FallbackDoors)
	for i := range doorSizes {
		doorSizes[i] = domain.DoorSizeStandard
	}
	return windowSizes, doorSizes
}

func manualCount(m ManualCounts) domain.WindowDoorCount {
	return domain.WindowDoorCount{
		Windows:     max(m.Windows, 0),
		Doors:       max(m.Doors, 0),
		WindowSizes: append([]string{}, m.WindowSizes...),
		DoorSizes:   append([]string{}, m.DoorSizes...),
		IsReliable:  true,
	}
}

func firstPerDirection(photos map[domain.Direction][]domain.Photo) map[domain.Direction]domain.Photo {
	out := make(map[domain.Direction]domain.Photo, len(photos))
	for dir, ps := range photos {
		if len(ps) > 0 {
			out[dir] = ps[0]
		}
	}
	return out
}
