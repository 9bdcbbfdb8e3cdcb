// Command quote prices remodel estimates offline. It reads a JSON array of
// estimator inputs (address, measurements, opening counts, components), runs
// the same pricing code as the service, and writes the quotes as JSON. Roof
// details left out of an input are filled with the service's defaults.
//
// Usage:
//
//	go run ./cmd/quote \
//	  -in cmd/quote/testdata/fixtures.json \
//	  -out quotes.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/estimate"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
	"github.com/couchcryptid/remodel-estimate-service/internal/roof"
)

// quotedAt is stamped on every quote so output files are reproducible.
var quotedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// Quote is one priced fixture.
type Quote struct {
	Address   string          `json:"address"`
	Roof      domain.RoofInfo `json:"roofInfo"`
	Estimate  estimate.Output `json:"estimate"`
	QuotedAt  time.Time       `json:"quotedAt"`
	Materials []string        `json:"materials"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	in := fs.String("in", "", "path to a JSON array of estimator inputs")
	out := fs.String("out", "", "output path for priced quotes (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	domain.SetClock(clockwork.NewFakeClockAt(quotedAt))
	defer domain.SetClock(nil)

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("reading fixtures: %w", err)
	}
	var inputs []estimate.Input
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("parsing fixtures: %w", err)
	}

	quotes := price(inputs)

	if *out == "" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(quotes)
	}
	if err := writeJSON(*out, quotes); err != nil {
		return fmt.Errorf("writing quotes: %w", err)
	}
	log.Printf("wrote %d quotes: %s", len(quotes), *out)
	return nil
}

func price(inputs []estimate.Input) []Quote {
	roofs := roof.NewEstimator(slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	quotes := make([]Quote, 0, len(inputs))
	for _, in := range inputs {
		if in.Roof.Pitch == "" {
			in.Roof = roofs.Estimate(context.Background(), roof.Input{Measurement: in.Measurement})
		}
		if in.Openings.WindowSizes == nil {
			in.Openings.WindowSizes = []string{}
		}
		if in.Openings.DoorSizes == nil {
			in.Openings.DoorSizes = []string{}
		}

		res := estimate.Compute(in)
		lines := make([]string, 0, len(res.Materials))
		for _, li := range res.Materials {
			lines = append(lines, li.String())
		}
		quotes = append(quotes, Quote{
			Address:   in.Address.DisplayName,
			Roof:      in.Roof,
			Estimate:  res,
			QuotedAt:  domain.Now().UTC(),
			Materials: lines,
		})
	}
	return quotes
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
