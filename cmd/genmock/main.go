// Command genmock writes a synthetic calibrated mission container and,
// optionally, the aligned container produced from it. It runs the real
// alignment session so the fixture matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -cal-out testdata/Dorado389_2020.064.10_cal.db \
//	  -align-out testdata/Dorado389_2020.064.10_align.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/auv-align/internal/adapter/sqlite"
	"github.com/couchcryptid/auv-align/internal/domain"
	"github.com/couchcryptid/auv-align/internal/mockmission"
	"github.com/couchcryptid/auv-align/internal/observability"
	"github.com/couchcryptid/auv-align/internal/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	calOut := flag.String("cal-out", "", "output path for the calibrated fixture")
	alignOut := flag.String("align-out", "", "output path for the aligned fixture (optional)")
	duration := flag.Duration("duration", 10*time.Minute, "mission duration")
	indexedHS2 := flag.Bool("indexed-hs2", false, "write hs2 time as ordinal positions")
	lateStart := flag.Bool("late-start", false, "add an instrument recording past the reference coverage")
	omitLatitude := flag.Bool("omit-latitude", false, "drop the latitude reference stream")
	flag.Parse()

	if *calOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -cal-out")
	}

	// Set a fixed clock for reproducible date attributes.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2020, time.March, 5, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	opts := mockmission.DefaultOptions()
	opts.Duration = *duration
	opts.IndexedHS2 = *indexedHS2
	opts.LateStartInstrument = *lateStart
	opts.OmitLatitude = *omitLatitude

	ds, err := mockmission.Generate(opts)
	if err != nil {
		return fmt.Errorf("generate mission: %w", err)
	}

	ctx := context.Background()
	if err := sqlite.Write(ctx, *calOut, ds); err != nil {
		return fmt.Errorf("writing calibrated fixture: %w", err)
	}
	log.Printf("wrote calibrated fixture: %s (%d variables)", *calOut, ds.Len())

	if *alignOut == "" {
		return nil
	}

	store := sqlite.NewStore()
	prov := domain.Provenance{
		Vehicle:     opts.Vehicle,
		Mission:     opts.Mission,
		CommandLine: "genmock",
		Host:        "localhost",
		Commit:      "fixture",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	session := pipeline.NewSession(store, store, domain.DefaultRules(), prov, logger, observability.NewMetricsForTesting())

	res, err := session.Run(ctx, *calOut, *alignOut)
	if err != nil {
		return fmt.Errorf("writing aligned fixture: %w", err)
	}
	log.Printf("wrote aligned fixture: %s", *alignOut)

	printStats(res)
	return nil
}

func printStats(res *pipeline.Result) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Aligned: %d\n", len(res.Aligned))
	for _, name := range res.Aligned {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("Samples: %s aligned, %s extrapolated\n",
		humanize.Comma(int64(res.AlignedSamples)), humanize.Comma(int64(res.ExtrapolatedSamples)))

	counts := res.SkipCounts()
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	fmt.Printf("Skipped: %d\n", len(res.Skipped))
	for _, r := range reasons {
		fmt.Printf("  %s=%d\n", r, counts[r])
	}

	if !res.BoundsObserved {
		return
	}
	b := res.Bounds
	fmt.Printf("Time: %s to %s (%s)\n",
		b.TimeStart.Format(time.RFC3339), b.TimeEnd.Format(time.RFC3339), domain.ISODuration(b.TimeEnd.Sub(b.TimeStart)))
	fmt.Printf("Depth: %g to %g m\n", b.DepthMin, b.DepthMax)
	fmt.Printf("Latitude: %g to %g\n", b.LatMin, b.LatMax)
	fmt.Printf("Longitude: %g to %g\n", b.LonMin, b.LonMax)
}
