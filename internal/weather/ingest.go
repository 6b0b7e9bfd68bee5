package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

// quotaWarnRatio is the consumed fraction of any request ceiling above which
// the quota check logs a warning.
const quotaWarnRatio = 0.8

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	// Days is the length of the forecast window starting today 00:00 UTC.
	Days int

	// FetchTimeout bounds each per-location fetch. A timeout counts as a
	// per-location failure, not a job failure.
	FetchTimeout time.Duration

	// SnapshotPath, when set, receives a JSON dump of the ingested dataset
	// for diagnostic replay.
	SnapshotPath string
}

// Ingestor populates the record store from the external forecast source.
// Each run replaces the whole table contents.
type Ingestor struct {
	source    ForecastSource
	store     Store
	locations []Location
	opts      IngestOptions
}

// NewIngestor creates an Ingestor over the given source, store and location set.
func NewIngestor(source ForecastSource, store Store, locations []Location, opts IngestOptions) *Ingestor {
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Ingestor{
		source:    source,
		store:     store,
		locations: locations,
		opts:      opts,
	}
}

// Run executes one ingestion: quota check, per-location fetch, reshape,
// snapshot backup, then a full table replace. A failed location contributes
// zero rows and does not abort the run; only a store failure is fatal.
func (ing *Ingestor) Run(ctx context.Context) error {
	ing.checkQuota(ctx)

	window := NewForecastWindow(ing.opts.Days)
	records := make([]Record, 0, len(ing.locations)*ing.opts.Days)

	for _, loc := range ing.locations {
		log.Printf("ingest: fetching %s (%f, %f)", loc.Name, loc.Lat, loc.Lon)

		fetchCtx, cancel := context.WithTimeout(ctx, ing.opts.FetchTimeout)
		points, err := ing.source.FetchDaily(fetchCtx, loc, window)
		cancel()
		if err != nil {
			// Partial-failure semantics: skip this location, keep the rest.
			log.Printf("ERROR: ingest: fetch failed for %s: %v", loc.Name, err)
			continue
		}

		for _, p := range points {
			records = append(records, Record{
				Loc:  loc.Name,
				Lat:  loc.Lat,
				Lon:  loc.Lon,
				Date: p.Date,
				Temp: p.Temp,
				Rain: p.Rain,
				Wind: p.Wind,
			})
		}
		log.Printf("ingest: finished %s (%d days)", loc.Name, len(points))
	}

	// Fresh zero-based ordering over the concatenated dataset.
	for i := range records {
		records[i].Index = int64(i)
	}

	if ing.opts.SnapshotPath != "" {
		if err := writeSnapshot(ing.opts.SnapshotPath, records); err != nil {
			log.Printf("ERROR: ingest: snapshot write failed: %v", err)
		}
	}

	if err := ing.store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("ingest: store replace failed: %w", err)
	}
	log.Printf("ingest: stored %d records for %d locations", len(records), len(ing.locations))
	return nil
}

// checkQuota logs the source's request-budget consumption and warns when any
// ceiling is over 80% consumed. Advisory only: failures are logged and
// ignored, and ingestion proceeds regardless.
func (ing *Ingestor) checkQuota(ctx context.Context) {
	reporter, ok := ing.source.(QuotaReporter)
	if !ok {
		return
	}

	stats, err := reporter.UserStats(ctx)
	if err != nil {
		log.Printf("ERROR: ingest: quota check failed: %v", err)
		return
	}

	warn := func(label string, u QuotaUsage) {
		if u.Limit > 0 && float64(u.Used) >= float64(u.Limit)*quotaWarnRatio {
			log.Printf("WARNING: approaching %s API limit: %d of %d %s requests consumed",
				ing.source.Name(), u.Used, u.Limit, label)
		}
	}
	warn("daily", stats.SinceMidnight)
	warn("last-60-seconds", stats.Last60Seconds)
	warn("parallel", stats.Parallel)

	log.Printf("ingest: quota total: %d/%d, last 60 sec: %d/%d, parallel: %d/%d",
		stats.SinceMidnight.Used, stats.SinceMidnight.Limit,
		stats.Last60Seconds.Used, stats.Last60Seconds.Limit,
		stats.Parallel.Used, stats.Parallel.Limit)
}

func writeSnapshot(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
