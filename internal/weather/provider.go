package weather

import (
	"context"
)

// TimePoint is one day of forecast values for a single location.
type TimePoint struct {
	Date Date
	Temp float64
	Rain float64
	Wind float64
}

// ForecastSource abstracts the external weather API (e.g. Meteomatics).
type ForecastSource interface {
	Name() string
	FetchDaily(ctx context.Context, loc Location, w Window) ([]TimePoint, error)
}

// QuotaUsage is one consumed/ceiling pair from the external API's
// rate-limit metadata.
type QuotaUsage struct {
	Used  int
	Limit int
}

// QuotaStats summarizes the external API's request budget.
type QuotaStats struct {
	SinceMidnight QuotaUsage
	Last60Seconds QuotaUsage
	Parallel      QuotaUsage
}

// QuotaReporter is implemented by sources that expose rate-limit metadata.
// The quota check is advisory only; ingestion never blocks on it.
type QuotaReporter interface {
	UserStats(ctx context.Context) (QuotaStats, error)
}

// Store is the contract the sqlite store (and any future persistent store)
// must satisfy.
type Store interface {
	ReplaceAll(ctx context.Context, records []Record) error
	All(ctx context.Context) ([]Record, error)
	ByLocation(ctx context.Context, loc string) ([]Record, error)
	ByLocationAndDate(ctx context.Context, loc string, day Date) ([]Record, error)
	// ByLocationInRange returns records with after < date <= until, ordered
	// by date ascending.
	ByLocationInRange(ctx context.Context, loc string, after, until Date) ([]Record, error)
	TopByMetric(ctx context.Context, metric Metric, n int) ([]Record, error)
}
