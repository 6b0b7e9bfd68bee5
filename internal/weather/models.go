package weather

import (
	"fmt"
	"time"
)

// Date is a calendar day with no time-of-day component. It marshals to JSON
// and is persisted as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// ParseCompactDate parses the eight-digit YYYYMMDD form used in URL paths.
func ParseCompactDate(s string) (Date, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Location is a named place for which forecasts are ingested.
// The location set is fixed by configuration.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Record is one stored weather observation for a single location and day.
// JSON field names match the persisted column names.
type Record struct {
	Index int64   `json:"index"`
	Loc   string  `json:"loc"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Date  Date    `json:"date"`
	Temp  float64 `json:"temp"`
	Rain  float64 `json:"rain"`
	Wind  float64 `json:"wind"`
}

// Metric identifies one of the numeric columns a record carries.
type Metric string

const (
	MetricTemperature   Metric = "temp"
	MetricPrecipitation Metric = "rain"
	MetricWindSpeed     Metric = "wind"
)

// ParseMetric maps the public metric names onto the closed Metric set.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricTemperature, MetricPrecipitation, MetricWindSpeed:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q (want temp, rain or wind)", s)
}

// Window is the half-open forecast range [Start, End) with daily granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewForecastWindow returns the window covering today (00:00 UTC) and the
// following days-1 days.
func NewForecastWindow(days int) Window {
	start := DateOf(time.Now().UTC()).Time
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}
