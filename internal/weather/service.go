package weather

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidArgument marks request parameters the caller got wrong.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a query window contains no data.
	ErrNotFound = errors.New("no weather data found")
)

var validate = validator.New()

// topNCeiling caps the number of records GetTop may return.
const topNCeiling = 3

// averageWindowDays is the length of the rolling temperature-average window.
const averageWindowDays = 3

// Service exposes the read operations over the record store, adding request
// validation and shaping on top of it.
type Service struct {
	store Store
}

// NewService creates a new query Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetAll returns every stored record.
func (s *Service) GetAll(ctx context.Context) ([]Record, error) {
	return s.store.All(ctx)
}

// GetByLocation returns all records for loc. An empty result is a valid,
// non-error response.
func (s *Service) GetByLocation(ctx context.Context, loc string) ([]Record, error) {
	return s.store.ByLocation(ctx, loc)
}

// dayParams is the validated shape of a location+day request.
// Day must be eight digits, YYYYMMDD.
type dayParams struct {
	Loc string `validate:"required"`
	Day string `validate:"required,len=8,numeric"`
}

// GetByLocationAndDay returns records for loc on the given day. The day
// string is parsed strictly as YYYYMMDD.
func (s *Service) GetByLocationAndDay(ctx context.Context, loc, day string) ([]Record, error) {
	d, err := parseDay(loc, day)
	if err != nil {
		return nil, err
	}
	return s.store.ByLocationAndDate(ctx, loc, d)
}

// GetLocationDayAverage computes the mean temperature for loc over the
// window (day-3, day], i.e. up to four calendar days ending at day, rounded
// to two decimal places. Returns ErrNotFound when the window holds no rows.
func (s *Service) GetLocationDayAverage(ctx context.Context, loc, day string) (float64, error) {
	d, err := parseDay(loc, day)
	if err != nil {
		return 0, err
	}

	records, err := s.store.ByLocationInRange(ctx, loc, d.AddDays(-averageWindowDays), d)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: no records for %s in the %d days ending %s", ErrNotFound, loc, averageWindowDays, d)
	}

	var sum float64
	for _, r := range records {
		sum += r.Temp
	}
	mean := sum / float64(len(records))
	return math.Round(mean*100) / 100, nil
}

// topParams is the validated shape of a top-N request.
type topParams struct {
	Metric string `validate:"required,oneof=temp rain wind"`
	N      int    `validate:"gte=0,lte=3"`
}

// GetTop returns the n records with the largest value of the given metric,
// ordered descending. n is capped at 3.
func (s *Service) GetTop(ctx context.Context, metric string, n int) ([]Record, error) {
	if err := validate.Struct(topParams{Metric: metric, N: n}); err != nil {
		return nil, fmt.Errorf("%w: metric must be one of temp/rain/wind and n must be between 0 and %d: %v",
			ErrInvalidArgument, topNCeiling, err)
	}

	m, err := ParseMetric(metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return s.store.TopByMetric(ctx, m, n)
}

func parseDay(loc, day string) (Date, error) {
	if err := validate.Struct(dayParams{Loc: loc, Day: day}); err != nil {
		return Date{}, fmt.Errorf("%w: day must be formatted YYYYMMDD, got %q", ErrInvalidArgument, day)
	}
	t, err := ParseCompactDate(day)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return t, nil
}
