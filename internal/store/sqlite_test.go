package store_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/meteo-forecast-service/internal/store"
	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

func mustDate(t *testing.T, s string) weather.Date {
	t.Helper()
	d, err := weather.ParseDate(s)
	require.NoError(t, err)
	return d
}

func record(t *testing.T, index int64, loc, day string, temp, rain, wind float64) weather.Record {
	t.Helper()
	return weather.Record{
		Index: index,
		Loc:   loc,
		Lat:   37.9839412,
		Lon:   23.7283052,
		Date:  mustDate(t, day),
		Temp:  temp,
		Rain:  rain,
		Wind:  wind,
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReplaceAllRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 18.2, 0.0, 3.1),
		record(t, 1, "Athens", "2023-02-06", 16.4, 1.2, 4.0),
	}
	require.NoError(t, s.ReplaceAll(ctx, first))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Equal(t, first, got)

	// A second replace discards the prior dataset entirely.
	second := []weather.Record{
		record(t, 0, "Rethimno", "2023-02-07", 14.0, 2.5, 6.2),
	}
	require.NoError(t, s.ReplaceAll(ctx, second))

	got, err = s.All(ctx)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestReplaceAllEmpty(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 18.2, 0.0, 3.1),
	}))
	require.NoError(t, s.ReplaceAll(ctx, nil))

	got, err := s.All(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestByLocation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 18.2, 0.0, 3.1),
		record(t, 1, "Rethimno", "2023-02-05", 14.0, 2.5, 6.2),
		record(t, 2, "Athens", "2023-02-06", 16.4, 1.2, 4.0),
	}))

	got, err := s.ByLocation(ctx, "Athens")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		require.Equal(t, "Athens", r.Loc)
	}

	// An unknown location yields an empty result, not an error.
	got, err = s.ByLocation(ctx, "Larnaca")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestByLocationAndDate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 18.2, 0.0, 3.1),
		record(t, 1, "Athens", "2023-02-06", 16.4, 1.2, 4.0),
	}))

	got, err := s.ByLocationAndDate(ctx, "Athens", mustDate(t, "2023-02-05"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 18.2, got[0].Temp)
}

func TestByLocationInRange(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 30, 0, 0),
		record(t, 1, "Athens", "2023-02-02", 10, 0, 0),
		record(t, 2, "Athens", "2023-02-03", 20, 0, 0),
		record(t, 3, "Athens", "2023-02-04", 25, 0, 0),
		record(t, 4, "Rethimno", "2023-02-04", 99, 0, 0),
	}))

	// after is exclusive, until inclusive, dates ascending.
	got, err := s.ByLocationInRange(ctx, "Athens", mustDate(t, "2023-02-02"), mustDate(t, "2023-02-05"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "2023-02-03", got[0].Date.String())
	require.Equal(t, "2023-02-04", got[1].Date.String())
	require.Equal(t, "2023-02-05", got[2].Date.String())
}

func TestTopByMetric(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 5, 8.0, 2.0),
		record(t, 1, "Rethimno", "2023-02-05", 30, 0.5, 9.0),
		record(t, 2, "Larnaca", "2023-02-05", 12, 3.0, 4.0),
	}))

	got, err := s.TopByMetric(ctx, weather.MetricTemperature, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 30.0, got[0].Temp)
	require.Equal(t, 12.0, got[1].Temp)

	got, err = s.TopByMetric(ctx, weather.MetricPrecipitation, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 8.0, got[0].Rain)

	got, err = s.TopByMetric(ctx, weather.MetricWindSpeed, 3)
	require.NoError(t, err)
	require.Equal(t, 9.0, got[0].Wind)

	_, err = s.TopByMetric(ctx, weather.Metric("humidity"), 1)
	require.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []weather.Record{
		record(t, 0, "Athens", "2023-02-05", 18.2, 0.0, 3.1),
		record(t, 1, "Athens", "2023-02-06", 16.4, 1.2, 4.0),
	}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "index,loc,lat,lon,date,temp,rain,wind", lines[0])
	require.Contains(t, lines[1], "Athens")
	require.Contains(t, lines[1], "2023-02-05")
}
