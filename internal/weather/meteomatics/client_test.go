package meteomatics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

const timeSeriesPayload = `{
  "version": "3.0",
  "status": "OK",
  "data": [
    {
      "parameter": "t_2m:C",
      "coordinates": [{"lat": 37.9839412, "lon": 23.7283052, "dates": [
        {"date": "2023-02-05T00:00:00Z", "value": 18.2},
        {"date": "2023-02-06T00:00:00Z", "value": 16.4}
      ]}]
    },
    {
      "parameter": "precip_24h:mm",
      "coordinates": [{"lat": 37.9839412, "lon": 23.7283052, "dates": [
        {"date": "2023-02-05T00:00:00Z", "value": 0.0},
        {"date": "2023-02-06T00:00:00Z", "value": 1.2}
      ]}]
    },
    {
      "parameter": "wind_speed_10m:ms",
      "coordinates": [{"lat": 37.9839412, "lon": 23.7283052, "dates": [
        {"date": "2023-02-05T00:00:00Z", "value": 3.1},
        {"date": "2023-02-06T00:00:00Z", "value": 4.0}
      ]}]
    }
  ]
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.Client(), "user", "secret")
	c.baseURL = srv.URL
	// Keep failure tests fast.
	c.backoff.maxRetries = 0
	c.backoff.initialInterval = time.Millisecond
	return c
}

func testWindow(t *testing.T) weather.Window {
	t.Helper()
	start, err := time.Parse(time.RFC3339, "2023-02-05T00:00:00Z")
	require.NoError(t, err)
	return weather.Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func TestFetchDaily(t *testing.T) {
	var gotPath string
	var gotAuth bool
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "user" && pass == "secret"
		w.Write([]byte(timeSeriesPayload))
	}))

	loc := weather.Location{Name: "Athens", Lat: 37.9839412, Lon: 23.7283052}
	points, err := c.FetchDaily(context.Background(), loc, testWindow(t))
	require.NoError(t, err)

	require.True(t, gotAuth, "request must carry basic auth")
	require.Contains(t, gotPath, "2023-02-05T00:00:00Z--2023-02-12T00:00:00Z:P1D")
	require.Contains(t, gotPath, "t_2m:C,precip_24h:mm,wind_speed_10m:ms")

	require.Len(t, points, 2)
	require.Equal(t, "2023-02-05", points[0].Date.String())
	require.Equal(t, 18.2, points[0].Temp)
	require.Equal(t, 0.0, points[0].Rain)
	require.Equal(t, 3.1, points[0].Wind)
	require.Equal(t, "2023-02-06", points[1].Date.String())
	require.Equal(t, 1.2, points[1].Rain)
	require.Equal(t, 4.0, points[1].Wind)
}

func TestFetchDailyServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	loc := weather.Location{Name: "Athens", Lat: 37.98, Lon: 23.72}
	_, err := c.FetchDaily(context.Background(), loc, testWindow(t))
	require.Error(t, err)
}

func TestFetchDailyRequiresCredentials(t *testing.T) {
	c := NewClient(http.DefaultClient, "", "")

	loc := weather.Location{Name: "Athens", Lat: 37.98, Lon: 23.72}
	_, err := c.FetchDaily(context.Background(), loc, testWindow(t))
	require.Error(t, err)
}

func TestUserStats(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user_stats_json", r.URL.Path)
		w.Write([]byte(`{
		  "message": "user statistics",
		  "user statistics": {
		    "requests since last UTC midnight": {"used": 412, "soft limit": 500},
		    "requests in the last 60 seconds": {"used": 3, "soft limit": 20},
		    "requests in parallel": {"used": 1, "hard limit": 5}
		  }
		}`))
	}))

	stats, err := c.UserStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, weather.QuotaUsage{Used: 412, Limit: 500}, stats.SinceMidnight)
	require.Equal(t, weather.QuotaUsage{Used: 3, Limit: 20}, stats.Last60Seconds)
	require.Equal(t, weather.QuotaUsage{Used: 1, Limit: 5}, stats.Parallel)
}
