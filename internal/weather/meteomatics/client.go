package meteomatics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

const (
	// timeFormat is the timestamp form Meteomatics expects in route URLs.
	timeFormat = "2006-01-02T15:04:05Z"

	// parameters requested for every location: temperature at 2m in C,
	// 24h precipitation in mm, wind speed at 10m in m/s.
	parameterTemp = "t_2m:C"
	parameterRain = "precip_24h:mm"
	parameterWind = "wind_speed_10m:ms"
)

// Client implements the weather.ForecastSource and weather.QuotaReporter
// interfaces against the Meteomatics API.
type Client struct {
	name       string
	username   string
	password   string
	baseURL    string
	model      string
	httpClient *http.Client
	backoff    backoffConfig
	circuit    *gobreaker.CircuitBreaker
}

// NewClient creates a Meteomatics client authenticating with the given
// basic-auth credentials.
func NewClient(client *http.Client, username, password string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "meteomatics",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:       "meteomatics",
		username:   username,
		password:   password,
		baseURL:    "https://api.meteomatics.com",
		model:      "mix",
		httpClient: client,
		backoff: backoffConfig{
			maxRetries:      3,
			initialInterval: 500 * time.Millisecond,
			maxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

func (c *Client) Name() string {
	return c.name
}

// timeSeriesResponse mirrors the Meteomatics JSON route response: one entry
// per requested parameter, each carrying dated values per coordinate.
type timeSeriesResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Parameter   string `json:"parameter"`
		Coordinates []struct {
			Lat   float64 `json:"lat"`
			Lon   float64 `json:"lon"`
			Dates []struct {
				Date  time.Time `json:"date"`
				Value float64   `json:"value"`
			} `json:"dates"`
		} `json:"coordinates"`
	} `json:"data"`
}

// FetchDaily queries the time-series route for one location over the given
// window at daily interval and reshapes the response into one TimePoint per day.
func (c *Client) FetchDaily(ctx context.Context, loc weather.Location, w weather.Window) ([]weather.TimePoint, error) {
	if c.username == "" || c.password == "" {
		return nil, fmt.Errorf("meteomatics credentials are not configured")
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s--%s:P1D/%s,%s,%s/%f,%f/json?model=%s",
			c.baseURL,
			w.Start.UTC().Format(timeFormat),
			w.End.UTC().Format(timeFormat),
			parameterTemp, parameterRain, parameterWind,
			loc.Lat, loc.Lon,
			c.model,
		)
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.username, c.password)
		return req, nil
	}

	resp, err := c.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload timeSeriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode time series: %w", err)
	}
	if payload.Status != "" && payload.Status != "OK" {
		return nil, fmt.Errorf("meteomatics status %q", payload.Status)
	}

	points := make(map[string]*weather.TimePoint)
	for _, series := range payload.Data {
		for _, coord := range series.Coordinates {
			for _, dv := range coord.Dates {
				day := weather.DateOf(dv.Date)
				key := day.String()
				p, ok := points[key]
				if !ok {
					p = &weather.TimePoint{Date: day}
					points[key] = p
				}
				switch series.Parameter {
				case parameterTemp:
					p.Temp = dv.Value
				case parameterRain:
					p.Rain = dv.Value
				case parameterWind:
					p.Wind = dv.Value
				}
			}
		}
	}

	result := make([]weather.TimePoint, 0, len(points))
	for _, p := range points {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date.Time)
	})
	return result, nil
}

// statPair is one used/ceiling entry from the user stats response. Daily and
// 60-second budgets carry a soft limit, the parallel budget a hard limit.
type statPair struct {
	Used      int `json:"used"`
	SoftLimit int `json:"soft limit"`
	HardLimit int `json:"hard limit"`
}

func (p statPair) limit() int {
	if p.SoftLimit > 0 {
		return p.SoftLimit
	}
	return p.HardLimit
}

// UserStats queries the account's request-budget counters.
func (c *Client) UserStats(ctx context.Context) (weather.QuotaStats, error) {
	if c.username == "" || c.password == "" {
		return weather.QuotaStats{}, fmt.Errorf("meteomatics credentials are not configured")
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"/user_stats_json", nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.username, c.password)
		return req, nil
	}

	resp, err := c.do(ctx, buildRequest)
	if err != nil {
		return weather.QuotaStats{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Stats struct {
			SinceMidnight statPair `json:"requests since last UTC midnight"`
			Last60Seconds statPair `json:"requests in the last 60 seconds"`
			Parallel      statPair `json:"requests in parallel"`
		} `json:"user statistics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.QuotaStats{}, fmt.Errorf("decode user stats: %w", err)
	}

	return weather.QuotaStats{
		SinceMidnight: weather.QuotaUsage{Used: payload.Stats.SinceMidnight.Used, Limit: payload.Stats.SinceMidnight.limit()},
		Last60Seconds: weather.QuotaUsage{Used: payload.Stats.Last60Seconds.Used, Limit: payload.Stats.Last60Seconds.limit()},
		Parallel:      weather.QuotaUsage{Used: payload.Stats.Parallel.Used, Limit: payload.Stats.Parallel.limit()},
	}, nil
}
