package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

// AppConfig holds all runtime settings for the service.
type AppConfig struct {
	// Meteomatics basic-auth credentials.
	MeteoUsername string
	MeteoPassword string

	// DBPath is the sqlite database file, relative to the deployment
	// directory by default.
	DBPath string

	// SnapshotPath receives a JSON dump of each ingested dataset for
	// diagnostic replay. Empty disables the backup.
	SnapshotPath string

	// CSVExportPath, when set, receives a CSV export of the full table
	// after a successful ingestion.
	CSVExportPath string

	// HTTPTimeout bounds each outbound API call.
	HTTPTimeout time.Duration

	// FetchInterval controls background re-ingestion. Zero (the default)
	// means ingestion runs once at startup only.
	FetchInterval time.Duration

	// ForecastDays is the length of the daily forecast window.
	ForecastDays int

	// Locations to ingest.
	Locations []weather.Location

	Port string
}

// defaultLocations is the built-in location set, used when LOCATIONS is not
// configured.
var defaultLocations = []weather.Location{
	{Name: "Athens", Lat: 37.9839412, Lon: 23.7283052},
	{Name: "Rethimno", Lat: 35.3676472, Lon: 24.4736079},
	{Name: "Larnaca", Lat: 34.9236095, Lon: 33.6236184},
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		MeteoUsername: os.Getenv("METEO_API_USR"),
		MeteoPassword: os.Getenv("METEO_API_PSW"),
		DBPath:        getenvDefault("DB_PATH", "meteo.db"),
		SnapshotPath:  getenvDefault("SNAPSHOT_PATH", "meteo_snapshot.json"),
		CSVExportPath: os.Getenv("CSV_EXPORT_PATH"),
		Port:          getenvDefault("PORT", "8000"),
		ForecastDays:  getenvInt("FORECAST_DAYS", 7),
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	intervalStr := getenvDefault("FETCH_INTERVAL", "0")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	if cfg.ForecastDays <= 0 {
		return nil, fmt.Errorf("FORECAST_DAYS must be positive, got %d", cfg.ForecastDays)
	}

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations parses the LOCATIONS variable: comma-separated entries of
// either "Name:lat:lon" or a bare "Name". Bare names are geocoded, which
// requires GEOCODER_API_KEY. Without LOCATIONS the built-in set is used.
func loadLocations() ([]weather.Location, error) {
	raw := os.Getenv("LOCATIONS")
	if raw == "" {
		return defaultLocations, nil
	}

	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		switch len(parts) {
		case 1:
			loc, err := geocodeLocation(parts[0])
			if err != nil {
				return nil, err
			}
			locs = append(locs, loc)
		case 3:
			lat, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
			}
			lon, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
			}
			locs = append(locs, weather.Location{Name: parts[0], Lat: lat, Lon: lon})
		default:
			return nil, fmt.Errorf("invalid location entry %q (want Name or Name:lat:lon)", entry)
		}
	}

	if len(locs) == 0 {
		return nil, fmt.Errorf("LOCATIONS is set but contains no entries")
	}
	return locs, nil
}

func geocodeLocation(name string) (weather.Location, error) {
	key := os.Getenv("GEOCODER_API_KEY")
	if key == "" {
		return weather.Location{}, fmt.Errorf("location %q has no coordinates and GEOCODER_API_KEY is not set", name)
	}
	geocoder.ApiKey = key

	coords, err := geocoder.Geocoding(geocoder.Address{City: name})
	if err != nil {
		return weather.Location{}, fmt.Errorf("geocoding %q: %w", name, err)
	}
	return weather.Location{Name: name, Lat: coords.Latitude, Lon: coords.Longitude}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
