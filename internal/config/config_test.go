package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "meteo.db", cfg.DBPath)
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, 7, cfg.ForecastDays)
	require.Zero(t, cfg.FetchInterval)

	require.Len(t, cfg.Locations, 3)
	require.Equal(t, "Athens", cfg.Locations[0].Name)
	require.Equal(t, 37.9839412, cfg.Locations[0].Lat)
	require.Equal(t, 23.7283052, cfg.Locations[0].Lon)
}

func TestLoadLocationsFromEnv(t *testing.T) {
	t.Setenv("LOCATIONS", "Athens:37.98:23.72, Larnaca:34.92:33.62")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Locations, 2)
	require.Equal(t, "Larnaca", cfg.Locations[1].Name)
	require.Equal(t, 34.92, cfg.Locations[1].Lat)
	require.Equal(t, 33.62, cfg.Locations[1].Lon)
}

func TestLoadLocationsRejectsMalformedEntry(t *testing.T) {
	t.Setenv("LOCATIONS", "Athens:37.98")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadLocationsRejectsBadCoordinates(t *testing.T) {
	t.Setenv("LOCATIONS", "Athens:north:east")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBareLocationNeedsGeocoderKey(t *testing.T) {
	t.Setenv("LOCATIONS", "Athens")
	t.Setenv("GEOCODER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadInvalidInterval(t *testing.T) {
	t.Setenv("FETCH_INTERVAL", "often")

	_, err := Load()
	require.Error(t, err)
}
