package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "vc-key")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "vc-key", cfg.Weather.APIKey)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, ScorerRules, cfg.ScorerMode)
	assert.Equal(t, GeocoderNominatim, cfg.Geocoder.Provider)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "percent", cfg.Model.ConfidenceScale)
	assert.Equal(t, 10.0, cfg.Model.Elevation)
	assert.Equal(t, 0.2, cfg.Model.SoilMoisture)
	assert.Equal(t, 30*time.Minute, cfg.Session.MaxIdle)
	assert.False(t, cfg.UsesModel())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromYAMLThenEnv(t *testing.T) {
	path := writeYAML(t, `
app:
  env: production
  port: "9000"
weather:
  api_key: from-yaml
  timeout: 3s
model:
  endpoint: http://model.internal/predict
  elevation: 55
scorer_mode: model_rules
log:
  level: debug
`)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("MODEL_SOIL_MOISTURE", "0.6")
	t.Setenv("MODEL_CONFIDENCE_SCALE", "fraction")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "production", cfg.App.Env)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "from-yaml", cfg.Weather.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, "http://model.internal/predict", cfg.Model.Endpoint)
	assert.Equal(t, 55.0, cfg.Model.Elevation)
	assert.Equal(t, 0.6, cfg.Model.SoilMoisture)
	assert.Equal(t, "fraction", cfg.Model.ConfidenceScale)
	assert.Equal(t, ScorerModelRules, cfg.ScorerMode)
	assert.True(t, cfg.UsesModel())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing weather key", map[string]string{}},
		{"model mode without endpoint", map[string]string{"WEATHER_API_KEY": "k", "SCORER_MODE": "model"}},
		{"unknown scorer mode", map[string]string{"WEATHER_API_KEY": "k", "SCORER_MODE": "oracle"}},
		{"google without key", map[string]string{"WEATHER_API_KEY": "k", "GEOCODER_PROVIDER": "google"}},
		{"bad soil moisture", map[string]string{"WEATHER_API_KEY": "k", "MODEL_SOIL_MOISTURE": "1.5"}},
		{"sweep too frequent", map[string]string{"WEATHER_API_KEY": "k", "SESSION_SWEEP_INTERVAL": "10s"}},
		{"unknown confidence scale", map[string]string{"WEATHER_API_KEY": "k", "MODEL_CONFIDENCE_SCALE": "ratio"}},
		{"bad log level", map[string]string{"WEATHER_API_KEY": "k", "LOG_LEVEL": "verbose"}},
		{"bad duration", map[string]string{"WEATHER_API_KEY": "k", "WEATHER_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WEATHER_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFrom("")
			assert.Error(t, err)
		})
	}
}

func TestLoadFromGoogleGeocoder(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "k")
	t.Setenv("GEOCODER_PROVIDER", "google")
	t.Setenv("GEOCODER_GOOGLE_API_KEY", "g-key")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, GeocoderGoogle, cfg.Geocoder.Provider)
	assert.Equal(t, "g-key", cfg.Geocoder.GoogleAPIKey)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
