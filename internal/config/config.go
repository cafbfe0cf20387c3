package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Scorer modes.
const (
	ScorerRules      = "rules"
	ScorerModel      = "model"
	ScorerModelRules = "model_rules"
)

// Geocoder providers.
const (
	GeocoderNominatim = "nominatim"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	App      App      `yaml:"app" envconfig:"APP"`
	Weather  Weather  `yaml:"weather" envconfig:"WEATHER"`
	Geocoder Geocoder `yaml:"geocoder" envconfig:"GEOCODER"`
	Model    Model    `yaml:"model" envconfig:"MODEL"`
	Session  Session  `yaml:"session" envconfig:"SESSION"`
	Log      Log      `yaml:"log" envconfig:"LOG"`

	// ScorerMode selects how risk is scored: rules, model or model_rules.
	ScorerMode string `yaml:"scorer_mode" envconfig:"SCORER_MODE" validate:"oneof=rules model model_rules"`
}

type App struct {
	Name string `yaml:"name" envconfig:"NAME" validate:"required"`
	Env  string `yaml:"env" envconfig:"ENV" validate:"required"`
	Port string `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
}

type Weather struct {
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	APIKey  string        `yaml:"api_key" envconfig:"API_KEY" validate:"required"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

type Geocoder struct {
	Provider     string        `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=nominatim google"`
	BaseURL      string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	GoogleAPIKey string        `yaml:"google_api_key" envconfig:"GOOGLE_API_KEY" validate:"required_if=Provider google"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

type Model struct {
	Endpoint string        `yaml:"endpoint" envconfig:"ENDPOINT" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`

	// ConfidenceScale is the unit the endpoint reports confidence in.
	ConfidenceScale string `yaml:"confidence_scale" envconfig:"CONFIDENCE_SCALE" validate:"oneof=percent fraction"`

	// Elevation and SoilMoisture stand in for inputs the weather provider
	// does not report.
	Elevation    float64 `yaml:"elevation" envconfig:"ELEVATION"`
	SoilMoisture float64 `yaml:"soil_moisture" envconfig:"SOIL_MOISTURE" validate:"gte=0,lte=1"`
}

type Session struct {
	MaxIdle       time.Duration `yaml:"max_idle" envconfig:"MAX_IDLE" validate:"gt=0"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL" validate:"gte=1m"`
}

type Log struct {
	Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Defaults returns the configuration used when neither a YAML file nor the
// environment set a value.
func Defaults() *AppConfig {
	return &AppConfig{
		App: App{
			Name: "flood-risk",
			Env:  "development",
			Port: "8080",
		},
		Weather: Weather{
			BaseURL: "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
			Timeout: 10 * time.Second,
		},
		Geocoder: Geocoder{
			Provider:  GeocoderNominatim,
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "flood-risk/1.0",
			Timeout:   5 * time.Second,
		},
		Model: Model{
			Timeout:         5 * time.Second,
			ConfidenceScale: "percent",
			Elevation:       10,
			SoilMoisture:    0.2,
		},
		Session: Session{
			MaxIdle:       30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Log: Log{
			Level: "info",
		},
		ScorerMode: ScorerRules,
	}
}

// Load reads configuration with the precedence env > YAML file > defaults.
// A .env file is loaded into the environment first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load without the .env step. An empty path skips the YAML layer.
func LoadFrom(path string) (*AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	// Struct fields carry no envconfig defaults, so unset variables leave
	// the YAML/default values in place.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and cross-field rules.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.UsesModel() && c.Model.Endpoint == "" {
		return errors.New("invalid config: MODEL_ENDPOINT is required when SCORER_MODE is model or model_rules")
	}
	return nil
}

// UsesModel reports whether scoring goes through the inference endpoint.
func (c *AppConfig) UsesModel() bool {
	return c.ScorerMode == ScorerModel || c.ScorerMode == ScorerModelRules
}

func (c *AppConfig) IsProduction() bool {
	return c.App.Env == "production"
}
