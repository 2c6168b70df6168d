package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"WeatherDeck/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Location struct {
		Name      string  `yaml:"name"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Timezone  string  `yaml:"timezone"`
	} `yaml:"location"`
	Upstream struct {
		BaseURL      string        `yaml:"base_url"`
		RatePerSec   float64       `yaml:"rate_per_sec"`
		Burst        int           `yaml:"burst"`
		Timeout      time.Duration `yaml:"timeout"`
		PastDays     int           `yaml:"past_days"`
		ForecastDays int           `yaml:"forecast_days"`
	} `yaml:"upstream"`
	Refresh struct {
		Interval string `yaml:"interval"`
	} `yaml:"refresh"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Units       string `yaml:"units"`
	MapImageURL string `yaml:"map_image_url"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WEATHERDECK_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("WEATHERDECK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WEATHERDECK_UNITS"); v != "" {
		cfg.Units = v
	}
	if v := os.Getenv("WEATHERDECK_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Latitude = lat
		}
	}
	if v := os.Getenv("WEATHERDECK_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Longitude = lon
		}
	}
	if v := os.Getenv("WEATHERDECK_REFRESH_INTERVAL"); v != "" {
		cfg.Refresh.Interval = v
	}

	// Defaults: Louisville, KY, matching the dashboard's original home.
	if cfg.Location.Name == "" {
		cfg.Location.Name = "Louisville, KY"
	}
	if cfg.Location.Latitude == 0 && cfg.Location.Longitude == 0 {
		cfg.Location.Latitude = 38.2542
		cfg.Location.Longitude = -85.7594
	}
	if cfg.Location.Timezone == "" {
		cfg.Location.Timezone = "America/New_York"
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "https://api.open-meteo.com"
	}
	if cfg.Upstream.RatePerSec == 0 {
		cfg.Upstream.RatePerSec = 1
	}
	if cfg.Upstream.Burst == 0 {
		cfg.Upstream.Burst = 3
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Upstream.PastDays == 0 {
		cfg.Upstream.PastDays = 31
	}
	if cfg.Upstream.ForecastDays == 0 {
		cfg.Upstream.ForecastDays = 7
	}
	if cfg.Refresh.Interval == "" {
		cfg.Refresh.Interval = "@every 15m"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Units == "" {
		cfg.Units = string(model.UnitImperial)
	}

	return cfg, nil
}

// Validate checks that all required fields are set and in range.
func (c *Config) Validate() error {
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude must be in [-90, 90]")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude must be in [-180, 180]")
	}
	if _, err := model.ParseUnitSystem(c.Units); err != nil {
		return fmt.Errorf("units: %w", err)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}
	return nil
}

// ForecastRequest builds the base upstream request described by the config.
func (c *Config) ForecastRequest() model.ForecastRequest {
	units, _ := model.ParseUnitSystem(c.Units)
	return model.ForecastRequest{
		Latitude:     c.Location.Latitude,
		Longitude:    c.Location.Longitude,
		Units:        units,
		DailyFields:  model.DefaultDailyFields(),
		HourlyFields: model.DefaultHourlyFields(),
		PastDays:     c.Upstream.PastDays,
		ForecastDays: c.Upstream.ForecastDays,
		Timezone:     c.Location.Timezone,
	}
}
