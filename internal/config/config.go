// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (prefix FLOWSKETCH_, plus DATABASE_URL)
//  2. Config file (~/.flowsketch/config.yaml)
//  3. Defaults
//
// Sensitive values (the postgres password) are never logged. Validation
// uses sentinel errors so callers can match with errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = "127.0.0.1:3000"

	// DefaultModel is the model used when the client does not name one.
	DefaultModel = "theonemarket"
)

// Config stores application configuration.
type Config struct {
	// HTTP server
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Logging
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json"`

	// PostgreSQL connection
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// AI endpoints
	AI AI `mapstructure:"ai"`
}

// AI holds the generative-model endpoint configuration. Two upstreams
// are supported: the primary endpoint serves the default model with the
// wire shape in APIShape, the alternate endpoint serves every other
// model name.
type AI struct {
	// Enabled switches real upstream calls on. When false the gateway
	// serves a fixed example diagram; useful offline and in tests.
	Enabled bool `mapstructure:"enabled"`

	DefaultModel string `mapstructure:"default_model"`

	// APIURL is the primary model endpoint; APIShape is its request
	// shape: "prompt" (single rendered string) or "chat" (role/content
	// message list).
	APIURL   string `mapstructure:"api_url"`
	APIShape string `mapstructure:"api_shape"`

	// AltAPIURL serves any model other than DefaultModel.
	AltAPIURL   string `mapstructure:"alt_api_url"`
	AltAPIShape string `mapstructure:"alt_api_shape"`

	// TranscriptionURL is the speech-to-text endpoint.
	TranscriptionURL string `mapstructure:"transcription_url"`

	// Upstream calls are slow (minutes for big diagrams) but must stay
	// bounded so a stalled model cannot hold the request path forever.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Wire shape identifiers used in AI.APIShape / AI.AltAPIShape.
const (
	ShapePrompt = "prompt"
	ShapeChat   = "chat"
)

// Endpoint resolves a model name to its upstream URL and wire shape.
// The default model (and an empty name) routes to the primary endpoint;
// anything else routes to the alternate one.
func (a AI) Endpoint(model string) (url, shape string) {
	if model == "" || model == a.DefaultModel {
		return a.APIURL, a.APIShape
	}
	return a.AltAPIURL, a.AltAPIShape
}

// Load reads configuration from defaults, the optional config file and
// the environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FLOWSKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := configDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "flowsketch")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "flowsketch")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.default_model", DefaultModel)
	v.SetDefault("ai.api_url", "")
	v.SetDefault("ai.api_shape", ShapePrompt)
	v.SetDefault("ai.alt_api_url", "")
	v.SetDefault("ai.alt_api_shape", ShapeChat)
	v.SetDefault("ai.transcription_url", "")
	v.SetDefault("ai.connect_timeout", 5*time.Minute)
	v.SetDefault("ai.request_timeout", 15*time.Minute)
}

// configDir returns ~/.flowsketch, creating it if needed.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".flowsketch")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}
