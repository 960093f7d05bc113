// Package config loads runtime settings for the iv-solver harness and server.
//
// Sources, later ones overriding earlier ones:
//  1. built-in defaults
//  2. a YAML file (path from IVSOLVER_CONFIG, else ./config.yaml when present)
//  3. environment variables, optionally seeded from a .env file
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/contactkeval/iv-solver/internal/impliedvol"
)

const defaultConfigFile = "config.yaml"

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
}

// ServerConfig enables the HTTP surface when Addr is non-empty.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MarketConfig configures the quote scenario of the harness: one contract
// expiring at the next monthly expiration, priced by Massive when APIKey is
// set and by the model otherwise.
type MarketConfig struct {
	Underlying string  `yaml:"underlying"`
	Spot       float64 `yaml:"spot"`
	Strike     float64 `yaml:"strike"`
	Rate       float64 `yaml:"rate"`
	IsCall     bool    `yaml:"is_call"`

	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	ReferenceVol   float64 `yaml:"reference_vol"` // used by the model quote source
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ReportConfig controls the harness report. With Dir empty the report goes to stdout.
type ReportConfig struct {
	Format string `yaml:"format"` // csv or json
	Dir    string `yaml:"dir"`
}

type Config struct {
	Logging LoggingConfig     `yaml:"logging"`
	Method  string            `yaml:"method"` // default method for the HTTP surface
	Solver  impliedvol.Config `yaml:"solver"`
	Server  ServerConfig      `yaml:"server"`
	Market  MarketConfig      `yaml:"market"`
	Report  ReportConfig      `yaml:"report"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{LogLevel: "info"},
		Method:  string(impliedvol.MethodNewton),
		Solver:  impliedvol.DefaultConfig(),
		Server: ServerConfig{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Market: MarketConfig{
			Underlying:     "SPY",
			Spot:           580,
			Strike:         580,
			Rate:           0.043,
			IsCall:         true,
			BaseURL:        "https://api.massive.com",
			ReferenceVol:   0.3,
			TimeoutSeconds: 30,
		},
		Report: ReportConfig{Format: "csv"},
	}
}

// Load builds the configuration from defaults, the YAML file and the environment.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	path := os.Getenv("IVSOLVER_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.loadYAML(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML overlays the file at path onto cfg.
func (cfg *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() {
	cfg.Logging.LogLevel = getEnv("LOG_LEVEL", cfg.Logging.LogLevel)
	cfg.Method = getEnv("IVSOLVER_METHOD", cfg.Method)
	cfg.Server.Addr = getEnv("IVSOLVER_HTTP_ADDR", cfg.Server.Addr)
	cfg.Market.APIKey = getEnv("MASSIVE_API_KEY", cfg.Market.APIKey)
	cfg.Market.BaseURL = getEnv("MASSIVE_BASE_URL", cfg.Market.BaseURL)
	cfg.Market.ReferenceVol = getEnvFloat("IVSOLVER_REFERENCE_VOL", cfg.Market.ReferenceVol)
	cfg.Solver.Newton.MaxIter = getEnvInt("IVSOLVER_NEWTON_MAX_ITER", cfg.Solver.Newton.MaxIter)
	cfg.Solver.Bisection.MaxIter = getEnvInt("IVSOLVER_BISECTION_MAX_ITER", cfg.Solver.Bisection.MaxIter)
	cfg.Solver.Bisection.CheckBracket = getEnvBool("IVSOLVER_CHECK_BRACKET", cfg.Solver.Bisection.CheckBracket)
	cfg.Report.Format = getEnv("IVSOLVER_REPORT_FORMAT", cfg.Report.Format)
	cfg.Report.Dir = getEnv("IVSOLVER_REPORT_DIR", cfg.Report.Dir)
}

// Validate checks the solver settings and the default method name.
func (cfg *Config) Validate() error {
	if _, err := impliedvol.ParseMethod(cfg.Method); err != nil {
		return fmt.Errorf("config method: %w", err)
	}
	if !(cfg.Market.ReferenceVol > 0) {
		return fmt.Errorf("config market.reference_vol %g must be > 0", cfg.Market.ReferenceVol)
	}
	if f := strings.ToLower(cfg.Report.Format); f != "csv" && f != "json" {
		return fmt.Errorf("config report.format %q must be csv or json", cfg.Report.Format)
	}
	return cfg.Solver.Validate()
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
