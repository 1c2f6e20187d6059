package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	exchanger "HeatX/internal/calc/exchanger"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

type Config struct {
	Addr            string
	TLSCert         string
	TLSKey          string
	StaticDir       string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	AuthEnabled bool
	DatabaseURL string
	TokenKey    string

	RateLimit float64
	RateBurst int

	EngineConf string
	Engine     EngineConfig
}

// EngineConfig holds calculation defaults read from the [engine] section.
type EngineConfig struct {
	SpecificHeat      float64
	Policy            exchanger.DutyPolicy
	Workers           int
	ParallelThreshold int
}

// Load reads .env (if present), then the environment, then the engine INI file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{
		Addr:            getEnv("HTTP_ADDR", ":8080"),
		TLSCert:         getEnv("TLS_CERT", ""),
		TLSKey:          getEnv("TLS_KEY", ""),
		StaticDir:       getEnv("STATIC_DIR", "./static/main"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		AuthEnabled:     getEnvBool("AUTH_ENABLED", false),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TokenKey:        getEnv("TOKEN_KEY", ""),
		RateLimit:       getEnvFloat("RATE_LIMIT", 5),
		RateBurst:       getEnvInt("RATE_BURST", 10),
		EngineConf:      getEnv("ENGINE_CONF", "conf/exchanger.ini"),
	}

	engine, err := LoadEngine(cfg.EngineConf)
	if err != nil {
		return nil, err
	}
	cfg.Engine = engine

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadEngine reads engine defaults from an INI file. A missing file yields
// the built-in defaults.
func LoadEngine(path string) (EngineConfig, error) {
	file := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		if file, err = ini.Load(path); err != nil {
			return EngineConfig{}, fmt.Errorf("config: read %q: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return EngineConfig{}, fmt.Errorf("config: stat %q: %w", path, err)
	}

	sec := file.Section("engine")
	engine := EngineConfig{
		SpecificHeat:      sec.Key("specific_heat").MustFloat64(exchanger.DefaultSpecificHeat),
		Policy:            exchanger.DutyPolicy(sec.Key("duty_policy").MustString(string(exchanger.PolicyMin))),
		Workers:           sec.Key("workers").MustInt(4),
		ParallelThreshold: sec.Key("parallel_threshold").MustInt(256),
	}
	if engine.SpecificHeat <= 0 {
		return EngineConfig{}, fmt.Errorf("config: engine.specific_heat must be positive, got %g", engine.SpecificHeat)
	}
	if !engine.Policy.Valid() {
		return EngineConfig{}, fmt.Errorf("config: engine.duty_policy %q unknown: want min|average", engine.Policy)
	}
	if engine.Workers < 1 {
		return EngineConfig{}, fmt.Errorf("config: engine.workers must be at least 1")
	}
	return engine, nil
}

func (e EngineConfig) NewEngine() *exchanger.Engine {
	return &exchanger.Engine{
		SpecificHeat:      e.SpecificHeat,
		Policy:            e.Policy,
		Workers:           e.Workers,
		ParallelThreshold: e.ParallelThreshold,
	}
}

func (c *Config) validate() error {
	if c.AuthEnabled {
		if c.TokenKey == "" {
			return fmt.Errorf("TOKEN_KEY is required when AUTH_ENABLED is set")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when AUTH_ENABLED is set")
		}
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be positive")
	}
	return nil
}

func (c *Config) TLS() bool { return c.TLSCert != "" }

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
