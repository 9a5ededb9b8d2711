// Package config loads the dashboard configuration from built-in defaults, an
// optional YAML file and DASHBOARD_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Source kinds understood by the loader.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

const (
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"

	// EnvPrefix is stripped from environment variables; "__" separates sections,
	// e.g. DASHBOARD_SOURCE__CACHE_TTL -> source.cache_ttl.
	EnvPrefix = "DASHBOARD_"

	// Public open-data endpoints of the Secretaría de Energía.
	DefaultProductionURL = "http://datos.energia.gob.ar/dataset/c846e79c-026c-4040-897f-1ad3543b407c/resource/b5b58cdc-9e07-41f9-b392-fb9ec68b0725/download/produccin-de-pozos-de-gas-y-petrleo-no-convencional.csv"
	DefaultFractureURL   = "http://datos.energia.gob.ar/dataset/71fa2e84-0316-4a1b-af68-7f35e41f58d7/resource/2280ad92-6ed3-403e-a095-50139863ab0d/download/datos-de-fractura-de-pozos-de-hidrocarburos-adjunto-iv-actualizacin-diaria.csv"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shale-dashboard/config.yaml",
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Source   SourceConfig   `koanf:"source"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst     int           `koanf:"rate_limit_burst" validate:"gte=0"`
}

// SourceConfig selects where the two raw tables come from.
type SourceConfig struct {
	Kind               string        `koanf:"kind" validate:"oneof=http file postgres"`
	ProductionURL      string        `koanf:"production_url"`
	FractureURL        string        `koanf:"fracture_url"`
	HTTPTimeout        time.Duration `koanf:"http_timeout" validate:"gt=0"`
	// CacheTTL is the lifetime of the session and of the fetched tables; zero keeps both until a refresh.
	CacheTTL           time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"min=1"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout" validate:"gt=0"`
}

// DatabaseConfig points at the read-only Postgres mirror of the open-data tables.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	ProductionTable string        `koanf:"production_table" validate:"required"`
	FractureTable   string        `koanf:"fracture_table" validate:"required"`
}

// OperatorAlias maps one raw operator spelling to its canonical name.
type OperatorAlias struct {
	Raw       string `koanf:"raw" validate:"required"`
	Canonical string `koanf:"canonical" validate:"required"`
}

// PipelineConfig holds the analytical policy knobs.
type PipelineConfig struct {
	TargetFormation        string          `koanf:"target_formation" validate:"required"`
	TargetSubType          string          `koanf:"target_sub_type" validate:"required"`
	ConsolidationLagMonths int             `koanf:"consolidation_lag_months" validate:"min=0,max=24"`
	TopPerYear             int             `koanf:"top_per_year" validate:"min=1"`
	TopOperators           int             `koanf:"top_operators" validate:"min=1"`
	Workers                int             `koanf:"workers" validate:"min=0"`
	OperatorAliases        []OperatorAlias `koanf:"operator_aliases" validate:"dive"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       2 * time.Minute, // first request of a session may wait on the remote fetch
			IdleTimeout:        60 * time.Second,
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
		},
		Source: SourceConfig{
			Kind:               SourceHTTP,
			ProductionURL:      DefaultProductionURL,
			FractureURL:        DefaultFractureURL,
			HTTPTimeout:        90 * time.Second,
			CacheTTL:           time.Hour,
			BreakerMaxFailures: 3,
			BreakerOpenTimeout: 2 * time.Minute,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "energia",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ProductionTable: "produccion_no_convencional",
			FractureTable:   "datos_fractura",
		},
		Pipeline: PipelineConfig{
			TargetFormation:        "VMUT",
			TargetSubType:          "SHALE",
			ConsolidationLagMonths: 1,
			TopPerYear:             3,
			TopOperators:           10,
			Workers:                0,
			OperatorAliases:        []OperatorAlias{},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from defaults, the file named by CONFIG_PATH
// (or the first of DefaultConfigPaths that exists) and the environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit config file. An empty path falls
// back to the CONFIG_PATH / default path search.
func LoadConfigFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps DASHBOARD_SOURCE__CACHE_TTL to source.cache_ttl.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules of the selected source.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Source.Kind {
	case SourceHTTP, SourceFile:
		if c.Source.ProductionURL == "" || c.Source.FractureURL == "" {
			return errors.New("invalid configuration: source.production_url and source.fracture_url are required")
		}
	case SourcePostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("invalid configuration: database.host and database.database are required for the postgres source")
		}
	}

	return nil
}
