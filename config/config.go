// Package config loads the settings of the matchsql demo and builds the
// logger, connection and mutator options they describe.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/asaidimu/go-matchsql/core/persistence"
	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/postgres"
	"github.com/asaidimu/go-matchsql/sqlite"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys are
// separated by a double underscore, e.g. MATCHSQL_POSTGRES__HOST.
const EnvPrefix = "MATCHSQL_"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Driver      string          `koanf:"driver"`
	Postgres    postgres.Config `koanf:"postgres"`
	SQLite      SQLiteConfig    `koanf:"sqlite"`
	Log         LogConfig       `koanf:"log"`
	TablePrefix string          `koanf:"table_prefix"`
	SchemaName  string          `koanf:"schema_name"`
	EmitEvents  bool            `koanf:"emit_events"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

func defaults() map[string]any {
	return map[string]any{
		"driver":           DriverSQLite,
		"sqlite.path":      sqlite.MemoryPath,
		"postgres.host":    "localhost",
		"postgres.port":    5432,
		"postgres.sslmode": "disable",
		"log.level":        "info",
		"log.development":  false,
		"emit_events":      true,
	}
}

// Load reads configuration with precedence env vars > file > defaults. path
// may be empty, in which case no file is read.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// MATCHSQL_POSTGRES__HOST -> postgres.host, MATCHSQL_TABLE_PREFIX -> table_prefix
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the driver and log level.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported driver %q, expected %q or %q", c.Driver, DriverSQLite, DriverPostgres)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// NewLogger builds the zap logger described by cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// MutatorOptions returns the persistence options described by c.
func (c *Config) MutatorOptions() *persistence.Options {
	return &persistence.Options{
		TablePrefix: c.TablePrefix,
		SchemaName:  c.SchemaName,
		EmitEvents:  c.EmitEvents,
	}
}

// Open connects to the configured database and returns its dialect.
func (c *Config) Open(ctx context.Context, logger *zap.Logger) (*sql.DB, query.Dialect, error) {
	switch c.Driver {
	case DriverPostgres:
		db, err := postgres.Open(ctx, c.Postgres, logger)
		return db, postgres.NewDialect(), err
	default:
		db, err := sqlite.Open(ctx, c.SQLite.Path, logger)
		return db, sqlite.NewDialect(), err
	}
}
