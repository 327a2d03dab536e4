package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Config holds the connection settings for a PostgreSQL database.
type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// BuildDSN constructs a key=value connection string, filling in localhost,
// port 5432 and sslmode=disable when unset. Values are quoted when they are
// empty or hold spaces, quotes or backslashes; an unset database is omitted.
func BuildDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	pairs := []string{"host=" + quoteValue(host), fmt.Sprintf("port=%d", port)}
	if cfg.Database != "" {
		pairs = append(pairs, "dbname="+quoteValue(cfg.Database))
	}
	pairs = append(pairs, "sslmode="+quoteValue(sslmode))
	if cfg.User != "" {
		pairs = append(pairs, "user="+quoteValue(cfg.User))
	}
	if cfg.Password != "" {
		pairs = append(pairs, "password="+quoteValue(cfg.Password))
	}
	return strings.Join(pairs, " ")
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	return "'" + valueEscaper.Replace(v) + "'"
}

// Open connects to PostgreSQL through the pgx driver and verifies the
// connection.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Connecting to postgres", zap.String("host", cfg.Host), zap.String("database", cfg.Database))

	connConfig, err := pgx.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}
	db := stdlib.OpenDB(*connConfig)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
