package backend

import (
	"context"
	"strconv"
	"strings"

	log15adapter "github.com/jackc/pgx-log15"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	log "gopkg.in/inconshreveable/log15.v2"
)

// NewPool connects to the database described by conf. Query logging goes to logger under module=pgx at the pgx_level
// from logConf.
func NewPool(ctx context.Context, conf DatabaseConfig, logConf LogConfig, logger log.Logger) (*pgxpool.Pool, error) {
	logger = logger.New("module", "pgx")
	if logConf.PgxLevel != "" {
		if err := setFilterHandler(logConf.PgxLevel, logger, log.StdoutHandler); err != nil {
			return nil, ConfigError{Key: "log.pgx_level", Reason: err.Error()}
		}
	}

	poolConfig, err := newPoolConfig(conf)
	if err != nil {
		return nil, err
	}

	connConfig := poolConfig.ConnConfig
	connConfig.Tracer = &tracelog.TraceLog{
		Logger:   log15adapter.NewLogger(logger),
		LogLevel: tracelog.LogLevelInfo,
	}

	poolConfig.MaxConns = 4

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

const defaultDatabasePort = 5432

// newPoolConfig parses a connection string built from conf. Host, port and database always come from conf, so the
// fallback connection attempts pgx derives only ever target the configured host. User and password fall back to the
// usual PG* environment variables and .pgpass when conf leaves them empty.
func newPoolConfig(conf DatabaseConfig) (*pgxpool.Config, error) {
	port := conf.Port
	if port == 0 {
		port = defaultDatabasePort
	}

	settings := []string{
		"host=" + quoteConnValue(conf.Host),
		"port=" + strconv.FormatUint(uint64(port), 10),
		"dbname=" + quoteConnValue(conf.Database),
	}
	if conf.User != "" {
		settings = append(settings, "user="+quoteConnValue(conf.User))
	}
	if conf.Password != "" {
		settings = append(settings, "password="+quoteConnValue(conf.Password))
	}

	return pgxpool.ParseConfig(strings.Join(settings, " "))
}

func quoteConnValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
