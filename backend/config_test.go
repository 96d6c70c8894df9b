package backend

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan0/go-ini"
)

func parseConfigString(t *testing.T, s string) (*Config, error) {
	file, err := ini.Load(strings.NewReader(s))
	require.NoError(t, err)
	return ParseConfig(file)
}

const minimalConfig = `
[nasa]
api_key = secret

[database]
host = localhost
database = apod
`

func TestParseConfigDefaults(t *testing.T) {
	config, err := parseConfigString(t, minimalConfig)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPODURL, config.NASA.URL)
	assert.Equal(t, "secret", config.NASA.APIKey)
	assert.Equal(t, 60*time.Second, config.NASA.Timeout)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, uint16(0), config.Database.Port)
	assert.Equal(t, "apod", config.Database.Database)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, time.Duration(0), config.RunAt)
	assert.Nil(t, config.Server)
	assert.Nil(t, config.NATS)
}

func TestParseConfigFull(t *testing.T) {
	config, err := parseConfigString(t, `
[nasa]
url = http://localhost:9999/planetary/apod
api_key = secret
timeout = 5s

[database]
host = db.example.com
port = 6543
database = apod
user = loader
password = pw

[log]
level = debug
pgx_level = error

[schedule]
time = 13:45

[server]
port = 8080

[nats]
url = nats://localhost:4222
`)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/planetary/apod", config.NASA.URL)
	assert.Equal(t, 5*time.Second, config.NASA.Timeout)
	assert.Equal(t, DatabaseConfig{Host: "db.example.com", Port: 6543, Database: "apod", User: "loader", Password: "pw"}, config.Database)
	assert.Equal(t, LogConfig{Level: "debug", PgxLevel: "error"}, config.Log)
	assert.Equal(t, 13*time.Hour+45*time.Minute, config.RunAt)
	require.NotNil(t, config.Server)
	assert.Equal(t, "127.0.0.1:8080", config.Server.ListenAddr())
	require.NotNil(t, config.NATS)
	assert.Equal(t, NATSConfig{URL: "nats://localhost:4222", Subject: DefaultNATSSubject}, *config.NATS)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		conf string
		key  string
	}{
		{"missing api key", "[database]\nhost = h\ndatabase = d\n", "nasa.api_key"},
		{"relative url", "[nasa]\nurl = /planetary/apod\napi_key = k\n[database]\nhost = h\ndatabase = d\n", "nasa.url"},
		{"bad timeout", "[nasa]\napi_key = k\ntimeout = soon\n[database]\nhost = h\ndatabase = d\n", "nasa.timeout"},
		{"missing host", "[nasa]\napi_key = k\n[database]\ndatabase = d\n", "database.host"},
		{"missing database", "[nasa]\napi_key = k\n[database]\nhost = h\n", "database.database"},
		{"bad port", "[nasa]\napi_key = k\n[database]\nhost = h\nport = 99999\ndatabase = d\n", "database.port"},
		{"bad schedule", "[nasa]\napi_key = k\n[database]\nhost = h\ndatabase = d\n[schedule]\ntime = noon\n", "schedule.time"},
		{"server without port", "[nasa]\napi_key = k\n[database]\nhost = h\ndatabase = d\n[server]\naddress = 0.0.0.0\n", "server.port"},
		{"nats without url", "[nasa]\napi_key = k\n[database]\nhost = h\ndatabase = d\n[nats]\nsubject = s\n", "nats.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfigString(t, tt.conf)
			var configErr ConfigError
			require.True(t, errors.As(err, &configErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.key, configErr.Key)
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	assert.Equal(t, "Config must contain database.host but it does not", ConfigError{Key: "database.host"}.Error())
	assert.Equal(t, "Bad config nasa.timeout: nope", ConfigError{Key: "nasa.timeout", Reason: "nope"}.Error())
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	var configErr ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "log.level", configErr.Key)

	logger, err := NewLogger(LogConfig{Level: "none"})
	require.NoError(t, err)
	logger.Error("discarded")
}
