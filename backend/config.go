package backend

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vaughan0/go-ini"
)

const (
	DefaultAPODURL     = "https://api.nasa.gov/planetary/apod"
	DefaultNATSSubject = "apod.loaded"
	defaultTimeout     = 60 * time.Second
)

type NASAConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     uint16
	Database string
	User     string
	Password string
}

type LogConfig struct {
	Level    string
	PgxLevel string // empty means use Level
}

type ServerConfig struct {
	Address string
	Port    string
}

func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Address, c.Port)
}

type NATSConfig struct {
	URL     string
	Subject string
}

type Config struct {
	NASA     NASAConfig
	Database DatabaseConfig
	Log      LogConfig
	// RunAt is the offset from midnight UTC of the daily run.
	RunAt  time.Duration
	Server *ServerConfig // nil when no status server is configured
	NATS   *NATSConfig   // nil when no notifications are configured
}

func LoadConfig(path string) (*Config, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("Invalid config path: %v", err)
	}

	file, err := ini.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to load config file: %v", err)
	}

	return ParseConfig(file)
}

func ParseConfig(file ini.File) (*Config, error) {
	config := &Config{}

	config.NASA.URL, _ = file.Get("nasa", "url")
	if config.NASA.URL == "" {
		config.NASA.URL = DefaultAPODURL
	}
	if u, err := url.Parse(config.NASA.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ConfigError{Key: "nasa.url", Reason: fmt.Sprintf("%q is not an absolute URL", config.NASA.URL)}
	}

	config.NASA.APIKey, _ = file.Get("nasa", "api_key")
	if config.NASA.APIKey == "" {
		return nil, ConfigError{Key: "nasa.api_key"}
	}

	config.NASA.Timeout = defaultTimeout
	if s, ok := file.Get("nasa", "timeout"); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, ConfigError{Key: "nasa.timeout", Reason: err.Error()}
		}
		config.NASA.Timeout = d
	}

	config.Database.Host, _ = file.Get("database", "host")
	if config.Database.Host == "" {
		return nil, ConfigError{Key: "database.host"}
	}

	if p, ok := file.Get("database", "port"); ok {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, ConfigError{Key: "database.port", Reason: err.Error()}
		}
		config.Database.Port = uint16(n)
	}

	var ok bool
	if config.Database.Database, ok = file.Get("database", "database"); !ok {
		return nil, ConfigError{Key: "database.database"}
	}
	config.Database.User, _ = file.Get("database", "user")
	config.Database.Password, _ = file.Get("database", "password")

	config.Log.Level, _ = file.Get("log", "level")
	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}
	config.Log.PgxLevel, _ = file.Get("log", "pgx_level")

	if s, ok := file.Get("schedule", "time"); ok {
		d, err := parseTimeOfDay(s)
		if err != nil {
			return nil, ConfigError{Key: "schedule.time", Reason: err.Error()}
		}
		config.RunAt = d
	}

	if serverConf := file.Section("server"); len(serverConf) > 0 {
		config.Server = &ServerConfig{Address: serverConf["address"], Port: serverConf["port"]}
		if config.Server.Address == "" {
			config.Server.Address = "127.0.0.1"
		}
		if config.Server.Port == "" {
			return nil, ConfigError{Key: "server.port"}
		}
	}

	if natsConf := file.Section("nats"); len(natsConf) > 0 {
		config.NATS = &NATSConfig{URL: natsConf["url"], Subject: natsConf["subject"]}
		if config.NATS.URL == "" {
			return nil, ConfigError{Key: "nats.url"}
		}
		if config.NATS.Subject == "" {
			config.NATS.Subject = DefaultNATSSubject
		}
	}

	return config, nil
}

// parseTimeOfDay parses HH:MM into an offset from midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
