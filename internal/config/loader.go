package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "EXTERMINUS_"

// Config captures environment driven configuration values for the calendar service.
type Config struct {
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"exterminus.db"`
	SQLiteBusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"10s"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER"`

	HolidayJurisdiction string `env:"HOLIDAY_JURISDICTION" envDefault:"VA"`

	ZipAPIURL    string        `env:"ZIP_API_URL" envDefault:"https://api.zippopotam.us"`
	ZipTimeout   time.Duration `env:"ZIP_TIMEOUT" envDefault:"5s"`
	ZipCacheSize int           `env:"ZIP_CACHE_SIZE" envDefault:"1024"`

	// RedisAddr enables the shared ZIP cache when set.
	RedisAddr string        `env:"REDIS_ADDR"`
	RedisTTL  time.Duration `env:"REDIS_TTL" envDefault:"720h"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return load(nil)
}

// load reads environ instead of the process environment when it is non-nil.
// Every parse failure and every out of range value is reported together.
func load(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix, Environment: environ}

	var problems []string
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		var agg env.AggregateError
		if !errors.As(err, &agg) {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		for _, e := range agg.Errors {
			problems = append(problems, e.Error())
		}
	}
	for _, key := range cfg.invalid() {
		problems = append(problems, fmt.Sprintf("invalid value for %s%s", Prefix, key))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// invalid lists the variables whose parsed values are out of range. Zero
// values left by a parse failure are skipped since the parse error already
// names them.
func (c Config) invalid() []string {
	var keys []string
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		keys = append(keys, "HTTP_PORT")
	}
	if c.SQLiteBusyTimeout < 0 {
		keys = append(keys, "SQLITE_BUSY_TIMEOUT")
	}
	if c.ZipAPIURL != "" {
		if u, err := url.ParseRequestURI(c.ZipAPIURL); err != nil || u.Host == "" {
			keys = append(keys, "ZIP_API_URL")
		}
	}
	if c.ZipTimeout < 0 {
		keys = append(keys, "ZIP_TIMEOUT")
	}
	if c.ZipCacheSize < 0 {
		keys = append(keys, "ZIP_CACHE_SIZE")
	}
	if c.RedisTTL < 0 {
		keys = append(keys, "REDIS_TTL")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		keys = append(keys, "LOG_FORMAT")
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			keys = append(keys, "LOG_LEVEL")
		}
	}
	return keys
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
