package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(map[string]string{"EXTERMINUS_JWT_SECRET": "super-secret"})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
		t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLitePath != "exterminus.db" || cfg.SQLiteBusyTimeout != 10*time.Second {
		t.Fatalf("unexpected sqlite defaults: %q %v", cfg.SQLitePath, cfg.SQLiteBusyTimeout)
	}
	if cfg.JWTSecret != "super-secret" || cfg.JWTIssuer != "" {
		t.Fatalf("unexpected jwt settings: %q %q", cfg.JWTSecret, cfg.JWTIssuer)
	}
	if cfg.HolidayJurisdiction != "VA" {
		t.Fatalf("expected VA holidays, got %q", cfg.HolidayJurisdiction)
	}
	if cfg.ZipAPIURL != "https://api.zippopotam.us" || cfg.ZipTimeout != 5*time.Second || cfg.ZipCacheSize != 1024 {
		t.Fatalf("unexpected zip defaults: %+v", cfg)
	}
	if cfg.RedisAddr != "" || cfg.RedisTTL != 720*time.Hour {
		t.Fatalf("unexpected redis defaults: %q %v", cfg.RedisAddr, cfg.RedisTTL)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected log defaults: %q %q", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := load(map[string]string{
		"EXTERMINUS_JWT_SECRET":           "secret-value",
		"EXTERMINUS_JWT_ISSUER":           "exterminus",
		"EXTERMINUS_HTTP_PORT":            "9090",
		"EXTERMINUS_SQLITE_PATH":          "/tmp/exterminus.db",
		"EXTERMINUS_SQLITE_BUSY_TIMEOUT":  "2s",
		"EXTERMINUS_HOLIDAY_JURISDICTION": "US",
		"EXTERMINUS_ZIP_TIMEOUT":          "750ms",
		"EXTERMINUS_REDIS_ADDR":           "localhost:6379",
		"EXTERMINUS_REDIS_TTL":            "1h",
		"EXTERMINUS_LOG_FORMAT":           "text",
		"EXTERMINUS_LOG_LEVEL":            "debug",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 || cfg.SQLitePath != "/tmp/exterminus.db" || cfg.SQLiteBusyTimeout != 2*time.Second {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.ZipTimeout != 750*time.Millisecond || cfg.RedisTTL != time.Hour || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.HolidayJurisdiction != "US" || cfg.LogFormat != "text" || cfg.LogLevel != "debug" || cfg.JWTIssuer != "exterminus" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ map[string]string
		want    []string
	}{
		{
			name:    "missing secret",
			environ: map[string]string{},
			want:    []string{"EXTERMINUS_JWT_SECRET"},
		},
		{
			name:    "blank secret",
			environ: map[string]string{"EXTERMINUS_JWT_SECRET": ""},
			want:    []string{"EXTERMINUS_JWT_SECRET"},
		},
		{
			name: "every offending variable is listed",
			environ: map[string]string{
				"EXTERMINUS_HTTP_PORT":   "70000",
				"EXTERMINUS_LOG_FORMAT":  "xml",
				"EXTERMINUS_LOG_LEVEL":   "loud",
				"EXTERMINUS_ZIP_API_URL": "not a url",
			},
			want: []string{
				"EXTERMINUS_JWT_SECRET",
				"EXTERMINUS_HTTP_PORT",
				"EXTERMINUS_LOG_FORMAT",
				"EXTERMINUS_LOG_LEVEL",
				"EXTERMINUS_ZIP_API_URL",
			},
		},
		{
			name: "unparsable duration",
			environ: map[string]string{
				"EXTERMINUS_JWT_SECRET":  "secret",
				"EXTERMINUS_ZIP_TIMEOUT": "soon",
			},
			want: []string{"ZipTimeout"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := load(tc.environ)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("expected %q in error, got %q", want, err.Error())
				}
			}
		})
	}
}
