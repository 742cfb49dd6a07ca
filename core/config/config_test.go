package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULE_DATABASE_DRIVER", "sqlite")
	t.Setenv("SCHEDULE_DATABASE_DSN", "file:test.db")
	t.Setenv("SCHEDULE_SCHEDULE_TIMEZONE", "UTC")
	t.Setenv("SCHEDULE_SERVER_PORT", "9090")
	t.Setenv("SCHEDULE_GOOGLE_API_TIMEOUT", "3s")
	t.Setenv("SCHEDULE_SECURITY_JWT_SECRET", "secret")

	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:test.db" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.GoogleAPI.Timeout != 3*time.Second {
		t.Fatalf("expected 3s calendar timeout, got %s", cfg.GoogleAPI.Timeout)
	}
	if cfg.Security.JWTSecret != "secret" {
		t.Fatalf("expected jwt secret from env")
	}
	if cfg.Schedule.HorizonDays != 30 {
		t.Fatalf("expected default horizon of 30 days, got %d", cfg.Schedule.HorizonDays)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", cfg.Location())
	}

	got, ok := GetSafe()
	if !ok || got != cfg {
		t.Fatalf("expected Load to install the config")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 7070},
			Database: DatabaseConfig{Driver: "postgres", Host: "localhost"},
			Schedule: ScheduleConfig{Timezone: "UTC", HorizonDays: 7},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "database.dsn"},
		{name: "bad timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, wantErr: "schedule.timezone"},
		{name: "queue without redis", mutate: func(c *Config) { c.Queue.Enabled = true }, wantErr: "queue.enabled"},
		{name: "production without secret", mutate: func(c *Config) { c.Server.Env = "production" }, wantErr: "security.jwt_secret"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}
