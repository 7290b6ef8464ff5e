package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return fromEnv()
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := fromEnv()

	if cfg.WatchPeriod != 60*time.Second {
		t.Errorf("expected WatchPeriod 60s, got %s", cfg.WatchPeriod)
	}
	if cfg.WatchLookback != 5*time.Minute {
		t.Errorf("expected WatchLookback 5m, got %s", cfg.WatchLookback)
	}
	if cfg.ReminderMinLead != 25*time.Minute || cfg.ReminderMaxLead != 35*time.Minute {
		t.Errorf("expected reminder window [25m, 35m], got [%s, %s]", cfg.ReminderMinLead, cfg.ReminderMaxLead)
	}
	if cfg.WatchLedger != LedgerStore {
		t.Errorf("expected default ledger %q, got %q", LedgerStore, cfg.WatchLedger)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvWatchPeriod, "30s")
	t.Setenv(EnvWatchDedupBound, "7")
	t.Setenv(EnvWatchLedger, LedgerMemory)
	t.Setenv(EnvRedisDB, "not-a-number")
	t.Setenv(EnvLiveOrigins, " https://desk.example.com, ,https://kiosk.example.com ")

	cfg := fromEnv()

	if cfg.WatchPeriod != 30*time.Second {
		t.Errorf("expected WatchPeriod 30s, got %s", cfg.WatchPeriod)
	}
	if cfg.WatchDedupBound != 7 {
		t.Errorf("expected WatchDedupBound 7, got %d", cfg.WatchDedupBound)
	}
	if cfg.WatchLedger != LedgerMemory {
		t.Errorf("expected ledger %q, got %q", LedgerMemory, cfg.WatchLedger)
	}
	if cfg.RedisDB != DefaultRedisDB {
		t.Errorf("unparseable value should fall back to default, got %d", cfg.RedisDB)
	}
	if len(cfg.LiveOrigins) != 2 || cfg.LiveOrigins[0] != "https://desk.example.com" || cfg.LiveOrigins[1] != "https://kiosk.example.com" {
		t.Errorf("expected two trimmed origins, got %q", cfg.LiveOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "lookback shorter than period",
			mutate:  func(c *Config) { c.WatchLookback = 30 * time.Second },
			wantErr: "WatchLookback",
		},
		{
			name: "reminder window narrower than period",
			mutate: func(c *Config) {
				c.ReminderMinLead = 29 * time.Minute
				c.ReminderMaxLead = 31 * time.Minute
			},
			wantErr: "reminder window",
		},
		{
			name:    "inverted reminder window",
			mutate:  func(c *Config) { c.ReminderMaxLead = 20 * time.Minute },
			wantErr: "ReminderMaxLead",
		},
		{
			name:    "unknown ledger",
			mutate:  func(c *Config) { c.WatchLedger = "redis" },
			wantErr: "WatchLedger",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "0" },
			wantErr: "Port",
		},
		{
			name:    "bad mongo scheme",
			mutate:  func(c *Config) { c.MongoURI = "postgres://localhost" },
			wantErr: "MongoURI",
		},
		{
			name:    "origin without scheme",
			mutate:  func(c *Config) { c.LiveOrigins = []string{"desk.example.com"} },
			wantErr: "LiveOrigins",
		},
		{
			name:    "origin with a path",
			mutate:  func(c *Config) { c.LiveOrigins = []string{"https://desk.example.com/app"} },
			wantErr: "LiveOrigins",
		},
		{
			name:    "host lock shorter than twice the margin",
			mutate:  func(c *Config) { c.HostLockTTL = 3 * time.Second },
			wantErr: "HostLockTTL",
		},
		{
			name:    "zero dedup bound",
			mutate:  func(c *Config) { c.WatchDedupBound = 0 },
			wantErr: "WatchDedupBound",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestHostLockLease(t *testing.T) {
	cfg := validConfig()
	if got := cfg.HostLockLease(); got != cfg.HostLockTTL-HostLockMargin {
		t.Errorf("expected lease %s, got %s", cfg.HostLockTTL-HostLockMargin, got)
	}
	if cfg.HostLockLease() <= 0 {
		t.Error("default lease must be positive")
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/frontdesk")
	if strings.Contains(got, "secret") {
		t.Errorf("expected password to be redacted, got %s", got)
	}
	if got != "mongodb://***:***@db:27017/frontdesk" {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-3, 10},
		{5, 5},
		{DefaultPaginationLimit + 1, DefaultPaginationLimit},
	}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
