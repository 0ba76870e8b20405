package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:             "8080",
		Storage:          StoragePostgres,
		DatabaseURL:      "postgres://localhost/groupledger",
		DBMaxOpenConns:   10,
		DBMaxIdleConns:   2,
		LedgerTxTimeout:  time.Second,
		AuthMode:         AuthJWT,
		JWTSecret:        "0123456789abcdef",
		AMQPExchange:     "groupledger.events",
		BalanceCacheSize: 16,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory without database", func(c *Config) { c.Storage = StorageMemory; c.DatabaseURL = "" }, ""},
		{"port not a number", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"unknown storage", func(c *Config) { c.Storage = "sqlite" }, "invalid storage"},
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"idle above open", func(c *Config) { c.DBMaxIdleConns = 50 }, "DB_MAX_IDLE_CONNS"},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"header auth needs no secret", func(c *Config) { c.AuthMode = AuthHeader; c.JWTSecret = "" }, ""},
		{"unknown auth", func(c *Config) { c.AuthMode = "oauth" }, "invalid auth mode"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://rabbit:5672" }, "amqp"},
		{"zero cache", func(c *Config) { c.BalanceCacheSize = 0 }, "BALANCE_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	c := validConfig()
	c.Port = "0"
	c.AuthMode = "nope"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "port") || !strings.Contains(err.Error(), "auth mode") {
		t.Errorf("error should list both problems: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", StorageMemory)
	t.Setenv("BALANCE_CACHE_SIZE", "42")
	t.Setenv("LEDGER_TX_TIMEOUT", "3s")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	c := Load()
	if c.Port != "9090" || c.Storage != StorageMemory || c.BalanceCacheSize != 42 {
		t.Errorf("unexpected config: %+v", c)
	}
	if c.LedgerTxTimeout != 3*time.Second || c.RunMigrations {
		t.Errorf("durations/bools not parsed: %+v", c)
	}
	if c.DBMaxOpenConns != 25 {
		t.Errorf("invalid int should fall back to default, got %d", c.DBMaxOpenConns)
	}
}
