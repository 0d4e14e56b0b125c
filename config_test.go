/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		port:        8080,
		maxAttempts: 5,
		store:       "memory",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.port = 0 }, "invalid port"},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, "tls-key"},
		{"no attempts", func(c *Config) { c.maxAttempts = 0 }, "max attempts"},
		{"short secret", func(c *Config) { c.secret = "short" }, "--secret"},
		{"unknown store", func(c *Config) { c.store = "redis" }, "unknown store"},
		{"mongo without uri", func(c *Config) { c.store = "mongodb" }, "--mongodb-uri"},
		{"sqlite", func(c *Config) { c.store = "sqlite" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.validate()
			switch {
			case tt.want == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.want != "" && (err == nil || !strings.Contains(err.Error(), tt.want)):
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewCmd_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SECRETSANTA_PORT", "9090")
	t.Setenv("SECRETSANTA_STORE", "sqlite")

	cfg := &Config{}
	newCmd(cfg)

	if cfg.port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.port)
	}
	if cfg.store != "sqlite" {
		t.Errorf("expected sqlite store, got %q", cfg.store)
	}
	if cfg.maxAttempts != 5 {
		t.Errorf("expected default max attempts, got %d", cfg.maxAttempts)
	}
}
