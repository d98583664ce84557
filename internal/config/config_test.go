package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must validate, got %v", err)
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if !strings.Contains(cfg.API.BaseURL, "donneesquebec.ca") {
		t.Errorf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.API.ResourceID != "" {
		t.Errorf("resource id must default to empty, got %q", cfg.API.ResourceID)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("unexpected api timeout: %v", cfg.API.Timeout)
	}
	if cfg.Mongo.Database != "qc_bike_path" || cfg.Mongo.Collection != "bike_paths" {
		t.Errorf("unexpected mongo defaults: %s/%s", cfg.Mongo.Database, cfg.Mongo.Collection)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Transform.Workers != 1 {
		t.Errorf("unexpected worker default: %d", cfg.Transform.Workers)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"malformed base url", func(c *Config) { c.API.BaseURL = "not-a-url" }},
		{"zero api timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.API.RetryAttempts = -1 }},
		{"negative rate limit", func(c *Config) { c.API.RateLimit = -1 }},
		{"empty mongo uri", func(c *Config) { c.Mongo.URI = "" }},
		{"empty mongo database", func(c *Config) { c.Mongo.Database = "" }},
		{"empty mongo collection", func(c *Config) { c.Mongo.Collection = "" }},
		{"zero mongo timeout", func(c *Config) { c.Mongo.Timeout = 0 }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"zero workers", func(c *Config) { c.Transform.Workers = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_AcceptsTextLogging(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid configuration, got %v", err)
	}
}
