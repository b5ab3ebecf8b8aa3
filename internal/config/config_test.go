package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
port: 9000
env: production
default_cache_ttl: 600
database:
  host: db.internal
  username: blog
  password: pw
  db_name: blog
redis:
  disabled: true
site:
  url: https://blog.example.org/
  api_url: https://api.example.org
disqus:
  forum: myforum
  public_key: pub
disqus_secret_key: sec
akismet_key: ak
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.IsDev() {
		t.Errorf("port/env = %d/%s", cfg.Port, cfg.Env)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if !strings.HasPrefix(cfg.DSN, "blog:pw@tcp(db.internal:3306)/blog?") {
		t.Errorf("DSN = %s", cfg.DSN)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty when disabled", cfg.RedisURL)
	}
	if cfg.Site.URL != "https://blog.example.org" {
		t.Errorf("Site.URL = %s", cfg.Site.URL)
	}
	if cfg.Disqus.Forum != "myforum" || cfg.Disqus.PublicKey != "pub" || cfg.Disqus.SecretKey != "sec" {
		t.Errorf("Disqus = %+v", cfg.Disqus)
	}
	if cfg.Disqus.OAuthCallbackURL != "https://api.example.org/disqus/oauth-callback" {
		t.Errorf("OAuthCallbackURL = %s", cfg.Disqus.OAuthCallbackURL)
	}
	if cfg.Akismet.Key != "ak" || cfg.Akismet.Blog != "https://blog.example.org" {
		t.Errorf("Akismet = %+v", cfg.Akismet)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "prot: 80\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, "port: 70000\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DISQUS_SECRET_KEY", "from-env")
	t.Setenv("REDIS_URL", "cache.internal:6380")
	path := writeConfig(t, "disqus:\n  secret_key: from-file\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Disqus.SecretKey != "from-env" {
		t.Errorf("SecretKey = %s", cfg.Disqus.SecretKey)
	}
	if cfg.RedisURL != "redis://cache.internal:6380" {
		t.Errorf("RedisURL = %s", cfg.RedisURL)
	}
}

func TestApplyEnvOverridesIgnoresBlank(t *testing.T) {
	cfg := defaultAppConfig()
	cfg.JWTSecret = "keep"
	applyEnvOverrides(&cfg, func(name string) (string, bool) {
		if name == "JWT_SECRET" {
			return "  ", true
		}
		return "", false
	})
	if cfg.JWTSecret != "keep" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestRedisURLValue(t *testing.T) {
	tests := []struct {
		name string
		in   RedisRuntimeConfig
		want string
	}{
		{name: "defaults", in: RedisRuntimeConfig{}, want: "redis://localhost:6379/0"},
		{name: "tls with password", in: RedisRuntimeConfig{Host: "r", Port: 6380, Password: "p", TLS: true, DB: 2}, want: "rediss://:p@r:6380/2"},
		{name: "raw url", in: RedisRuntimeConfig{URL: "r:1"}, want: "redis://r:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.URLValue(); got != tt.want {
				t.Errorf("URLValue = %s, want %s", got, tt.want)
			}
		})
	}
}
