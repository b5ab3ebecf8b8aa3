package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies .env and environment
// overrides and validates the result. A missing file yields the defaults.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw, err := parse(content)
		if err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRawAppConfig(&cfg, raw)
	case errors.Is(err, fs.ErrNotExist) && configPath == "":
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg, os.LookupEnv)
	finalize(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func parse(content []byte) (rawAppConfig, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func validate(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return fmt.Errorf("invalid database dsn: %w", err)
	}
	if !cfg.Redis.Disabled && (cfg.Redis.Port < 1 || cfg.Redis.Port > 65535) {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", cfg.Redis.Port)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("invalid default_cache_ttl %s", cfg.CacheTTL)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		CacheTTL: defaultCacheTTL,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Site: SiteConfig{
			Name:   defaultSiteName,
			URL:    defaultSiteURL,
			APIURL: defaultAPIURL,
		},
	}
	return cfg
}

// finalize normalizes nested blocks and derives DSN / RedisURL / callbacks.
func finalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.Site = normalizeSiteConfig(cfg.Site)
	cfg.Disqus = normalizeDisqusConfig(cfg.Disqus, cfg.Site)
	cfg.Akismet = normalizeAkismetConfig(cfg.Akismet, cfg.Site)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.DSN = cfg.Database.DSNValue()
	if cfg.Redis.Disabled {
		cfg.RedisURL = ""
	} else {
		cfg.RedisURL = cfg.Redis.URLValue()
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = raw.AllowedOrigins
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	} else if v := strings.TrimSpace(raw.AuthKey); v != "" {
		cfg.JWTSecret = v
	}
	if raw.CacheTTL != 0 {
		cfg.CacheTTL = time.Duration(raw.CacheTTL) * time.Second
	}

	cfg.Site = mergeSite(cfg.Site, raw.Site)
	cfg.Disqus = mergeDisqus(cfg.Disqus, raw.Disqus)
	cfg.Akismet = mergeAkismet(cfg.Akismet, raw.Akismet)

	setIfPresent(&cfg.Disqus.Forum, raw.DisqusForumShortname)
	setIfPresent(&cfg.Disqus.PublicKey, raw.DisqusPublicKey)
	setIfPresent(&cfg.Disqus.SecretKey, raw.DisqusSecretKey)
	setIfPresent(&cfg.Disqus.AdminAccessToken, raw.DisqusAdminAccessToken)
	setIfPresent(&cfg.Disqus.AdminUsername, raw.DisqusAdminUsername)
	setIfPresent(&cfg.Akismet.Key, raw.AkismetKey)
	setIfPresent(&cfg.Akismet.Blog, raw.AkismetBlog)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	db := raw.Database
	setIfPresent(&current.DSN, raw.DSN)
	setIfPresent(&current.DSN, raw.DatabaseURL)
	setIfPresent(&current.DSN, db.DSN)
	setIfPresent(&current.DSN, db.URL)
	setIfPresent(&current.Host, db.Host)
	if db.Port != 0 {
		current.Port = db.Port
	}
	setIfPresent(&current.User, db.Username)
	setIfPresent(&current.User, db.User)
	setIfPresent(&current.Password, db.Password)
	setIfPresent(&current.Name, db.DBName)
	setIfPresent(&current.Name, db.Name)
	setIfPresent(&current.Charset, db.Charset)
	setIfPresent(&current.Loc, db.Loc)
	if db.ParseTime != nil {
		current.ParseTime = *db.ParseTime
	}
	if db.Params != nil {
		current.Params = db.Params
	}
	return current
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	r := raw.Redis
	setIfPresent(&current.URL, raw.RedisURL)
	setIfPresent(&current.URL, r.URL)
	setIfPresent(&current.Host, r.Host)
	if r.Port != 0 {
		current.Port = r.Port
	}
	setIfPresent(&current.Username, r.Username)
	setIfPresent(&current.Password, r.Password)
	if r.DB != nil {
		current.DB = *r.DB
	}
	if r.TLS != nil {
		current.TLS = *r.TLS
	}
	if r.Disabled != nil {
		current.Disabled = *r.Disabled
	}
	return current
}

func mergeSite(current, raw SiteConfig) SiteConfig {
	setIfPresent(&current.Name, raw.Name)
	setIfPresent(&current.URL, raw.URL)
	setIfPresent(&current.APIURL, raw.APIURL)
	return current
}

func mergeDisqus(current, raw DisqusConfig) DisqusConfig {
	setIfPresent(&current.Forum, raw.Forum)
	setIfPresent(&current.PublicKey, raw.PublicKey)
	setIfPresent(&current.SecretKey, raw.SecretKey)
	setIfPresent(&current.AdminAccessToken, raw.AdminAccessToken)
	setIfPresent(&current.AdminUsername, raw.AdminUsername)
	setIfPresent(&current.OAuthCallbackURL, raw.OAuthCallbackURL)
	return current
}

func mergeAkismet(current, raw AkismetConfig) AkismetConfig {
	setIfPresent(&current.Key, raw.Key)
	setIfPresent(&current.Blog, raw.Blog)
	return current
}

// envOverrides maps environment variables onto config fields. Secrets are
// usually supplied this way rather than committed to the YAML file.
var envOverrides = []struct {
	name  string
	apply func(cfg *AppConfig, v string)
}{
	{"NODEPRESS_ENV", func(c *AppConfig, v string) { c.Env = v }},
	{"DB_DSN", func(c *AppConfig, v string) { c.Database.DSN = v }},
	{"REDIS_URL", func(c *AppConfig, v string) { c.Redis.URL = v }},
	{"JWT_SECRET", func(c *AppConfig, v string) { c.JWTSecret = v }},
	{"SITE_URL", func(c *AppConfig, v string) { c.Site.URL = v }},
	{"API_URL", func(c *AppConfig, v string) { c.Site.APIURL = v }},
	{"DISQUS_FORUM", func(c *AppConfig, v string) { c.Disqus.Forum = v }},
	{"DISQUS_PUBLIC_KEY", func(c *AppConfig, v string) { c.Disqus.PublicKey = v }},
	{"DISQUS_SECRET_KEY", func(c *AppConfig, v string) { c.Disqus.SecretKey = v }},
	{"DISQUS_ADMIN_ACCESS_TOKEN", func(c *AppConfig, v string) { c.Disqus.AdminAccessToken = v }},
	{"DISQUS_ADMIN_USERNAME", func(c *AppConfig, v string) { c.Disqus.AdminUsername = v }},
	{"AKISMET_KEY", func(c *AppConfig, v string) { c.Akismet.Key = v }},
	{"AKISMET_BLOG", func(c *AppConfig, v string) { c.Akismet.Blog = v }},
}

func applyEnvOverrides(cfg *AppConfig, lookup func(string) (string, bool)) {
	for _, o := range envOverrides {
		if v, ok := lookup(o.name); ok && strings.TrimSpace(v) != "" {
			o.apply(cfg, strings.TrimSpace(v))
		}
	}
}

func setIfPresent(dst *string, v string) {
	if t := strings.TrimSpace(v); t != "" {
		*dst = t
	}
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// LogDir returns the directory for daily log files; relative paths resolve
// against the executable's directory.
func (c *AppConfig) LogDir() string {
	target := "logs"
	if c != nil && strings.TrimSpace(c.Paths.Logs) != "" {
		target = strings.TrimSpace(c.Paths.Logs)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	base := "."
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		base = filepath.Dir(exe)
	}
	return filepath.Join(base, target)
}
