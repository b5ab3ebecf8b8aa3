package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "nodepress"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
	defaultSiteName   = "NodePress"
	defaultSiteURL    = "https://example.com"
	defaultAPIURL     = "https://api.example.com"
	defaultCacheTTL   = 24 * time.Hour
	// DisqusOAuthCallbackPath is appended to the API URL when no callback is configured.
	DisqusOAuthCallbackPath = "/disqus/oauth-callback"
)
