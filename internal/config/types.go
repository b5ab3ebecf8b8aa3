package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML, .env and
// environment variables. It is built once and passed to constructors.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	CacheTTL       time.Duration         `yaml:"-"`
	Site           SiteConfig            `yaml:"site"`
	Disqus         DisqusConfig          `yaml:"disqus"`
	Akismet        AkismetConfig         `yaml:"akismet"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Disabled bool   `yaml:"disabled"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// SiteConfig describes the public blog the comments belong to.
type SiteConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`     // front-end origin, used for article permalinks
	APIURL string `yaml:"api_url"` // this server's public origin
}

// DisqusConfig holds the Disqus application and forum credentials.
// Admin credentials need the Read, Write and Manage Forums permissions.
type DisqusConfig struct {
	Forum            string `yaml:"forum"`
	PublicKey        string `yaml:"public_key"`
	SecretKey        string `yaml:"secret_key"`
	AdminAccessToken string `yaml:"admin_access_token"`
	AdminUsername    string `yaml:"admin_username"`
	OAuthCallbackURL string `yaml:"oauth_callback_url"`
}

type AkismetConfig struct {
	Key  string `yaml:"key"`
	Blog string `yaml:"blog"`
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	DSN            string            `yaml:"dsn"`
	DatabaseURL    string            `yaml:"database_url"`
	RedisURL       string            `yaml:"redis_url"`
	Database       rawDatabaseConfig `yaml:"database"`
	Redis          rawRedisConfig    `yaml:"redis"`
	Env            string            `yaml:"env"`
	NodeEnv        string            `yaml:"node_env"`
	Paths          rawPathsConfig    `yaml:"paths"`
	LogDir         string            `yaml:"log_dir"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	JWTSecret      string            `yaml:"jwt_secret"`
	AuthKey        string            `yaml:"auth_key"`
	CacheTTL       int               `yaml:"default_cache_ttl"` // seconds
	Site           SiteConfig        `yaml:"site"`
	Disqus         DisqusConfig      `yaml:"disqus"`
	Akismet        AkismetConfig     `yaml:"akismet"`

	// flat aliases
	DisqusForumShortname   string `yaml:"disqus_forum_shortname"`
	DisqusPublicKey        string `yaml:"disqus_public_key"`
	DisqusSecretKey        string `yaml:"disqus_secret_key"`
	DisqusAdminAccessToken string `yaml:"disqus_admin_access_token"`
	DisqusAdminUsername    string `yaml:"disqus_admin_username"`
	AkismetKey             string `yaml:"akismet_key"`
	AkismetBlog            string `yaml:"akismet_blog"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Disabled *bool  `yaml:"disabled"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}
