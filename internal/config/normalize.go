package config

import "strings"

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultDBPort
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeSiteConfig(site SiteConfig) SiteConfig {
	site.Name = strings.TrimSpace(site.Name)
	site.URL = strings.TrimRight(strings.TrimSpace(site.URL), "/")
	site.APIURL = strings.TrimRight(strings.TrimSpace(site.APIURL), "/")
	if site.Name == "" {
		site.Name = defaultSiteName
	}
	if site.URL == "" {
		site.URL = defaultSiteURL
	}
	if site.APIURL == "" {
		site.APIURL = defaultAPIURL
	}
	return site
}

func normalizeDisqusConfig(d DisqusConfig, site SiteConfig) DisqusConfig {
	d.Forum = strings.TrimSpace(d.Forum)
	d.PublicKey = strings.TrimSpace(d.PublicKey)
	d.SecretKey = strings.TrimSpace(d.SecretKey)
	d.AdminAccessToken = strings.TrimSpace(d.AdminAccessToken)
	d.AdminUsername = strings.TrimSpace(d.AdminUsername)
	d.OAuthCallbackURL = strings.TrimSpace(d.OAuthCallbackURL)
	if d.OAuthCallbackURL == "" {
		d.OAuthCallbackURL = site.APIURL + DisqusOAuthCallbackPath
	}
	return d
}

func normalizeAkismetConfig(a AkismetConfig, site SiteConfig) AkismetConfig {
	a.Key = strings.TrimSpace(a.Key)
	a.Blog = strings.TrimSpace(a.Blog)
	if a.Blog == "" {
		a.Blog = site.URL
	}
	return a
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
