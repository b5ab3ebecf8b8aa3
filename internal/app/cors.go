package app

import (
	"net/url"
	"strings"
)

// originMatcher admits browser origins by host. A pattern is a bare host, a
// full origin such as "https://blog.example.com", "*.example.com" for any
// subdomain or "localhost:*" for any port. Matching ignores case.
type originMatcher struct {
	patterns []string
}

func newOriginMatcher(patterns []string) originMatcher {
	var m originMatcher
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		m.patterns = append(m.patterns, strings.ToLower(originHost(p)))
	}
	return m
}

func (m originMatcher) allow(origin string) bool {
	host := strings.ToLower(originHost(origin))
	for _, p := range m.patterns {
		if matchHost(p, host) {
			return true
		}
	}
	return false
}

// originHost returns the "host[:port]" part of an origin, or s itself when it
// carries no scheme.
func originHost(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	return u.Host
}

func matchHost(pattern, host string) bool {
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
