package app

import "testing"

func TestOriginMatcher(t *testing.T) {
	tests := []struct {
		pattern string
		origin  string
		want    bool
	}{
		{pattern: "blog.example.com", origin: "https://blog.example.com", want: true},
		{pattern: "https://blog.example.com/", origin: "https://blog.example.com", want: true},
		{pattern: "Blog.Example.com", origin: "https://BLOG.example.com", want: true},
		{pattern: "*.example.com", origin: "https://admin.example.com", want: true},
		{pattern: "*.example.com", origin: "https://example.org", want: false},
		{pattern: "localhost:*", origin: "http://localhost:2323", want: true},
		{pattern: "localhost:*", origin: "http://localhost.evil.com", want: false},
		{pattern: "blog.example.com", origin: "https://evil.com", want: false},
		{pattern: "blog.example.com", origin: "null", want: false},
		{pattern: "  ", origin: "https://blog.example.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.origin, func(t *testing.T) {
			if got := newOriginMatcher([]string{tt.pattern}).allow(tt.origin); got != tt.want {
				t.Errorf("allow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSRestrictsOriginsInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://blog.example.com", "*.example.org"}
	c := corsConfig(cfg)
	if !c.AllowOriginFunc("https://blog.example.com") || c.AllowOriginFunc("https://evil.com") {
		t.Error("origin filter not applied")
	}
	if !c.AllowOriginFunc("https://admin.example.org") {
		t.Error("wildcard pattern not applied")
	}
}
