package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mx-space/nodepress/internal/config"
	jwtpkg "github.com/mx-space/nodepress/internal/pkg/jwt"
	pkgredis "github.com/mx-space/nodepress/internal/pkg/redis"
	"github.com/mx-space/nodepress/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:     8000,
		Env:      "production",
		CacheTTL: time.Hour,
		Site:     config.SiteConfig{Name: "NodePress", URL: "https://blog.example.com", APIURL: "https://api.example.com"},
		Disqus:   config.DisqusConfig{Forum: "blog", PublicKey: "pub", AdminUsername: "admin"},
	}
}

func newTestApp(t *testing.T, withRedis bool) *App {
	t.Helper()
	var rc *pkgredis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rc = pkgredis.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}
	a := build(zap.NewNop(), testConfig(), testutil.NewDB(t), rc)
	t.Cleanup(func() {
		if a.memCache != nil {
			a.memCache.Close()
		}
		if rc != nil {
			_ = rc.Close()
		}
	})
	return a
}

func do(a *App, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestPublicEndpoints(t *testing.T) {
	a := newTestApp(t, false)

	if w := do(a, http.MethodGet, "/api/ping", "", nil); w.Code != http.StatusOK {
		t.Errorf("ping = %d", w.Code)
	}

	w := do(a, http.MethodGet, "/api/disqus/config", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("disqus config = %d %s", w.Code, w.Body)
	}
	var cfg map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &cfg)
	if cfg["forum"] != "blog" || cfg["public_key"] != "pub" {
		t.Errorf("config = %v", cfg)
	}

	w = do(a, http.MethodGet, "/api/nope", "", nil)
	var envelope struct {
		OK   int `json:"ok"`
		Code int `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	if w.Code != http.StatusNotFound || envelope.Code != http.StatusNotFound || envelope.OK != 0 {
		t.Errorf("no route = %d %s", w.Code, w.Body)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	a := newTestApp(t, false)
	for _, path := range []string{"/api/posts", "/api/options", "/api/votes", "/api/disqus/threads"} {
		if w := do(a, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, w.Code)
		}
	}
}

func TestAdminPostAndOptions(t *testing.T) {
	a := newTestApp(t, true)
	token, err := jwtpkg.Sign("admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w := do(a, http.MethodPost, "/api/posts", token, map[string]interface{}{"title": "Hello", "slug": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post = %d %s", w.Code, w.Body)
	}
	if w := do(a, http.MethodGet, "/api/posts/1", "", nil); w.Code != http.StatusOK {
		t.Errorf("public post = %d", w.Code)
	}

	w = do(a, http.MethodPatch, "/api/options", token, map[string]interface{}{"blocklist_words": []string{"casino"}})
	if w.Code != http.StatusOK {
		t.Fatalf("patch options = %d %s", w.Code, w.Body)
	}

	w = do(a, http.MethodPost, "/api/votes/post", "", map[string]interface{}{"post_id": 1, "vote": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("like post = %d %s", w.Code, w.Body)
	}
	var counts struct {
		Likes int `json:"likes"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &counts)
	if counts.Likes != 1 {
		t.Errorf("likes = %d", counts.Likes)
	}

	if w := do(a, http.MethodGet, "/api/votes", token, nil); w.Code != http.StatusOK {
		t.Errorf("list votes = %d", w.Code)
	}
}
