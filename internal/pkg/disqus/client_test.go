package disqus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		APIKey:    "public",
		APISecret: "secret",
		APIURL:    srv.URL + "/api/3.0",
		OAuthURL:  srv.URL + "/oauth",
	})
}

func TestRequestSigningAndMethod(t *testing.T) {
	tests := []struct {
		name       string
		resource   string
		public     bool
		wantMethod string
		wantKey    string
		wantValue  string
	}{
		{name: "details uses GET with secret", resource: "threads/details", wantMethod: http.MethodGet, wantKey: "api_secret", wantValue: "secret"},
		{name: "guest post uses POST with public key", resource: "posts/create", public: true, wantMethod: http.MethodPost, wantKey: "api_key", wantValue: "public"},
		{name: "vote uses POST", resource: "threads/vote", public: true, wantMethod: http.MethodPost, wantKey: "api_key", wantValue: "public"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod {
					t.Errorf("method = %s, want %s", r.Method, tt.wantMethod)
				}
				if want := "/api/3.0/" + tt.resource + ".json"; r.URL.Path != want {
					t.Errorf("path = %s, want %s", r.URL.Path, want)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatal(err)
				}
				if got := r.Form.Get(tt.wantKey); got != tt.wantValue {
					t.Errorf("%s = %q, want %q", tt.wantKey, got, tt.wantValue)
				}
				if got := r.Form.Get("forum"); got != "blog" {
					t.Errorf("forum = %q", got)
				}
				fmt.Fprint(w, `{"code":0,"response":{"id":"1"}}`)
			})

			resp, err := c.Request(context.Background(), tt.resource, url.Values{"forum": {"blog"}}, tt.public)
			if err != nil {
				t.Fatal(err)
			}
			var th Thread
			if err := resp.Decode(&th); err != nil || th.ID != "1" {
				t.Errorf("Decode = %+v, %v", th, err)
			}
		})
	}
}

func TestRequestDoesNotMutateParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"response":{}}`)
	})
	params := url.Values{"thread": {"1"}}
	if _, err := c.Request(context.Background(), "threads/details", params, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := params["api_secret"]; ok {
		t.Error("Request leaked the secret into caller params")
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantNotFound bool
	}{
		{name: "unknown thread link", status: 400, body: `{"code":2,"response":"Invalid argument, 'thread': Unable to find thread 'link:https://example.com/article/1'"}`, wantNotFound: true},
		{name: "object not found", status: 400, body: `{"code":8,"response":"Object not found"}`, wantNotFound: true},
		{name: "other invalid argument", status: 400, body: `{"code":2,"response":"Invalid argument, 'message': too short"}`},
		{name: "auth required", status: 400, body: `{"code":4,"response":"You must be authenticated"}`},
		{name: "server error html", status: 502, body: `<html>bad gateway</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := c.Request(context.Background(), "threads/details", nil, false)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if got := IsNotFound(err); got != tt.wantNotFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.wantNotFound)
			}
		})
	}
}

func TestTransportErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := New(Options{APIURL: srv.URL})

	_, err := c.Request(context.Background(), "threads/details", nil, false)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsNotFound(err) {
		t.Error("transport error classified as not found")
	}
}

func TestGetAuthorizeURL(t *testing.T) {
	c := New(Options{APIKey: "public", OAuthURL: "https://disqus.test/oauth/"})
	raw := c.GetAuthorizeURL("code", "read,write", "https://api.example.com/disqus/oauth-callback")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/oauth/authorize/" {
		t.Errorf("path = %s", u.Path)
	}
	q := u.Query()
	if q.Get("client_id") != "public" || q.Get("scope") != "read,write" || q.Get("response_type") != "code" {
		t.Errorf("query = %v", q)
	}
	if q.Get("redirect_uri") != "https://api.example.com/disqus/oauth-callback" {
		t.Errorf("redirect_uri = %s", q.Get("redirect_uri"))
	}
}

func TestOAuthTokenExchange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/access_token/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = r.ParseForm()
		if r.Form.Get("client_secret") != "secret" || r.Form.Get("client_id") != "public" {
			t.Errorf("client credentials missing: %v", r.Form)
		}
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			if r.Form.Get("code") != "abc" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant","error_description":"bad code"}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","expires_in":2592000,"user_id":42,"username":"alice"}`)
		case "refresh_token":
			fmt.Fprint(w, `{"access_token":"at2","refresh_token":"rt2","expires_in":2592000,"user_id":42}`)
		}
	})
	ctx := context.Background()

	token, err := c.GetOAuthAccessToken(ctx, "abc", "https://cb")
	if err != nil {
		t.Fatal(err)
	}
	if token.AccessToken != "at" || token.UserID != 42 || token.Username != "alice" {
		t.Errorf("token = %+v", token)
	}

	_, err = c.GetOAuthAccessToken(ctx, "nope", "https://cb")
	if err == nil || !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("err = %v, want invalid_grant", err)
	}

	refreshed, err := c.RefreshOAuthAccessToken(ctx, "rt")
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.AccessToken != "at2" {
		t.Errorf("refreshed = %+v", refreshed)
	}
}
