// Package disqus is a thin client for the Disqus API 3.0 and its OAuth 2.0
// endpoints.
package disqus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL   = "https://disqus.com/api/3.0/"
	defaultOAuthURL = "https://disqus.com/api/oauth/2.0/"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 4 << 20
)

// writeResources are sent as form POSTs; everything else is a GET.
var writeResources = map[string]bool{
	"threads/create": true,
	"threads/vote":   true,
	"threads/close":  true,
	"posts/create":   true,
	"posts/remove":   true,
	"posts/vote":     true,
	"posts/approve":  true,
	"posts/spam":     true,
}

// Options configures a Client.
type Options struct {
	APIKey     string // public key
	APISecret  string // secret key
	APIURL     string
	OAuthURL   string
	HTTPClient *http.Client
}

// Client issues signed requests to Disqus.
type Client struct {
	apiKey     string
	apiSecret  string
	apiURL     string
	oauthURL   string
	httpClient *http.Client
}

// New creates a client. Empty URLs fall back to the public Disqus endpoints.
func New(opts Options) *Client {
	c := &Client{
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		apiURL:     withSlash(opts.APIURL, defaultAPIURL),
		oauthURL:   withSlash(opts.OAuthURL, defaultOAuthURL),
		httpClient: opts.HTTPClient,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

func withSlash(raw, fallback string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return fallback
	}
	return strings.TrimRight(v, "/") + "/"
}

// Request calls resource (e.g. "threads/details"). usePublicKey signs with the
// application's public key instead of the secret; guest posting requires it.
func (c *Client) Request(ctx context.Context, resource string, params url.Values, usePublicKey bool) (*Response, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	if usePublicKey {
		query.Set("api_key", c.apiKey)
	} else {
		query.Set("api_secret", c.apiSecret)
	}

	endpoint := c.apiURL + strings.Trim(resource, "/") + ".json"
	var (
		req *http.Request
		err error
	)
	if writeResources[resource] {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(query.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("disqus %s: build request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("disqus %s: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("disqus %s: read body: %w", resource, err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &APIError{Resource: resource, Status: resp.StatusCode, Code: -1, Message: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode >= http.StatusBadRequest || out.Code != CodeSuccess {
		return nil, &APIError{Resource: resource, Status: resp.StatusCode, Code: out.Code, Message: rawMessage(out.Response)}
	}
	return &out, nil
}

// GetAuthorizeURL builds the URL the visitor is redirected to for OAuth consent.
func (c *Client) GetAuthorizeURL(responseType, scope, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", c.apiKey)
	q.Set("scope", scope)
	q.Set("response_type", responseType)
	q.Set("redirect_uri", redirectURI)
	return c.oauthURL + "authorize/?" + q.Encode()
}

// GetOAuthAccessToken exchanges an authorization code for a token.
func (c *Client) GetOAuthAccessToken(ctx context.Context, code, redirectURI string) (*AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)
	return c.tokenRequest(ctx, form)
}

// RefreshOAuthAccessToken trades a refresh token for a new access token.
func (c *Client) RefreshOAuthAccessToken(ctx context.Context, refreshToken string) (*AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*AccessToken, error) {
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL+"access_token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("disqus oauth: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("disqus oauth: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var oe struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &oe) == nil && oe.Error != "" {
			msg = strings.TrimSpace(oe.Error + " " + oe.ErrorDescription)
		}
		return nil, &APIError{Resource: "oauth/access_token", Status: resp.StatusCode, Code: -1, Message: msg}
	}

	var token AccessToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("disqus oauth: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("disqus oauth: empty access token")
	}
	return &token, nil
}

func rawMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
