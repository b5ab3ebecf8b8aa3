// Package akismet is the spam oracle consulted before a comment is published
// and informed when an admin reclassifies one.
package akismet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultEndpoint = "https://rest.akismet.com/1.1/"

// ErrSpam is returned by CheckSpam when Akismet classifies the payload as spam.
var ErrSpam = errors.New("akismet: spam detected")

// Action selects one of the Akismet comment endpoints.
type Action int

const (
	CheckSpam Action = iota
	SubmitSpam
	SubmitHam
)

var actionEndpoints = map[Action]string{
	CheckSpam:  "comment-check",
	SubmitSpam: "submit-spam",
	SubmitHam:  "submit-ham",
}

func (a Action) String() string {
	if name, ok := actionEndpoints[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Payload describes the comment being classified. Empty optional fields are
// omitted from the request.
type Payload struct {
	UserIP             string
	UserAgent          string
	Referrer           string
	Permalink          string
	CommentType        string // "comment" | "reply"
	CommentAuthor      string
	CommentAuthorEmail string
	CommentAuthorURL   string
	CommentContent     string
}

func (p Payload) form(blog string) url.Values {
	v := url.Values{}
	v.Set("blog", blog)
	v.Set("user_ip", p.UserIP)
	v.Set("user_agent", p.UserAgent)
	v.Set("referrer", p.Referrer)
	optional := []struct{ key, value string }{
		{"permalink", p.Permalink},
		{"comment_type", p.CommentType},
		{"comment_author", p.CommentAuthor},
		{"comment_author_email", p.CommentAuthorEmail},
		{"comment_author_url", p.CommentAuthorURL},
		{"comment_content", p.CommentContent},
	}
	for _, f := range optional {
		if strings.TrimSpace(f.value) != "" {
			v.Set(f.key, f.value)
		}
	}
	return v
}

// Options configures a Client.
type Options struct {
	Key        string
	Blog       string
	Endpoint   string
	HTTPClient *http.Client
}

// Client talks to the Akismet REST API. Until VerifyKey succeeds every action
// resolves without contacting Akismet.
type Client struct {
	key        string
	blog       string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	valid      atomic.Bool
}

func New(opts Options, logger *zap.Logger) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		key:        strings.TrimSpace(opts.Key),
		blog:       strings.TrimSpace(opts.Blog),
		endpoint:   strings.TrimRight(endpoint, "/") + "/",
		httpClient: hc,
		logger:     logger.Named("akismet"),
	}
}

// Valid reports whether the key has been verified.
func (c *Client) Valid() bool { return c.valid.Load() }

// VerifyKey checks the configured key and enables the client on success.
func (c *Client) VerifyKey(ctx context.Context) error {
	if c.key == "" {
		c.valid.Store(false)
		return errors.New("akismet: key not configured")
	}
	form := url.Values{}
	form.Set("key", c.key)
	form.Set("blog", c.blog)
	body, err := c.post(ctx, c.endpoint+"verify-key", form)
	if err != nil {
		c.valid.Store(false)
		return err
	}
	if body != "valid" {
		c.valid.Store(false)
		return fmt.Errorf("akismet: invalid key (%s)", body)
	}
	c.valid.Store(true)
	return nil
}

// CheckSpam returns ErrSpam when the payload is spam.
func (c *Client) CheckSpam(ctx context.Context, p Payload) error {
	return c.Do(ctx, CheckSpam, p)
}

// SubmitSpam reports a missed spam.
func (c *Client) SubmitSpam(ctx context.Context, p Payload) error {
	return c.Do(ctx, SubmitSpam, p)
}

// SubmitHam reports a false positive.
func (c *Client) SubmitHam(ctx context.Context, p Payload) error {
	return c.Do(ctx, SubmitHam, p)
}

// Do runs action once; there is no retry.
func (c *Client) Do(ctx context.Context, action Action, p Payload) error {
	name, ok := actionEndpoints[action]
	if !ok {
		return fmt.Errorf("akismet: unknown action %d", int(action))
	}
	if !c.Valid() {
		c.logger.Warn("skipped, client not verified", zap.Stringer("action", action))
		return nil
	}

	c.logger.Info("request", zap.Stringer("action", action))
	body, err := c.post(ctx, c.commentEndpoint(name), p.form(c.blog))
	if err != nil {
		c.logger.Error("request failed", zap.Stringer("action", action), zap.Error(err))
		return fmt.Errorf("akismet %s: %w", name, err)
	}
	if action == CheckSpam {
		switch body {
		case "true":
			c.logger.Warn("spam detected", zap.String("ip", p.UserIP), zap.String("author", p.CommentAuthor))
			return ErrSpam
		case "false":
			return nil
		default:
			return fmt.Errorf("akismet %s: unexpected response %q", name, body)
		}
	}
	return nil
}

func (c *Client) commentEndpoint(name string) string {
	u, err := url.Parse(c.endpoint)
	if err != nil || u.Host != "rest.akismet.com" {
		return c.endpoint + name
	}
	u.Host = c.key + "." + u.Host
	return u.String() + name
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "NodePress/1.0 | Akismet/1.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if hint := resp.Header.Get("X-akismet-debug-help"); hint != "" {
		return "", fmt.Errorf("%s", hint)
	}
	return strings.TrimSpace(string(b)), nil
}
