package comment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/akismet"
)

// Permalink is the public URL of an article, as Disqus threads are keyed by it.
func Permalink(siteURL string, postID int64) string {
	return fmt.Sprintf("%s/article/%d", strings.TrimRight(siteURL, "/"), postID)
}

func normalizeSite(raw string) string {
	site := strings.TrimSpace(raw)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	return site
}

// matchesAny reports whether value equals, or matches as a regular expression,
// one of the patterns.
func matchesAny(value string, patterns []string, foldCase bool) bool {
	if value == "" {
		return false
	}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if pattern == value || (foldCase && strings.EqualFold(pattern, value)) {
			return true
		}
		expr := pattern
		if foldCase {
			expr = "(?i)" + pattern
		}
		if re, err := regexp.Compile(expr); err == nil && re.MatchString(value) {
			return true
		}
	}
	return false
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
		if re, err := regexp.Compile("(?i)" + kw); err == nil && re.MatchString(text) {
			return true
		}
	}
	return false
}

func spamPayload(c *models.CommentModel, siteURL, referer string) akismet.Payload {
	commentType := "comment"
	if c.PID != 0 {
		commentType = "reply"
	}
	return akismet.Payload{
		UserIP:             c.IP,
		UserAgent:          c.Agent,
		Referrer:           referer,
		Permalink:          Permalink(siteURL, c.PostID),
		CommentType:        commentType,
		CommentAuthor:      c.Author.Name,
		CommentAuthorEmail: c.Author.Email,
		CommentAuthorURL:   c.Author.Site,
		CommentContent:     c.Content,
	}
}
