package disqus

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/cache"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/pkg/extend"
)

// TokenCookie holds the visitor's encoded Disqus access token.
const TokenCookie = "_disqus"

func userInfoCacheKey(uid string) string {
	return cache.DisqusKey("userinfo-" + uid)
}

func threadCacheKey(postID int64) string {
	return cache.DisqusKey(fmt.Sprintf("thread-post-%d", postID))
}

// commentExtends is the extend list of a comment synchronized as post.
// Guests get ANONYMOUS, signed-in users their author id and username.
func commentExtends(base extend.List, post *disqusapi.Post, accessToken string) extend.List {
	pairs := []extend.KeyValue{
		{Name: ExtendPostID, Value: post.ID},
		{Name: ExtendThreadID, Value: post.Thread},
	}
	if post.Author.IsAnonymous || accessToken == "" {
		pairs = append(pairs, extend.KeyValue{Name: ExtendAnonymous, Value: "true"})
	} else {
		pairs = append(pairs,
			extend.KeyValue{Name: ExtendAuthorID, Value: post.Author.ID},
			extend.KeyValue{Name: ExtendAuthorUsername, Value: post.Author.Username},
		)
	}
	return extend.Append(base, pairs...)
}

// adoptRemoteAuthor prefers the name and url Disqus attached to the post.
func adoptRemoteAuthor(c *models.CommentModel, author disqusapi.Author) {
	if author.Name != "" {
		c.Author.Name = author.Name
	}
	if author.URL != "" {
		c.Author.Site = author.URL
	}
}

func encodeToken(token *disqusapi.AccessToken) (string, error) {
	b, err := json.Marshal(token)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeToken(raw string) (*disqusapi.AccessToken, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	var token disqusapi.AccessToken
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("empty access token")
	}
	return &token, nil
}

// TokenFromRequest returns the visitor's Disqus token, or nil for guests.
func TokenFromRequest(c *gin.Context) *disqusapi.AccessToken {
	raw, err := c.Cookie(TokenCookie)
	if err != nil || raw == "" {
		return nil
	}
	token, err := decodeToken(raw)
	if err != nil {
		return nil
	}
	return token
}

func accessTokenOf(token *disqusapi.AccessToken) string {
	if token == nil {
		return ""
	}
	return token.AccessToken
}
