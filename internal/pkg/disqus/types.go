package disqus

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Disqus API status codes, see https://disqus.com/api/docs/errors/.
const (
	CodeSuccess         = 0
	CodeInvalidArgument = 2
	CodeObjectNotFound  = 8
)

// Response is the envelope every Disqus API 3.0 endpoint returns.
type Response struct {
	Code     int             `json:"code"`
	Response json.RawMessage `json:"response"`
	Cursor   *Cursor         `json:"cursor,omitempty"`
}

// Cursor is the pagination marker on list endpoints.
type Cursor struct {
	Prev    *string `json:"prev"`
	HasNext bool    `json:"hasNext"`
	Next    *string `json:"next"`
	HasPrev bool    `json:"hasPrev"`
	More    bool    `json:"more"`
}

// Decode unmarshals the response payload into dest.
func (r *Response) Decode(dest interface{}) error {
	if len(r.Response) == 0 {
		return fmt.Errorf("disqus: empty response payload")
	}
	return json.Unmarshal(r.Response, dest)
}

// APIError is returned for non-zero response codes and non-2xx statuses.
type APIError struct {
	Resource string
	Status   int
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("disqus %s: status %d code %d: %s", e.Resource, e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a definitive "object not found" answer.
// threads/details reports an unknown link as an invalid argument, so that case
// is matched by message as well.
func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Code {
	case CodeObjectNotFound:
		return true
	case CodeInvalidArgument:
		return strings.Contains(strings.ToLower(apiErr.Message), "unable to find")
	}
	return false
}

// Thread is a Disqus thread, one per article.
type Thread struct {
	ID          string   `json:"id"`
	Forum       string   `json:"forum"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Identifiers []string `json:"identifiers"`
	Posts       int      `json:"posts"`
	Likes       int      `json:"likes"`
	Dislikes    int      `json:"dislikes"`
	IsClosed    bool     `json:"isClosed"`
	IsDeleted   bool     `json:"isDeleted"`
	CreatedAt   string   `json:"createdAt"`
}

// Author is the author block embedded in a Post.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Post is a Disqus post (a published comment).
type Post struct {
	ID         string  `json:"id"`
	Thread     string  `json:"thread"`
	Forum      string  `json:"forum"`
	Parent     *int64  `json:"parent"`
	Message    string  `json:"message"`
	RawMessage string  `json:"raw_message"`
	IsApproved bool    `json:"isApproved"`
	IsDeleted  bool    `json:"isDeleted"`
	IsSpam     bool    `json:"isSpam"`
	Likes      int     `json:"likes"`
	Dislikes   int     `json:"dislikes"`
	CreatedAt  string  `json:"createdAt"`
	Author     Author  `json:"author"`
	Points     float64 `json:"points"`
}

// User is the payload of users/details.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ProfileURL  string `json:"profileUrl"`
	IsAnonymous bool   `json:"isAnonymous"`
	Avatar      struct {
		Permalink string `json:"permalink"`
		Cache     string `json:"cache"`
	} `json:"avatar"`
}

// AccessToken is the OAuth 2.0 token grant.
type AccessToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	Username     string `json:"username"`
	UserID       int64  `json:"user_id"`
}
