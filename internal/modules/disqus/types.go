package disqus

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/modules/comment"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
)

// Extend keys linking a local comment to its Disqus post.
const (
	ExtendPostID         = comment.RemotePostKey
	ExtendThreadID       = "disqus-thread-id"
	ExtendAnonymous      = "disqus-anonymous"
	ExtendAuthorID       = "disqus-author-id"
	ExtendAuthorUsername = "disqus-author-username"
)

const (
	defaultThreadTTL = 24 * time.Hour
	oauthScope       = "read,write"
)

var (
	ErrRemoteLookupFailed  = errors.New("disqus thread lookup failed")
	ErrRemoteCreateFailed  = errors.New("disqus create failed")
	ErrRemoteDeleteFailed  = errors.New("disqus delete failed")
	ErrNotDeletable        = errors.New("comment is not deletable")
	ErrAuthorizationFailed = errors.New("disqus authorization failed")
	ErrForbidden           = errors.New("no write privileges on comment")
	// ErrApprovalFailed is logged, never returned to callers.
	ErrApprovalFailed = errors.New("disqus approval failed")
)

// API is the Disqus transport. *disqusapi.Client satisfies it.
type API interface {
	Request(ctx context.Context, resource string, params url.Values, usePublicKey bool) (*disqusapi.Response, error)
	GetAuthorizeURL(responseType, scope, redirectURI string) string
	GetOAuthAccessToken(ctx context.Context, code, redirectURI string) (*disqusapi.AccessToken, error)
	RefreshOAuthAccessToken(ctx context.Context, refreshToken string) (*disqusapi.AccessToken, error)
}

// CommentStore is the local side of the synchronization. *comment.Service
// satisfies it.
type CommentStore interface {
	NormalizeNewComment(dto comment.CreateCommentDTO, v comment.Visitor) *models.CommentModel
	IsCommentableTarget(ctx context.Context, postID int64) error
	IsNotBlocklisted(ctx context.Context, c *models.CommentModel) error
	CheckSpam(ctx context.Context, c *models.CommentModel, referer string) error
	GetDetailByNumberID(ctx context.Context, number int64) (*models.CommentModel, error)
	Create(ctx context.Context, c *models.CommentModel) (*models.CommentModel, error)
	Update(ctx context.Context, id string, patch comment.Patch) (*models.CommentModel, error)
}

// PostFinder resolves articles for thread creation.
type PostFinder interface {
	GetPost(ctx context.Context, postID int64) (*models.PostModel, error)
}

// Options carries the Disqus settings both services need.
type Options struct {
	Forum            string
	SiteURL          string
	CallbackURL      string
	AdminAccessToken string
	ThreadTTL        time.Duration
}

// CreatePostInput is one posts/create call. An empty AccessToken publishes
// as a guest using the public key.
type CreatePostInput struct {
	Comment     *models.CommentModel
	ThreadID    string
	ParentID    string
	AccessToken string
}

// ThreadListQuery pages through the forum's threads.
type ThreadListQuery struct {
	Cursor string
	Limit  int
}
