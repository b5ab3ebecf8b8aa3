package disqus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mx-space/nodepress/internal/modules/comment"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"go.uber.org/zap"
)

// PrivateService issues forum-moderator calls signed with the admin access
// token.
type PrivateService struct {
	api    API
	posts  PostFinder
	opts   Options
	logger *zap.Logger
}

func NewPrivateService(api API, posts PostFinder, opts Options, logger *zap.Logger) *PrivateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrivateService{api: api, posts: posts, opts: opts, logger: logger.Named("disqus.private")}
}

// CreateThread creates the thread for an article, keyed by its permalink.
func (p *PrivateService) CreateThread(ctx context.Context, postID int64) (*disqusapi.Thread, error) {
	post, err := p.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("forum", p.opts.Forum)
	params.Set("identifier", strconv.FormatInt(postID, 10))
	params.Set("title", post.Title)
	params.Set("url", comment.Permalink(p.opts.SiteURL, postID))
	params.Set("access_token", p.opts.AdminAccessToken)
	if post.Slug != "" {
		params.Set("slug", post.Slug)
	}

	resp, err := p.api.Request(ctx, "threads/create", params, false)
	if err != nil {
		p.logger.Warn("createThread failed", zap.Int64("post", postID), zap.Error(err))
		return nil, err
	}
	var thread disqusapi.Thread
	if err := resp.Decode(&thread); err != nil {
		return nil, fmt.Errorf("decode thread: %w", err)
	}
	p.logger.Info("thread created", zap.Int64("post", postID), zap.String("thread", thread.ID))
	return &thread, nil
}

// ApprovePost approves a premoderated post, bypassing new-user premoderation.
func (p *PrivateService) ApprovePost(ctx context.Context, postID string) error {
	params := url.Values{}
	params.Set("post", postID)
	params.Set("newUserPremodBypass", "1")
	params.Set("access_token", p.opts.AdminAccessToken)
	_, err := p.api.Request(ctx, "posts/approve", params, false)
	return err
}

// GetThreads lists the forum's threads, newest first.
func (p *PrivateService) GetThreads(ctx context.Context, q ThreadListQuery) ([]disqusapi.Thread, *disqusapi.Cursor, error) {
	params := url.Values{}
	params.Set("forum", p.opts.Forum)
	params.Set("access_token", p.opts.AdminAccessToken)
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	resp, err := p.api.Request(ctx, "threads/list", params, false)
	if err != nil {
		p.logger.Warn("getThreads failed", zap.Error(err))
		return nil, nil, err
	}
	var threads []disqusapi.Thread
	if err := resp.Decode(&threads); err != nil {
		return nil, nil, fmt.Errorf("decode threads: %w", err)
	}
	return threads, resp.Cursor, nil
}
