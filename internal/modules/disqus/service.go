package disqus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/modules/comment"
	"github.com/mx-space/nodepress/internal/pkg/cache"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/pkg/extend"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service keeps local comments and their Disqus posts in step.
type Service struct {
	api      API
	private  *PrivateService
	comments CommentStore
	cache    cache.Cache
	opts     Options
	logger   *zap.Logger
	threads  singleflight.Group
}

func NewService(api API, private *PrivateService, comments CommentStore, c cache.Cache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ThreadTTL <= 0 {
		opts.ThreadTTL = defaultThreadTTL
	}
	return &Service{
		api:      api,
		private:  private,
		comments: comments,
		cache:    c,
		opts:     opts,
		logger:   logger.Named("disqus"),
	}
}

func (s *Service) SetUserInfoCache(ctx context.Context, uid string, info *disqusapi.User, ttl time.Duration) error {
	return s.cache.Set(ctx, userInfoCacheKey(uid), info, ttl)
}

// GetUserInfoCache returns nil on a miss.
func (s *Service) GetUserInfoCache(ctx context.Context, uid string) (*disqusapi.User, error) {
	var info disqusapi.User
	ok, err := s.cache.Get(ctx, userInfoCacheKey(uid), &info)
	if err != nil || !ok {
		return nil, err
	}
	return &info, nil
}

func (s *Service) DeleteUserInfoCache(ctx context.Context, uid string) error {
	return s.cache.Delete(ctx, userInfoCacheKey(uid))
}

// GetAuthorizeURL is where visitors are sent to sign in with Disqus.
func (s *Service) GetAuthorizeURL() string {
	return s.api.GetAuthorizeURL("code", oauthScope, s.opts.CallbackURL)
}

func (s *Service) GetAccessToken(ctx context.Context, code string) (*disqusapi.AccessToken, error) {
	token, err := s.api.GetOAuthAccessToken(ctx, code, s.opts.CallbackURL)
	if err != nil {
		s.logger.Warn("getAccessToken failed", zap.Error(err))
		return nil, err
	}
	return token, nil
}

func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*disqusapi.AccessToken, error) {
	token, err := s.api.RefreshOAuthAccessToken(ctx, refreshToken)
	if err != nil {
		s.logger.Warn("refreshAccessToken failed", zap.Error(err))
		return nil, err
	}
	return token, nil
}

// GetUserInfo resolves the user an access token belongs to.
func (s *Service) GetUserInfo(ctx context.Context, accessToken string) (*disqusapi.User, error) {
	if accessToken == "" {
		return nil, errors.New("access token required")
	}
	resp, err := s.api.Request(ctx, "users/details", url.Values{"access_token": {accessToken}}, false)
	if err != nil {
		s.logger.Warn("getUserInfo failed", zap.Error(err))
		return nil, err
	}
	var user disqusapi.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// EnsureThreadDetail looks up the article's thread by permalink and creates
// it when Disqus definitively reports it missing. Any other lookup failure is
// returned without attempting creation.
func (s *Service) EnsureThreadDetail(ctx context.Context, postID int64) (*disqusapi.Thread, error) {
	params := url.Values{}
	params.Set("forum", s.opts.Forum)
	params.Set("thread", "link:"+comment.Permalink(s.opts.SiteURL, postID))

	resp, err := s.api.Request(ctx, "threads/details", params, false)
	if err == nil {
		var thread disqusapi.Thread
		if err := resp.Decode(&thread); err != nil {
			return nil, fmt.Errorf("%w: decode thread: %w", ErrRemoteLookupFailed, err)
		}
		return &thread, nil
	}
	if !disqusapi.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %w", ErrRemoteLookupFailed, err)
	}

	s.logger.Info("thread missing, creating", zap.Int64("post", postID))
	thread, err := s.private.CreateThread(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%w: thread for post %d: %w", ErrRemoteCreateFailed, postID, err)
	}
	return thread, nil
}

// EnsureThreadDetailCache is EnsureThreadDetail behind the thread cache.
// Concurrent misses for one post share a single resolution.
func (s *Service) EnsureThreadDetailCache(ctx context.Context, postID int64) (*disqusapi.Thread, error) {
	key := threadCacheKey(postID)

	var cached disqusapi.Thread
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("thread cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	// the shared resolution outlives any single caller
	shared := context.WithoutCancel(ctx)
	ch := s.threads.DoChan(key, func() (interface{}, error) {
		thread, err := s.EnsureThreadDetail(shared, postID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, thread, s.opts.ThreadTTL); err != nil {
			s.logger.Warn("thread cache write failed", zap.String("key", key), zap.Error(err))
		}
		return thread, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*disqusapi.Thread), nil
	}
}

// VoteThread votes on a thread as the token's user.
func (s *Service) VoteThread(ctx context.Context, threadID string, vote int, accessToken string) error {
	params := url.Values{}
	params.Set("thread", threadID)
	params.Set("vote", strconv.Itoa(vote))
	params.Set("access_token", accessToken)
	if _, err := s.api.Request(ctx, "threads/vote", params, true); err != nil {
		s.logger.Warn("voteThread failed", zap.String("thread", threadID), zap.Error(err))
		return err
	}
	return nil
}

// VotePost votes on a post as the token's user.
func (s *Service) VotePost(ctx context.Context, postID string, vote int, accessToken string) error {
	params := url.Values{}
	params.Set("post", postID)
	params.Set("vote", strconv.Itoa(vote))
	params.Set("access_token", accessToken)
	if _, err := s.api.Request(ctx, "posts/vote", params, false); err != nil {
		s.logger.Warn("votePost failed", zap.String("post", postID), zap.Error(err))
		return err
	}
	return nil
}

// GetDisqusPostIDByCommentID returns the Disqus post id of a synchronized
// comment. Unknown or unsynchronized comments report false.
func (s *Service) GetDisqusPostIDByCommentID(ctx context.Context, number int64) (string, bool) {
	c, err := s.comments.GetDetailByNumberID(ctx, number)
	if err != nil {
		return "", false
	}
	postID, ok := extend.Get(c.Extends, ExtendPostID)
	return postID, ok && postID != ""
}

// CreateDisqusComment publishes one comment to Disqus.
func (s *Service) CreateDisqusComment(ctx context.Context, in CreatePostInput) (*disqusapi.Post, error) {
	params := url.Values{}
	params.Set("message", in.Comment.Content)
	params.Set("thread", in.ThreadID)
	if in.ParentID != "" {
		params.Set("parent", in.ParentID)
	}
	guest := in.AccessToken == ""
	if guest {
		setIfNotEmpty(params, "author_name", in.Comment.Author.Name)
		setIfNotEmpty(params, "author_email", in.Comment.Author.Email)
		setIfNotEmpty(params, "author_url", in.Comment.Author.Site)
	} else {
		params.Set("access_token", in.AccessToken)
	}

	// guest posts must be signed with the public key
	resp, err := s.api.Request(ctx, "posts/create", params, guest)
	if err != nil {
		s.logger.Warn("createDisqusComment failed", zap.String("thread", in.ThreadID), zap.Error(err))
		return nil, err
	}
	var post disqusapi.Post
	if err := resp.Decode(&post); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return &post, nil
}

// CreateUniversalComment publishes a draft to Disqus and records the local
// comment. Stages run in order and the first failure aborts the rest.
func (s *Service) CreateUniversalComment(ctx context.Context, dto comment.CreateCommentDTO, visitor comment.Visitor, accessToken string) (*models.CommentModel, error) {
	c := s.comments.NormalizeNewComment(dto, visitor)

	if err := s.comments.IsCommentableTarget(ctx, c.PostID); err != nil {
		return nil, s.stageError("commentable", err)
	}
	thread, err := s.EnsureThreadDetailCache(ctx, c.PostID)
	if err != nil {
		return nil, s.stageError("thread", err)
	}
	if err := s.comments.IsNotBlocklisted(ctx, c); err != nil {
		return nil, s.stageError("blocklist", err)
	}
	if err := s.comments.CheckSpam(ctx, c, visitor.Referer); err != nil {
		return nil, s.stageError("spam", err)
	}

	// a parent that never reached Disqus is posted as a top-level reply
	var parentID string
	if c.PID != 0 {
		parentID, _ = s.GetDisqusPostIDByCommentID(ctx, c.PID)
	}

	post, err := s.CreateDisqusComment(ctx, CreatePostInput{
		Comment:     c,
		ThreadID:    thread.ID,
		ParentID:    parentID,
		AccessToken: accessToken,
	})
	if err != nil {
		return nil, s.stageError("remote post", fmt.Errorf("%w: %w", ErrRemoteCreateFailed, err))
	}

	if post.Author.IsAnonymous && !post.IsApproved {
		if err := s.private.ApprovePost(ctx, post.ID); err != nil {
			s.logger.Warn("guest post left in moderation",
				zap.String("stage", "approve"),
				zap.String("post", post.ID),
				zap.Error(fmt.Errorf("%w: %w", ErrApprovalFailed, err)),
			)
		}
	}

	adoptRemoteAuthor(c, post.Author)
	c.Extends = commentExtends(c.Extends, post, accessToken)

	created, err := s.comments.Create(ctx, c)
	if err != nil {
		return nil, s.stageError("persist", err)
	}
	return created, nil
}

// DeleteDisqusComment removes a post as the token's user.
func (s *Service) DeleteDisqusComment(ctx context.Context, postID, accessToken string) error {
	params := url.Values{}
	params.Set("post", postID)
	params.Set("access_token", accessToken)
	if _, err := s.api.Request(ctx, "posts/remove", params, false); err != nil {
		s.logger.Warn("deleteDisqusComment failed", zap.String("post", postID), zap.Error(err))
		return err
	}
	return nil
}

// DeleteUniversalComment lets a Disqus user delete their own comment. The
// local record is soft-deleted only after Disqus accepted the removal.
func (s *Service) DeleteUniversalComment(ctx context.Context, number int64, accessToken string) (*models.CommentModel, error) {
	c, err := s.comments.GetDetailByNumberID(ctx, number)
	if err != nil {
		return nil, s.stageError("fetch", err)
	}

	postID, hasPost := extend.Get(c.Extends, ExtendPostID)
	authorID, hasAuthor := extend.Get(c.Extends, ExtendAuthorID)
	if !hasPost || !hasAuthor || postID == "" || authorID == "" {
		return nil, s.stageError("extends", fmt.Errorf("%w: #%d", ErrNotDeletable, number))
	}

	user, err := s.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, s.stageError("authorize", fmt.Errorf("%w: %w", ErrAuthorizationFailed, err))
	}
	if user.ID != authorID {
		return nil, s.stageError("authorize", fmt.Errorf("%w #%d", ErrForbidden, number))
	}

	if err := s.DeleteDisqusComment(ctx, postID, accessToken); err != nil {
		return nil, s.stageError("remote delete", fmt.Errorf("%w: %w", ErrRemoteDeleteFailed, err))
	}

	deleted := models.CommentDeleted
	updated, err := s.comments.Update(ctx, c.ID, comment.Patch{State: &deleted})
	if err != nil {
		return nil, s.stageError("persist", err)
	}
	return updated, nil
}

func (s *Service) stageError(stage string, err error) error {
	s.logger.Warn("comment sync aborted", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%s: %w", stage, err)
}

func setIfNotEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
