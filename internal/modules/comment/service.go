package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mx-space/nodepress/internal/database"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/akismet"
	"github.com/mx-space/nodepress/internal/pkg/extend"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SpamChecker is the spam oracle. *akismet.Client satisfies it.
type SpamChecker interface {
	CheckSpam(ctx context.Context, p akismet.Payload) error
	SubmitSpam(ctx context.Context, p akismet.Payload) error
	SubmitHam(ctx context.Context, p akismet.Payload) error
}

// Service is the local comment store.
type Service struct {
	db      *gorm.DB
	spam    SpamChecker
	siteURL string
	logger  *zap.Logger
}

// NewService wires the store. spam may be nil, in which case no spam check runs.
func NewService(db *gorm.DB, spam SpamChecker, siteURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, spam: spam, siteURL: siteURL, logger: logger.Named("comment")}
}

// NormalizeNewComment turns a draft into a Normal comment owned by visitor.
// The result carries an empty extend list and no number yet.
func (s *Service) NormalizeNewComment(dto CreateCommentDTO, v Visitor) *models.CommentModel {
	agent := strings.TrimSpace(v.Agent)
	if agent == "" {
		agent = strings.TrimSpace(dto.Agent)
	}
	return &models.CommentModel{
		PostID:  dto.PostID,
		PID:     dto.PID,
		Content: strings.TrimSpace(dto.Content),
		Author: models.CommentAuthor{
			Name:  strings.TrimSpace(dto.Author.Name),
			Email: strings.ToLower(strings.TrimSpace(dto.Author.Email)),
			Site:  normalizeSite(dto.Author.Site),
		},
		State:   models.CommentNormal,
		IP:      strings.TrimSpace(v.IP),
		Agent:   agent,
		Extends: extend.List{},
	}
}

// GetPost loads an article by its public number.
func (s *Service) GetPost(ctx context.Context, postID int64) (*models.PostModel, error) {
	var post models.PostModel
	if err := s.db.WithContext(ctx).First(&post, "number = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// IsCommentableTarget fails with ErrNotCommentable unless the article exists,
// is published and comments are enabled both on it and site-wide.
func (s *Service) IsCommentableTarget(ctx context.Context, postID int64) error {
	post, err := s.GetPost(ctx, postID)
	if errors.Is(err, ErrPostNotFound) {
		return fmt.Errorf("%w: post %d does not exist", ErrNotCommentable, postID)
	}
	if err != nil {
		return err
	}
	if post.State != models.PostPublished {
		return fmt.Errorf("%w: post %d is not published", ErrNotCommentable, postID)
	}
	if post.DisabledComments {
		return fmt.Errorf("%w: comments closed on post %d", ErrNotCommentable, postID)
	}

	opt, err := s.siteOption(ctx)
	if err != nil {
		return err
	}
	if opt.DisabledComments {
		return fmt.Errorf("%w: comments closed site-wide", ErrNotCommentable)
	}
	return nil
}

// IsNotBlocklisted fails with ErrBlocklisted when the IP, email or content
// matches the site blocklist.
func (s *Service) IsNotBlocklisted(ctx context.Context, c *models.CommentModel) error {
	opt, err := s.siteOption(ctx)
	if err != nil {
		return err
	}
	switch {
	case matchesAny(c.IP, opt.BlocklistIPs, false):
		return fmt.Errorf("%w: ip %s", ErrBlocklisted, c.IP)
	case matchesAny(c.Author.Email, opt.BlocklistMails, true):
		return fmt.Errorf("%w: email %s", ErrBlocklisted, c.Author.Email)
	case containsKeyword(c.Content, opt.BlocklistWords):
		return fmt.Errorf("%w: content keyword", ErrBlocklisted)
	}
	return nil
}

// CheckSpam asks the spam oracle about c. A spam verdict is ErrSpam; oracle
// failures are returned as is.
func (s *Service) CheckSpam(ctx context.Context, c *models.CommentModel, referer string) error {
	if s.spam == nil {
		return nil
	}
	err := s.spam.CheckSpam(ctx, spamPayload(c, s.siteURL, referer))
	if errors.Is(err, akismet.ErrSpam) {
		return fmt.Errorf("%w: %w", ErrSpam, err)
	}
	return err
}

// GetDetailByNumberID loads a comment by its public number.
func (s *Service) GetDetailByNumberID(ctx context.Context, number int64) (*models.CommentModel, error) {
	var c models.CommentModel
	if err := s.db.WithContext(ctx).First(&c, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrNotFound, number)
		}
		return nil, err
	}
	return &c, nil
}

// Create assigns the next public number, stores c and refreshes the article's
// comment counter. A number claimed concurrently is recomputed and the insert
// replayed.
func (s *Service) Create(ctx context.Context, c *models.CommentModel) (*models.CommentModel, error) {
	err := database.RetryOnDuplicate(database.NumberAttempts, func(attempt int) error {
		if attempt > 1 {
			s.logger.Warn("comment number taken, retrying", zap.Int64("number", c.Number), zap.Int("attempt", attempt))
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var last int64
			if err := tx.Unscoped().Model(&models.CommentModel{}).
				Select("COALESCE(MAX(number), 0)").Scan(&last).Error; err != nil {
				return err
			}
			c.Number = last + 1
			if err := tx.Create(c).Error; err != nil {
				return err
			}
			return syncPostComments(tx, c.PostID)
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("comment created", zap.Int64("number", c.Number), zap.Int64("post", c.PostID))
	return c, nil
}

// Update applies patch to the comment with the given row id.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*models.CommentModel, error) {
	var c models.CommentModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var columns []string
		if patch.State != nil {
			c.State = *patch.State
			columns = append(columns, "state")
		}
		if patch.Content != nil {
			c.Content = *patch.Content
			columns = append(columns, "content")
		}
		if patch.Author != nil {
			c.Author = *patch.Author
			columns = append(columns, "author")
		}
		if patch.Likes != nil {
			c.Likes = *patch.Likes
			columns = append(columns, "likes")
		}
		if patch.Dislikes != nil {
			c.Dislikes = *patch.Dislikes
			columns = append(columns, "dislikes")
		}
		if len(columns) == 0 {
			return nil
		}
		if err := tx.Model(&c).Select(columns).Updates(&c).Error; err != nil {
			return err
		}
		if patch.State != nil {
			return syncPostComments(tx, c.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Paginate lists comments newest first.
func (s *Service) Paginate(ctx context.Context, q ListQuery, page pagination.Query) ([]models.CommentModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.CommentModel{}).Order("number DESC")
	if q.PostID != nil {
		tx = tx.Where("post_id = ?", *q.PostID)
	}
	if q.State != nil {
		tx = tx.Where("state = ?", *q.State)
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		like := "%" + kw + "%"
		tx = tx.Where("content LIKE ? OR author LIKE ?", like, like)
	}

	var comments []models.CommentModel
	pag, err := pagination.Paginate(tx, page, &comments)
	return comments, pag, err
}

// UpdateState moves a comment between moderation states. Moving into Spam
// reports it to the oracle as spam, moving out of Spam reports it as ham.
// Deleted is terminal, and synchronized comments only reach it through a
// remote deletion.
func (s *Service) UpdateState(ctx context.Context, number int64, state models.CommentState) (*models.CommentModel, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("invalid comment state %d", state)
	}
	current, err := s.GetDetailByNumberID(ctx, number)
	if err != nil {
		return nil, err
	}
	if current.State == state {
		return current, nil
	}
	if current.State == models.CommentDeleted {
		return nil, ErrStateLocked
	}
	if state == models.CommentDeleted {
		if postID, ok := extend.Get(current.Extends, RemotePostKey); ok && postID != "" {
			return nil, fmt.Errorf("%w: #%d", ErrRemoteManaged, number)
		}
	}

	previous := current.State
	updated, err := s.Update(ctx, current.ID, Patch{State: &state})
	if err != nil {
		return nil, err
	}
	s.feedbackSpam(ctx, updated, previous)
	return updated, nil
}

func (s *Service) feedbackSpam(ctx context.Context, c *models.CommentModel, previous models.CommentState) {
	if s.spam == nil {
		return
	}
	payload := spamPayload(c, s.siteURL, "")
	var err error
	switch {
	case c.State == models.CommentSpam:
		err = s.spam.SubmitSpam(ctx, payload)
	case previous == models.CommentSpam:
		err = s.spam.SubmitHam(ctx, payload)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("spam feedback failed", zap.Int64("number", c.Number), zap.Error(err))
	}
}

func (s *Service) siteOption(ctx context.Context) (*models.OptionModel, error) {
	var opt models.OptionModel
	err := s.db.WithContext(ctx).First(&opt, "name = ?", models.SiteOptionName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.OptionModel{Name: models.SiteOptionName}, nil
	}
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func syncPostComments(tx *gorm.DB, postID int64) error {
	var count int64
	if err := tx.Model(&models.CommentModel{}).
		Where("post_id = ? AND state = ?", postID, models.CommentNormal).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.PostModel{}).Where("number = ?", postID).
		UpdateColumn("comments", count).Error
}
