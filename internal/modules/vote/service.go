package vote

import (
	"context"
	"errors"
	"strconv"

	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/modules/comment"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DisqusVoter forwards votes of signed-in Disqus users. The Disqus module's
// Service satisfies it.
type DisqusVoter interface {
	GetDisqusPostIDByCommentID(ctx context.Context, number int64) (string, bool)
	VotePost(ctx context.Context, postID string, vote int, accessToken string) error
	EnsureThreadDetailCache(ctx context.Context, postID int64) (*disqusapi.Thread, error)
	VoteThread(ctx context.Context, threadID string, vote int, accessToken string) error
}

type Service struct {
	db     *gorm.DB
	disqus DisqusVoter
	logger *zap.Logger
}

func NewService(db *gorm.DB, disqus DisqusVoter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, disqus: disqus, logger: logger.Named("vote")}
}

// VoteComment counts a vote on a published comment. Votes by Disqus users on
// synchronized comments are mirrored to Disqus; mirroring failures are logged.
func (s *Service) VoteComment(ctx context.Context, dto CommentVoteDTO, voter Voter) (*Counts, error) {
	var c models.CommentModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "number = ? AND state = ?", dto.CommentID, models.CommentNormal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		column := "likes"
		if models.VoteType(dto.Vote) == models.VoteDownvote {
			column = "dislikes"
		}
		if err := tx.Model(&models.CommentModel{}).Where("id = ?", c.ID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error; err != nil {
			return err
		}
		record := newVote(models.VoteTargetComment, dto.CommentID, dto.Vote, dto.Author, voter)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.First(&c, "id = ?", c.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if token := accessToken(voter); token != "" && s.disqus != nil {
		if postID, ok := s.disqus.GetDisqusPostIDByCommentID(ctx, dto.CommentID); ok {
			if err := s.disqus.VotePost(ctx, postID, dto.Vote, token); err != nil {
				s.logger.Warn("disqus post vote not mirrored", zap.Int64("comment", dto.CommentID), zap.Error(err))
			}
		}
	}
	return &Counts{Likes: c.Likes, Dislikes: c.Dislikes}, nil
}

// LikePost counts a like on a published article and mirrors it to the
// article's Disqus thread for Disqus users.
func (s *Service) LikePost(ctx context.Context, dto PostVoteDTO, voter Voter) (*Counts, error) {
	var post models.PostModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "number = ? AND state = ?", dto.PostID, models.PostPublished).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		if err := tx.Model(&models.PostModel{}).Where("id = ?", post.ID).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error; err != nil {
			return err
		}
		record := newVote(models.VoteTargetPost, dto.PostID, dto.Vote, dto.Author, voter)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.First(&post, "id = ?", post.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if token := accessToken(voter); token != "" && s.disqus != nil {
		thread, err := s.disqus.EnsureThreadDetailCache(ctx, dto.PostID)
		if err == nil {
			err = s.disqus.VoteThread(ctx, thread.ID, dto.Vote, token)
		}
		if err != nil {
			s.logger.Warn("disqus thread vote not mirrored", zap.Int64("post", dto.PostID), zap.Error(err))
		}
	}
	return &Counts{Likes: post.Likes}, nil
}

// List pages through recorded votes, newest first.
func (s *Service) List(ctx context.Context, q ListQuery, page pagination.Query) ([]models.VoteModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.VoteModel{}).Order("created_at DESC")
	if q.TargetType != nil {
		tx = tx.Where("target_type = ?", *q.TargetType)
	}
	if q.TargetID != nil {
		tx = tx.Where("target_id = ?", *q.TargetID)
	}
	if q.VoteType != nil {
		tx = tx.Where("vote_type = ?", *q.VoteType)
	}
	if q.AuthorType != nil {
		tx = tx.Where("author_type = ?", *q.AuthorType)
	}
	var votes []models.VoteModel
	pag, err := pagination.Paginate(tx, page, &votes)
	return votes, pag, err
}

// Delete removes vote records. Counters on their targets are left as is.
func (s *Service) Delete(ctx context.Context, ids []string) (int64, error) {
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.VoteModel{})
	return res.RowsAffected, res.Error
}

func newVote(target models.VoteTarget, targetID int64, vote int, author *comment.AuthorDTO, voter Voter) models.VoteModel {
	v := models.VoteModel{
		TargetType: target,
		TargetID:   targetID,
		VoteType:   models.VoteType(vote),
		AuthorType: models.VoteAuthorAnonymous,
		IP:         voter.IP,
		Agent:      voter.Agent,
	}
	switch {
	case voter.Token != nil:
		v.AuthorType = models.VoteAuthorDisqus
		v.DisqusUserID = strconv.FormatInt(voter.Token.UserID, 10)
	case author != nil && author.Name != "":
		v.AuthorType = models.VoteAuthorGuest
	}
	if author != nil {
		v.Author = &models.CommentAuthor{Name: author.Name, Email: author.Email, Site: author.Site}
	}
	return v
}

func accessToken(v Voter) string {
	if v.Token == nil {
		return ""
	}
	return v.Token.AccessToken
}
