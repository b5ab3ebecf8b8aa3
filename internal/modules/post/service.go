package post

import (
	"context"
	"errors"

	"github.com/mx-space/nodepress/internal/database"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"gorm.io/gorm"
)

// Service handles article records the comment subsystem attaches to.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns a paginated list of posts, newest number first.
func (s *Service) List(ctx context.Context, q pagination.Query, lq ListQuery) ([]models.PostModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.PostModel{}).Order("number DESC")
	if lq.State != nil {
		tx = tx.Where("state = ?", *lq.State)
	}
	var posts []models.PostModel
	pag, err := pagination.Paginate(tx, q, &posts)
	return posts, pag, err
}

// GetByNumber fetches a post by its public number. Visitors only see
// published posts.
func (s *Service) GetByNumber(ctx context.Context, number int64, isAdmin bool) (*models.PostModel, error) {
	var post models.PostModel
	tx := s.db.WithContext(ctx).Where("number = ?", number)
	if !isAdmin {
		tx = tx.Where("state = ?", models.PostPublished)
	}
	if err := tx.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create inserts a post with the next free number, replaying the insert when
// a concurrent writer claims that number first.
func (s *Service) Create(ctx context.Context, dto CreatePostDTO) (*models.PostModel, error) {
	post := models.PostModel{
		Title:            dto.Title,
		Slug:             dto.Slug,
		State:            models.PostPublished,
		DisabledComments: dto.DisabledComments,
	}
	if dto.State != nil {
		post.State = *dto.State
	}
	err := database.RetryOnDuplicate(database.NumberAttempts, func(int) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ensureSlugFree(tx, dto.Slug, ""); err != nil {
				return err
			}
			var max int64
			if err := tx.Unscoped().Model(&models.PostModel{}).Select("COALESCE(MAX(number), 0)").Scan(&max).Error; err != nil {
				return err
			}
			post.Number = max + 1
			return tx.Create(&post).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update patches a post by number.
func (s *Service) Update(ctx context.Context, number int64, dto UpdatePostDTO) (*models.PostModel, error) {
	post, err := s.GetByNumber(ctx, number, true)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Slug != nil && *dto.Slug != post.Slug {
		if err := ensureSlugFree(s.db.WithContext(ctx), *dto.Slug, post.ID); err != nil {
			return nil, err
		}
		updates["slug"] = *dto.Slug
	}
	if dto.State != nil {
		updates["state"] = *dto.State
	}
	if dto.DisabledComments != nil {
		updates["disabled_comments"] = *dto.DisabledComments
	}
	if len(updates) == 0 {
		return post, nil
	}
	if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByNumber(ctx, number, true)
}

func ensureSlugFree(tx *gorm.DB, slug, exceptID string) error {
	q := tx.Model(&models.PostModel{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}
