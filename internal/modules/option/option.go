// Package option manages the site-wide comment options: the global comment
// switch and the IP, email and keyword blocklists.
package option

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PatchDTO carries a partial options update. A non-nil list replaces the
// stored one as a whole; send [] to clear it.
type PatchDTO struct {
	DisabledComments *bool    `json:"disabled_comments"`
	BlocklistIPs     []string `json:"blocklist_ips"`
	BlocklistMails   []string `json:"blocklist_mails"`
	BlocklistWords   []string `json:"blocklist_words"`
}

func (d PatchDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.BlocklistIPs, validation.Each(validation.Required)),
		validation.Field(&d.BlocklistMails, validation.Each(validation.Required)),
		validation.Field(&d.BlocklistWords, validation.Each(validation.Required)),
	)
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns the stored options, or defaults when none were saved yet.
func (s *Service) Get(ctx context.Context) (*models.OptionModel, error) {
	var opt models.OptionModel
	err := s.db.WithContext(ctx).First(&opt, "name = ?", models.SiteOptionName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.OptionModel{
			Name:           models.SiteOptionName,
			BlocklistIPs:   models.StringArray{},
			BlocklistMails: models.StringArray{},
			BlocklistWords: models.StringArray{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

// Patch merges dto into the stored options and upserts the row.
func (s *Service) Patch(ctx context.Context, dto PatchDTO) (*models.OptionModel, error) {
	opt, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if dto.DisabledComments != nil {
		opt.DisabledComments = *dto.DisabledComments
	}
	if dto.BlocklistIPs != nil {
		opt.BlocklistIPs = models.StringArray(dto.BlocklistIPs)
	}
	if dto.BlocklistMails != nil {
		opt.BlocklistMails = models.StringArray(dto.BlocklistMails)
	}
	if dto.BlocklistWords != nil {
		opt.BlocklistWords = models.StringArray(dto.BlocklistWords)
	}

	row := models.OptionModel{
		Name:             models.SiteOptionName,
		DisabledComments: opt.DisabledComments,
		BlocklistIPs:     opt.BlocklistIPs,
		BlocklistMails:   opt.BlocklistMails,
		BlocklistWords:   opt.BlocklistWords,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"disabled_comments", "blocklist_ips", "blocklist_mails", "blocklist_words"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/options", authMW)
	g.GET("", h.get)
	g.PATCH("", h.patch)
}

func (h *Handler) get(c *gin.Context) {
	opt, err := h.svc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, opt)
}

func (h *Handler) patch(c *gin.Context) {
	var dto PatchDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	opt, err := h.svc.Patch(c.Request.Context(), dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, opt)
}
