package post

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mx-space/nodepress/internal/models"
)

var (
	ErrNotFound   = errors.New("post not found")
	ErrSlugExists = errors.New("slug already exists")
)

var validStates = []interface{}{models.PostDraft, models.PostPublished, models.PostRecycle}

type CreatePostDTO struct {
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	State            *models.PostState `json:"state"`
	DisabledComments bool              `json:"disabled_comments"`
}

func (d CreatePostDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Slug, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.State, validation.In(validStates...)),
	)
}

type UpdatePostDTO struct {
	Title            *string           `json:"title"`
	Slug             *string           `json:"slug"`
	State            *models.PostState `json:"state"`
	DisabledComments *bool             `json:"disabled_comments"`
}

func (d UpdatePostDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&d.Slug, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&d.State, validation.In(validStates...)),
	)
}

type ListQuery struct {
	State *models.PostState
}
