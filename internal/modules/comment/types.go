package comment

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mx-space/nodepress/internal/models"
)

var (
	ErrNotCommentable = errors.New("comment target does not accept comments")
	ErrBlocklisted    = errors.New("comment matches the blocklist")
	ErrSpam           = errors.New("comment classified as spam")
	ErrNotFound       = errors.New("comment not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrStateLocked    = errors.New("deleted comments cannot change state")
	ErrRemoteManaged  = errors.New("synchronized comments are deleted through Disqus")
)

// RemotePostKey is the extend entry holding the Disqus post id of a
// synchronized comment.
const RemotePostKey = "disqus-post-id"

// Visitor is the request context a new comment is created from.
type Visitor struct {
	IP      string
	Agent   string
	Referer string
}

// AuthorDTO identifies a guest. Every field is optional; an empty author
// posts anonymously.
type AuthorDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Site  string `json:"site"`
}

func (a AuthorDTO) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Length(0, 80)),
		validation.Field(&a.Email, is.EmailFormat, validation.Length(0, 120)),
		validation.Field(&a.Site, is.URL, validation.Length(0, 200)),
	)
}

// CreateCommentDTO is a draft comment as submitted by a visitor.
type CreateCommentDTO struct {
	PostID  int64     `json:"post_id"`
	PID     int64     `json:"pid"`
	Content string    `json:"content"`
	Author  AuthorDTO `json:"author"`
	Agent   string    `json:"agent"`
}

func (d CreateCommentDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.PostID, validation.Required, validation.Min(int64(1))),
		validation.Field(&d.PID, validation.Min(int64(0))),
		validation.Field(&d.Content, validation.Required, validation.By(notBlank), validation.Length(1, 3000)),
		validation.Field(&d.Author),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

type UpdateStateDTO struct {
	State models.CommentState `json:"state"`
}

func (d UpdateStateDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.State, validation.In(
			models.CommentAuditing, models.CommentNormal, models.CommentDeleted, models.CommentSpam,
		)),
	)
}

// Patch lists the columns Update may change. Nil fields are left alone.
type Patch struct {
	State    *models.CommentState
	Content  *string
	Author   *models.CommentAuthor
	Likes    *int
	Dislikes *int
}

// ListQuery filters the admin comment listing.
type ListQuery struct {
	PostID  *int64
	State   *models.CommentState
	Keyword string
}
