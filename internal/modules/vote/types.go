package vote

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/modules/comment"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
)

var ErrTargetNotFound = errors.New("vote target not found")

type CommentVoteDTO struct {
	CommentID int64              `json:"comment_id"`
	Vote      int                `json:"vote"`
	Author    *comment.AuthorDTO `json:"author"`
}

func (d CommentVoteDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.CommentID, validation.Required, validation.Min(int64(1))),
		validation.Field(&d.Vote, validation.Required, validation.In(int(models.VoteUpvote), int(models.VoteDownvote))),
		validation.Field(&d.Author),
	)
}

// PostVoteDTO is a like on an article; articles take upvotes only.
type PostVoteDTO struct {
	PostID int64              `json:"post_id"`
	Vote   int                `json:"vote"`
	Author *comment.AuthorDTO `json:"author"`
}

func (d PostVoteDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.PostID, validation.Required, validation.Min(int64(1))),
		validation.Field(&d.Vote, validation.Required, validation.In(int(models.VoteUpvote))),
		validation.Field(&d.Author),
	)
}

type DeleteVotesDTO struct {
	VoteIDs []string `json:"vote_ids"`
}

func (d DeleteVotesDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.VoteIDs, validation.Required, validation.Each(validation.Required)),
	)
}

// Voter identifies who is voting. Token is set for Disqus users.
type Voter struct {
	IP    string
	Agent string
	Token *disqusapi.AccessToken
}

// Counts are the totals after a vote.
type Counts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes,omitempty"`
}

type ListQuery struct {
	TargetType *models.VoteTarget
	TargetID   *int64
	VoteType   *models.VoteType
	AuthorType *models.VoteAuthorType
}
