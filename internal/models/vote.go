package models

// VoteTarget is what a vote is cast on.
type VoteTarget int

const (
	VoteTargetPost    VoteTarget = 1
	VoteTargetComment VoteTarget = 2
)

// VoteType is the direction of a vote.
type VoteType int

const (
	VoteUpvote   VoteType = 1
	VoteDownvote VoteType = -1
)

// VoteAuthorType records how the voter identified themselves.
type VoteAuthorType int

const (
	VoteAuthorAnonymous VoteAuthorType = 0
	VoteAuthorGuest     VoteAuthorType = 1
	VoteAuthorDisqus    VoteAuthorType = 2
)

// VoteModel is a locally recorded vote on a post or comment.
type VoteModel struct {
	Base
	TargetType VoteTarget     `json:"target_type" gorm:"index;not null"`
	TargetID   int64          `json:"target_id"   gorm:"index;not null"`
	VoteType   VoteType       `json:"vote_type"   gorm:"not null"`
	AuthorType VoteAuthorType `json:"author_type" gorm:"index"`
	Author     *CommentAuthor `json:"author"      gorm:"type:text;serializer:json"`

	// DisqusUserID is set when the voter was signed in with Disqus.
	DisqusUserID string `json:"disqus_user_id,omitempty" gorm:"index"`
	IP           string `json:"ip"`
	Agent        string `json:"agent" gorm:"type:varchar(512)"`
}

func (VoteModel) TableName() string { return "votes" }
