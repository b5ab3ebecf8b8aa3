package models

import "github.com/mx-space/nodepress/internal/pkg/extend"

// CommentState represents the lifecycle state of a comment.
type CommentState int

const (
	CommentAuditing CommentState = 0
	CommentNormal   CommentState = 1
	CommentDeleted  CommentState = -1
	CommentSpam     CommentState = -2
)

// Valid reports whether s is a known state.
func (s CommentState) Valid() bool {
	switch s {
	case CommentAuditing, CommentNormal, CommentDeleted, CommentSpam:
		return true
	}
	return false
}

// CommentAuthor is the visitor-supplied identity of a comment.
type CommentAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Site  string `json:"site,omitempty"`
}

// CommentModel is the local shadow record of a comment. Remote (Disqus)
// identifiers live in Extends.
type CommentModel struct {
	Base
	Number   int64         `json:"number"   gorm:"uniqueIndex;not null"`
	PostID   int64         `json:"post_id"  gorm:"index;not null"`
	PID      int64         `json:"pid"      gorm:"index;default:0"`
	Content  string        `json:"content"  gorm:"type:text;not null"`
	Author   CommentAuthor `json:"author"   gorm:"type:text;serializer:json"`
	State    CommentState  `json:"state"    gorm:"index"`
	IP       string        `json:"ip"`
	Agent    string        `json:"agent"    gorm:"type:varchar(512)"`
	Likes    int           `json:"likes"    gorm:"default:0"`
	Dislikes int           `json:"dislikes" gorm:"default:0"`
	Extends  extend.List   `json:"extends"  gorm:"type:text"`
}

func (CommentModel) TableName() string { return "comments" }
