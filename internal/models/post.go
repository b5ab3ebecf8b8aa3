package models

// PostState is the publish state of an article.
type PostState int

const (
	PostDraft     PostState = 0
	PostPublished PostState = 1
	PostRecycle   PostState = -1
)

// PostModel is a blog article. Only the fields the comment subsystem reads are
// modelled here; Number is the public numeric id used in permalinks.
type PostModel struct {
	Base
	Number           int64     `json:"id"                gorm:"uniqueIndex;not null"`
	Slug             string    `json:"slug"              gorm:"index"`
	Title            string    `json:"title"             gorm:"not null"`
	State            PostState `json:"state"             gorm:"index"`
	DisabledComments bool      `json:"disabled_comments" gorm:"default:false"`
	Comments         int       `json:"comments"          gorm:"default:0"`
	Likes            int       `json:"likes"             gorm:"default:0"`
}

func (PostModel) TableName() string { return "posts" }
