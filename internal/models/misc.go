package models

// OptionModel is the single row of site options the comment subsystem reads.
type OptionModel struct {
	ID               uint        `json:"-"                 gorm:"primaryKey;autoIncrement"`
	Name             string      `json:"name"              gorm:"uniqueIndex;not null"`
	DisabledComments bool        `json:"disabled_comments" gorm:"default:false"`
	BlocklistIPs     StringArray `json:"blocklist_ips"     gorm:"type:text"`
	BlocklistMails   StringArray `json:"blocklist_mails"   gorm:"type:text"`
	BlocklistWords   StringArray `json:"blocklist_words"   gorm:"type:text"`
}

// SiteOptionName is the Name of the row holding site-wide options.
const SiteOptionName = "site"

func (OptionModel) TableName() string { return "options" }
