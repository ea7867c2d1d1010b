package models

import "time"

type CreatorTag struct {
	CreatorID string    `gorm:"primaryKey;type:text" json:"creatorId"`
	Name      string    `gorm:"primaryKey;type:text" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (CreatorTag) TableName() string {
	return "creator_tags"
}

type PostTag struct {
	PostID    string `gorm:"primaryKey;type:text" json:"postId"`
	TagName   string `gorm:"primaryKey;type:text" json:"tagName"`
	CreatorID string `gorm:"type:text;not null;index" json:"creatorId"`
}

func (PostTag) TableName() string {
	return "post_tags"
}
