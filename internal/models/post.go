package models

import (
	"time"

	"gorm.io/datatypes"
)

type Post struct {
	PostID       string         `gorm:"primaryKey;type:text" json:"postId"`
	CreatorID    string         `gorm:"type:text;not null;index:idx_posts_creator_published,priority:1" json:"creatorId"`
	Title        string         `gorm:"type:text;not null" json:"title"`
	Summary      *string        `gorm:"type:text" json:"summary,omitempty"`
	URL          string         `gorm:"type:text;not null" json:"url"`
	ThumbnailURL *string        `gorm:"type:text" json:"thumbnailUrl,omitempty"`
	PublishedAt  time.Time      `gorm:"not null;index:idx_posts_creator_published,priority:2" json:"publishedAt"`
	IsBookmarked bool           `gorm:"not null;index;comment:user state" json:"bookmarked"`
	IsHidden     bool           `gorm:"not null;index;comment:user state" json:"hidden"`
	LastOpenedAt *time.Time     `gorm:"comment:user state" json:"lastOpenedAt,omitempty"`
	RawJSON      datatypes.JSON `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Post) TableName() string {
	return "posts"
}

// UserState is the locally owned part of a post. It never comes from a remote fetch.
type UserState struct {
	PostID       string     `json:"postId"`
	CreatorID    string     `json:"creatorId"`
	Bookmarked   bool       `json:"bookmarked"`
	Hidden       bool       `json:"hidden"`
	LastOpenedAt *time.Time `json:"lastOpenedAt,omitempty"`
}

func (p Post) UserState() UserState {
	return UserState{
		PostID:       p.PostID,
		CreatorID:    p.CreatorID,
		Bookmarked:   p.IsBookmarked,
		Hidden:       p.IsHidden,
		LastOpenedAt: p.LastOpenedAt,
	}
}
