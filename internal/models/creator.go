package models

import (
	"time"

	"gorm.io/datatypes"
)

// Creator is a supported creator. CreatorID is the public handle once resolved;
// a purely numeric CreatorID means resolution has not succeeded yet.
type Creator struct {
	CreatorID    string         `gorm:"primaryKey;type:text;comment:public handle" json:"creatorId"`
	UserID       *string        `gorm:"type:text;index;comment:numeric account id" json:"userId,omitempty"`
	Name         string         `gorm:"type:text;not null" json:"name"`
	IconURL      *string        `gorm:"type:text" json:"iconUrl,omitempty"`
	IsSupporting bool           `gorm:"not null;index" json:"isSupporting"`
	LastSyncedAt *time.Time     `json:"lastSyncedAt,omitempty"`
	RawJSON      datatypes.JSON `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Creator) TableName() string {
	return "creators"
}
