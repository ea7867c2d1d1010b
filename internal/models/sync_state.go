package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState keeps the latest outcome per sync scope ("creators" or "posts:<creatorId>").
type SyncState struct {
	Scope         string         `gorm:"primaryKey;type:text;comment:sync scope" json:"scope"`
	LastSuccessAt *time.Time     `gorm:"comment:last run that wrote records" json:"lastSuccessAt,omitempty"`
	LastAttemptAt *time.Time     `gorm:"comment:last run" json:"lastAttemptAt,omitempty"`
	LastError     *string        `gorm:"type:text" json:"lastError,omitempty"`
	LastRunID     *string        `gorm:"type:text" json:"lastRunId,omitempty"`
	StatsJSON     datatypes.JSON `json:"stats,omitempty"`
}

func (SyncState) TableName() string {
	return "sync_state"
}

// SyncRun is one sync invocation with its per-attempt debug log.
type SyncRun struct {
	ID         string         `gorm:"primaryKey;type:text" json:"id"`
	Scope      string         `gorm:"type:text;not null;index" json:"scope"`
	StartedAt  time.Time      `gorm:"not null;index" json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Records    int            `json:"records"`
	Pages      int            `json:"pages"`
	Transport  string         `gorm:"type:text" json:"transport,omitempty"`
	Stop       string         `gorm:"type:text" json:"stop,omitempty"`
	Partial    bool           `json:"partial"`
	Error      *string        `gorm:"type:text" json:"error,omitempty"`
	DebugLog   datatypes.JSON `json:"debugLog,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
