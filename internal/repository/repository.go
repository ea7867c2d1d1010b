package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fanboxviewer/internal/models"
)

// ErrNotFound is returned by writes addressed to a record that does not exist.
var ErrNotFound = errors.New("record not found")

type PostRepository interface {
	ObservePosts(ctx context.Context, creatorID string) <-chan []models.Post
	ObserveBookmarked(ctx context.Context) <-chan []models.Post
	ObserveHidden(ctx context.Context) <-chan []models.Post
	ListPostsByCreator(ctx context.Context, creatorID string) ([]models.Post, error)
	ListBookmarked(ctx context.Context) ([]models.Post, error)
	ListHidden(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	UpsertPosts(ctx context.Context, items []models.Post) error
	// UpsertPostsPreservingUserState writes remote fields only; bookmark,
	// hidden and last-opened state already stored wins over the input.
	UpsertPostsPreservingUserState(ctx context.Context, items []models.Post) error

	SetBookmarked(ctx context.Context, postID string, v bool) error
	SetHidden(ctx context.Context, postID string, v bool) error
	SetLastOpened(ctx context.Context, postID string, at time.Time) error
	SetBookmarkedBulk(ctx context.Context, postIDs []string, v bool) (int64, error)
	SetHiddenBulk(ctx context.Context, postIDs []string, v bool) (int64, error)
	SetBookmarkedBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error)
	SetHiddenBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error)
	// ListUserState returns posts that are bookmarked or hidden.
	ListUserState(ctx context.Context) ([]models.UserState, error)

	ClearAll(ctx context.Context) error
	ClearNonUserState(ctx context.Context) (int64, error)
}

type CreatorRepository interface {
	UpsertCreators(ctx context.Context, items []models.Creator) error
	ListSupportingCreators(ctx context.Context) ([]models.Creator, error)
	GetCreator(ctx context.Context, creatorID string) (*models.Creator, error)
	FindCreatorByUserID(ctx context.Context, userID string) (*models.Creator, error)
	UpdateLastSynced(ctx context.Context, creatorID string, at time.Time) error
	ClearCreators(ctx context.Context) error
}

type TagRepository interface {
	ListTagsForCreator(ctx context.Context, creatorID string) ([]models.CreatorTag, error)
	ListPostTagsForCreator(ctx context.Context, creatorID string) ([]models.PostTag, error)
	ListAllTags(ctx context.Context) ([]models.CreatorTag, error)
	ListAllPostTags(ctx context.Context) ([]models.PostTag, error)
	InsertTags(ctx context.Context, items []models.CreatorTag) error
	InsertPostTags(ctx context.Context, items []models.PostTag) error
	InsertTagsTx(ctx context.Context, tx *gorm.DB, items []models.CreatorTag) error
	InsertPostTagsTx(ctx context.Context, tx *gorm.DB, items []models.PostTag) error
	// ReplacePostTags swaps a post's tags for names, creating creator tags
	// as needed. Names are trimmed; blanks and repeats are dropped.
	ReplacePostTags(ctx context.Context, postID, creatorID string, names []string) error
	ClearTags(ctx context.Context) error
}

type SyncRepository interface {
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
	InsertSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, scope string, limit int) ([]models.SyncRun, error)
	// RecordSync stores a run and its scope state together.
	RecordSync(ctx context.Context, run *models.SyncRun, state *models.SyncState) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	PostRepository
	CreatorRepository
	TagRepository
	SyncRepository
}
