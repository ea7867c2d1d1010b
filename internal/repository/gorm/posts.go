package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fanboxviewer/internal/merge"
	"fanboxviewer/internal/models"
	"fanboxviewer/internal/repository"
)

var remotePostColumns = []string{
	"creator_id",
	"title",
	"summary",
	"url",
	"thumbnail_url",
	"published_at",
	"raw_json",
	"updated_at",
}

var allPostColumns = append(append([]string{}, remotePostColumns...),
	"is_bookmarked",
	"is_hidden",
	"last_opened_at",
)

func (s *Store) ObservePosts(ctx context.Context, creatorID string) <-chan []models.Post {
	return observe(ctx, s, "posts_by_creator", func(ctx context.Context) ([]models.Post, error) {
		return s.ListPostsByCreator(ctx, creatorID)
	})
}

func (s *Store) ObserveBookmarked(ctx context.Context) <-chan []models.Post {
	return observe(ctx, s, "bookmarked", s.ListBookmarked)
}

func (s *Store) ObserveHidden(ctx context.Context) <-chan []models.Post {
	return observe(ctx, s, "hidden", s.ListHidden)
}

func (s *Store) ListPostsByCreator(ctx context.Context, creatorID string) ([]models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Post
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("creator_id = ?", creatorID).
		Where("is_hidden = ?", false).
		Order("published_at desc").
		Order("post_id desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListBookmarked orders recently opened posts first; never-opened ones follow.
func (s *Store) ListBookmarked(ctx context.Context) ([]models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Post
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("is_bookmarked = ?", true).
		Where("is_hidden = ?", false).
		Order("last_opened_at IS NULL").
		Order("last_opened_at desc").
		Order("published_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListHidden(ctx context.Context) ([]models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Post
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("is_hidden = ?", true).
		Order("published_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Post
	err := s.db.WithContext(ctx).First(&item, "post_id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertPosts replaces stored posts wholesale, user state included.
func (s *Store) UpsertPosts(ctx context.Context, items []models.Post) error {
	return s.upsertPosts(ctx, items, false)
}

func (s *Store) UpsertPostsPreservingUserState(ctx context.Context, items []models.Post) error {
	return s.upsertPosts(ctx, items, true)
}

func (s *Store) upsertPosts(ctx context.Context, items []models.Post, preserve bool) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	items = normalizePosts(items)
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].PostID
	}
	unlock := s.locks.lock(prefixed("post:", ids)...)
	defer unlock()

	columns := allPostColumns
	if preserve {
		columns = remotePostColumns
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if preserve {
			existing, err := userStateByID(tx, ids)
			if err != nil {
				return err
			}
			items = merge.Posts(items, existing)
		}
		return createInBatches(tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}), items, 200)
	})
	if err != nil {
		return err
	}
	s.changes.notify()
	return nil
}

// normalizePosts drops records without an id, keeps the first of repeated
// ids and stores times in UTC at millisecond precision.
func normalizePosts(items []models.Post) []models.Post {
	out := make([]models.Post, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if p.PostID == "" {
			continue
		}
		if _, dup := seen[p.PostID]; dup {
			continue
		}
		seen[p.PostID] = struct{}{}
		p.PublishedAt = p.PublishedAt.UTC().Truncate(time.Millisecond)
		if p.LastOpenedAt != nil {
			t := p.LastOpenedAt.UTC().Truncate(time.Millisecond)
			p.LastOpenedAt = &t
		}
		out = append(out, p)
	}
	return out
}

func userStateByID(tx *gorm.DB, ids []string) (map[string]models.UserState, error) {
	out := make(map[string]models.UserState, len(ids))
	for _, chunk := range chunks(ids, inChunk) {
		var rows []models.Post
		if err := tx.Model(&models.Post{}).
			Select("post_id", "creator_id", "is_bookmarked", "is_hidden", "last_opened_at").
			Where("post_id IN ?", chunk).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.PostID] = r.UserState()
		}
	}
	return out, nil
}

func (s *Store) SetBookmarked(ctx context.Context, postID string, v bool) error {
	return s.updatePost(ctx, postID, "is_bookmarked", v)
}

func (s *Store) SetHidden(ctx context.Context, postID string, v bool) error {
	return s.updatePost(ctx, postID, "is_hidden", v)
}

func (s *Store) SetLastOpened(ctx context.Context, postID string, at time.Time) error {
	return s.updatePost(ctx, postID, "last_opened_at", at.UTC().Truncate(time.Millisecond))
}

func (s *Store) updatePost(ctx context.Context, postID, column string, value any) error {
	if s == nil || s.db == nil {
		return nil
	}
	unlock := s.locks.lock("post:" + postID)
	defer unlock()
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("post_id = ?", postID).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	s.changes.notify()
	return nil
}

func (s *Store) SetBookmarkedBulk(ctx context.Context, postIDs []string, v bool) (int64, error) {
	return s.updatePostsBulk(ctx, postIDs, "is_bookmarked", v)
}

func (s *Store) SetHiddenBulk(ctx context.Context, postIDs []string, v bool) (int64, error) {
	return s.updatePostsBulk(ctx, postIDs, "is_hidden", v)
}

func (s *Store) SetBookmarkedBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error) {
	return updatePostsBulkTx(tx.WithContext(ctx), cleanStrings(postIDs), "is_bookmarked", v)
}

func (s *Store) SetHiddenBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error) {
	return updatePostsBulkTx(tx.WithContext(ctx), cleanStrings(postIDs), "is_hidden", v)
}

// updatePostsBulk reports how many stored posts matched. Unknown ids are skipped.
func (s *Store) updatePostsBulk(ctx context.Context, postIDs []string, column string, value any) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	ids := cleanStrings(postIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	unlock := s.locks.lock(prefixed("post:", ids)...)
	defer unlock()

	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := updatePostsBulkTx(tx, ids, column, value)
		total = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.changes.notify()
	return total, nil
}

func updatePostsBulkTx(tx *gorm.DB, ids []string, column string, value any) (int64, error) {
	var total int64
	for _, chunk := range chunks(ids, inChunk) {
		res := tx.Model(&models.Post{}).Where("post_id IN ?", chunk).Update(column, value)
		if res.Error != nil {
			return 0, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (s *Store) ListUserState(ctx context.Context) ([]models.UserState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []models.Post
	if err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("post_id", "creator_id", "is_bookmarked", "is_hidden", "last_opened_at").
		Where("is_bookmarked = ? OR is_hidden = ?", true, true).
		Order("post_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.UserState, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UserState())
	}
	return out, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error
	})
	if err != nil {
		return err
	}
	s.changes.notify()
	return nil
}

// ClearNonUserState drops posts the user never bookmarked or hid.
func (s *Store) ClearNonUserState(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("is_bookmarked = ? AND is_hidden = ?", false, false).
		Delete(&models.Post{})
	if res.Error != nil {
		return 0, res.Error
	}
	s.changes.notify()
	return res.RowsAffected, nil
}
