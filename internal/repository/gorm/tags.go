package gormrepository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fanboxviewer/internal/models"
)

func (s *Store) ListTagsForCreator(ctx context.Context, creatorID string) ([]models.CreatorTag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CreatorTag
	if err := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPostTagsForCreator(ctx context.Context, creatorID string) ([]models.PostTag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PostTag
	if err := s.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("post_id asc").
		Order("tag_name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListAllTags(ctx context.Context) ([]models.CreatorTag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CreatorTag
	if err := s.db.WithContext(ctx).
		Order("creator_id asc").
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListAllPostTags(ctx context.Context) ([]models.PostTag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PostTag
	if err := s.db.WithContext(ctx).
		Order("post_id asc").
		Order("tag_name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// InsertTags ignores tags that already exist.
func (s *Store) InsertTags(ctx context.Context, items []models.CreatorTag) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.InsertTagsTx(ctx, s.db, items)
}

func (s *Store) InsertTagsTx(ctx context.Context, tx *gorm.DB, items []models.CreatorTag) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}), items, 200)
}

// InsertPostTags ignores pairs that already exist.
func (s *Store) InsertPostTags(ctx context.Context, items []models.PostTag) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.InsertPostTagsTx(ctx, s.db, items)
}

func (s *Store) InsertPostTagsTx(ctx context.Context, tx *gorm.DB, items []models.PostTag) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}), items, 200)
}

func (s *Store) ReplacePostTags(ctx context.Context, postID, creatorID string, names []string) error {
	if s == nil || s.db == nil || postID == "" {
		return nil
	}
	names = cleanStrings(names)
	unlock := s.locks.lock("tags:" + postID)
	defer unlock()

	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		tags := make([]models.CreatorTag, 0, len(names))
		links := make([]models.PostTag, 0, len(names))
		for _, name := range names {
			tags = append(tags, models.CreatorTag{CreatorID: creatorID, Name: name, CreatedAt: now})
			links = append(links, models.PostTag{PostID: postID, TagName: name, CreatorID: creatorID})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

func (s *Store) ClearTags(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CreatorTag{}).Error
	})
}
