package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fanboxviewer/internal/merge"
	"fanboxviewer/internal/models"
)

// UpsertCreators marks every given creator as supported and stamps the sync
// time. A stored user id survives when the input carries none.
func (s *Store) UpsertCreators(ctx context.Context, items []models.Creator) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	items = dedupeCreators(items)
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].CreatorID
	}
	unlock := s.locks.lock(prefixed("creator:", ids)...)
	defer unlock()

	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := make(map[string]models.Creator, len(ids))
		for _, chunk := range chunks(ids, inChunk) {
			var rows []models.Creator
			if err := tx.Where("creator_id IN ?", chunk).Find(&rows).Error; err != nil {
				return err
			}
			for _, r := range rows {
				existing[r.CreatorID] = r
			}
		}
		merged := merge.Creators(items, existing, now)
		return createInBatches(tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"name",
				"icon_url",
				"is_supporting",
				"last_synced_at",
				"raw_json",
				"updated_at",
			}),
		}), merged, 200)
	})
}

func dedupeCreators(items []models.Creator) []models.Creator {
	out := make([]models.Creator, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, c := range items {
		if c.CreatorID == "" {
			continue
		}
		if _, dup := seen[c.CreatorID]; dup {
			continue
		}
		seen[c.CreatorID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *Store) ListSupportingCreators(ctx context.Context) ([]models.Creator, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Creator
	if err := s.db.WithContext(ctx).
		Model(&models.Creator{}).
		Where("is_supporting = ?", true).
		Order("LOWER(name) asc").
		Order("creator_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetCreator(ctx context.Context, creatorID string) (*models.Creator, error) {
	return s.findCreator(ctx, "creator_id = ?", creatorID)
}

func (s *Store) FindCreatorByUserID(ctx context.Context, userID string) (*models.Creator, error) {
	return s.findCreator(ctx, "user_id = ?", userID)
}

func (s *Store) findCreator(ctx context.Context, cond string, arg string) (*models.Creator, error) {
	if s == nil || s.db == nil || arg == "" {
		return nil, nil
	}
	var item models.Creator
	err := s.db.WithContext(ctx).First(&item, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateLastSynced(ctx context.Context, creatorID string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	unlock := s.locks.lock("creator:" + creatorID)
	defer unlock()
	return s.db.WithContext(ctx).
		Model(&models.Creator{}).
		Where("creator_id = ?", creatorID).
		Update("last_synced_at", at.UTC()).Error
}

func (s *Store) ClearCreators(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Creator{}).Error
}
