package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fanboxviewer/internal/models"
)

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return saveSyncStateTx(s.db.WithContext(ctx), state)
}

// saveSyncStateTx keeps the previous last_success_at when the new state has none.
func saveSyncStateTx(tx *gorm.DB, state *models.SyncState) error {
	columns := []string{"last_attempt_at", "last_error", "last_run_id", "stats_json"}
	if state.LastSuccessAt != nil {
		columns = append(columns, "last_success_at")
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var states []models.SyncState
	if err := s.db.WithContext(ctx).Order("scope asc").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (s *Store) InsertSyncRun(ctx context.Context, run *models.SyncRun) error {
	if s == nil || s.db == nil || run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *Store) ListSyncRuns(ctx context.Context, scope string, limit int) ([]models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SyncRun{})
	if scope != "" {
		query = query.Where("scope = ?", scope)
	}
	var runs []models.SyncRun
	if err := query.Order("started_at desc").Limit(normalizeLimit(limit, 50)).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) RecordSync(ctx context.Context, run *models.SyncRun, state *models.SyncState) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if run != nil {
			if err := tx.Create(run).Error; err != nil {
				return err
			}
		}
		if state != nil {
			return saveSyncStateTx(tx, state)
		}
		return nil
	})
}
