package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Snapshot is one serialized entry of durable state
type Snapshot struct {
	Name      string `gorm:"primarykey;size:191"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// GormSnapshotRepository is a GORM implementation of SnapshotRepository
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository backed by db
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Get returns the payload stored under key
func (r *GormSnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var snapshot Snapshot
	// Find with a limit so a missing key is not logged as a query error
	result := r.db.WithContext(ctx).Where("name = ?", key).Limit(1).Find(&snapshot)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSnapshotNotFound
	}
	return []byte(snapshot.Payload), nil
}

// Set upserts the payload stored under key
func (r *GormSnapshotRepository) Set(ctx context.Context, key string, value []byte) error {
	snapshot := Snapshot{
		Name:      key,
		Payload:   string(value),
		UpdatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&snapshot).Error
}

// Delete removes the entry stored under key
func (r *GormSnapshotRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("name = ?", key).Delete(&Snapshot{}).Error
}
