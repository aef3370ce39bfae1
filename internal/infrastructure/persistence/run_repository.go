package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence/models"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("reconciliation run not found")

// MaxListLimit caps how many runs ListRecent returns
const MaxListLimit = 500

// GormRunRepository persists reconciliation runs with GORM
type GormRunRepository struct {
	db *gorm.DB
}

var _ scheduler.RunRecorder = (*GormRunRepository)(nil)

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// AutoMigrate creates or updates the reconciliation_runs table
func (r *GormRunRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.ReconciliationRunModel{})
}

// SaveRun inserts the run or updates it when it already exists
func (r *GormRunRepository) SaveRun(ctx context.Context, run *scheduler.ReconciliationRun) error {
	if run == nil {
		return nil
	}
	model := models.ReconciliationRunModelFromDomain(run)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "error", "completed_at",
				"orders_scanned", "submitted", "succeeded", "failed", "suppressed",
				"updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// FindByID returns a single run
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*scheduler.ReconciliationRun, error) {
	var model models.ReconciliationRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRecent returns the most recent runs, newest first
func (r *GormRunRepository) ListRecent(ctx context.Context, limit int) ([]*scheduler.ReconciliationRun, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	var rows []models.ReconciliationRunModel
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	runs := make([]*scheduler.ReconciliationRun, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].ToDomain())
	}
	return runs, nil
}
