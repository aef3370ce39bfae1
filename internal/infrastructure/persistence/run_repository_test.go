package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/logger"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) (*GormRunRepository, *Database) {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"),
		WithGormLogger(logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Warn, time.Second)))
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewGormRunRepository(db.DB)
	require.NoError(t, repo.AutoMigrate())
	return repo, db
}

func TestGormRunRepository_SaveAndFind(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	run := scheduler.NewReconciliationRun(scheduler.TriggerManual)
	require.NoError(t, repo.SaveRun(ctx, run))

	found, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.RunStatusRunning, found.Status)
	assert.Equal(t, scheduler.TriggerManual, found.Trigger)
	assert.Nil(t, found.CompletedAt)

	run.Complete(&inventory.ReconciliationResult{
		OrdersScanned: 3,
		Submitted:     4,
		Succeeded:     3,
		Failed:        1,
		Suppressed:    2,
	})
	require.NoError(t, repo.SaveRun(ctx, run))

	found, err = repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.RunStatusPartial, found.Status)
	require.NotNil(t, found.CompletedAt)
	assert.Equal(t, 3, found.OrdersScanned)
	assert.Equal(t, 4, found.Submitted)
	assert.Equal(t, 3, found.Succeeded)
	assert.Equal(t, 1, found.Failed)
	assert.Equal(t, 2, found.Suppressed)
}

func TestGormRunRepository_SaveFailedRun(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	run := scheduler.NewReconciliationRun(scheduler.TriggerTimer)
	run.Fail(errors.New("order feed unavailable"))
	require.NoError(t, repo.SaveRun(ctx, run))

	found, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.RunStatusFailed, found.Status)
	assert.Equal(t, "order feed unavailable", found.Error)
}

func TestGormRunRepository_FindByID_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGormRunRepository_ListRecent(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		run := scheduler.NewReconciliationRun(scheduler.TriggerTimer)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[3], runs[0].ID)
	assert.Equal(t, ids[2], runs[1].ID)
	assert.Equal(t, ids[1], runs[2].ID)

	all, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGormRunRepository_SaveNil(t *testing.T) {
	repo, _ := newTestRepository(t)
	assert.NoError(t, repo.SaveRun(context.Background(), nil))
}

func TestDatabase_PingAndStats(t *testing.T) {
	_, db := newTestRepository(t)

	require.NoError(t, db.Ping())
	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}
