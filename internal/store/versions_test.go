package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/pkg/logger"
)

func record(designation, fingerprint string) models.EquipmentRecord {
	return models.EquipmentRecord{
		ElementID:   100,
		Category:    models.CategoryMechanical,
		Designation: designation,
		Fingerprint: fingerprint,
	}
}

func TestReconcileFreshKeyInsertsVersionOne(t *testing.T) {
	repo := NewVersionRepo(openTestDB(t), logger.NewTestLogger())
	ctx := context.Background()

	res, err := repo.Reconcile(ctx, "22-104", uuid.New(), record("AHU-1", "H1"))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionInsertNew, res.Decision)
	assert.Equal(t, 1, res.Version)

	history, err := repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, models.VersionActive, history[0].Status)
	assert.Equal(t, "H1", history[0].Fingerprint)
	assert.Equal(t, history[0].FirstSeenAt, history[0].LastSeenAt)
}

func TestReconcileTouchOnlyIsIdempotent(t *testing.T) {
	repo := NewVersionRepo(openTestDB(t), logger.NewTestLogger())
	ctx := context.Background()

	_, err := repo.Reconcile(ctx, "22-104", uuid.New(), record("AHU-1", "H1"))
	require.NoError(t, err)

	history, err := repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	firstSeen := history[0].LastSeenAt

	time.Sleep(10 * time.Millisecond)

	res, err := repo.Reconcile(ctx, "22-104", uuid.New(), record("AHU-1", "H1"))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionTouchOnly, res.Decision)
	assert.Equal(t, 1, res.Version)

	history, err = repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.VersionActive, history[0].Status)
	assert.True(t, history[0].LastSeenAt.After(firstSeen))
	assert.Equal(t, history[0].FirstSeenAt, firstSeen)
}

func TestReconcileSupersedeScenario(t *testing.T) {
	repo := NewVersionRepo(openTestDB(t), logger.NewTestLogger())
	ctx := context.Background()
	fileID := uuid.New()

	// Fresh key with H1.
	_, err := repo.Reconcile(ctx, "22-104", fileID, record("AHU-1", "H1"))
	require.NoError(t, err)

	// Same fingerprint again: state unchanged except last-seen.
	res, err := repo.Reconcile(ctx, "22-104", fileID, record("AHU-1", "H1"))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionTouchOnly, res.Decision)

	// Content changed: supersede and insert v2.
	res, err = repo.Reconcile(ctx, "22-104", fileID, record("AHU-1", "H2"))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSupersedeAndInsert, res.Decision)
	assert.Equal(t, 2, res.Version)

	history, err := repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, models.VersionModified, history[0].Status)
	assert.Equal(t, "H1", history[0].Fingerprint)
	assert.Equal(t, 2, history[1].Version)
	assert.Equal(t, models.VersionActive, history[1].Status)
	assert.Equal(t, "H2", history[1].Fingerprint)
}

func TestReconcileVersionMonotonicity(t *testing.T) {
	repo := NewVersionRepo(openTestDB(t), logger.NewTestLogger())
	ctx := context.Background()
	fileID := uuid.New()

	fingerprints := []string{"H1", "H2", "H2", "H3", "H3", "H4"}
	wantVersion := 0
	for _, fp := range fingerprints {
		res, err := repo.Reconcile(ctx, "22-104", fileID, record("P-1", fp))
		require.NoError(t, err)
		if res.Decision != models.DecisionTouchOnly {
			wantVersion++
		}
		assert.Equal(t, wantVersion, res.Version)
	}

	// Exactly one Active row, at the highest version.
	active, err := repo.ListActive(ctx, "22-104")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 4, active[0].Version)
	assert.Equal(t, "H4", active[0].Fingerprint)

	history, err := repo.History(ctx, "22-104", "P-1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, v := range history {
		assert.Equal(t, i+1, v.Version)
		if i < len(history)-1 {
			assert.Equal(t, models.VersionModified, v.Status)
		}
	}
}

// openConcurrentTestDB opens a file-backed SQLite store so multiple
// connections can write concurrently. _txlock=immediate takes the write lock
// at BEGIN, which avoids lock-upgrade deadlocks between the goroutines.
func openConcurrentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "versions.db") +
		"?_busy_timeout=10000&_txlock=immediate"
	db, err := Open(&Config{
		Dialect: DialectSQLite,
		DSN:     dsn,
	}, logger.NewTestLogger())
	require.NoError(t, err)
	return db
}

func reconcileConcurrently(t *testing.T, repo VersionRepo, project, designation, fingerprint string, workers int) {
	t.Helper()
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.Reconcile(context.Background(), project, uuid.New(), record(designation, fingerprint))
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func TestReconcileConcurrentFreshKey(t *testing.T) {
	repo := NewVersionRepo(openConcurrentTestDB(t), logger.NewTestLogger())
	ctx := context.Background()

	// All workers race on an identity key that has no row to lock yet.
	reconcileConcurrently(t, repo, "22-104", "AHU-1", "H1", 4)

	history, err := repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, models.VersionActive, history[0].Status)
}

func TestReconcileConcurrentContentChange(t *testing.T) {
	repo := NewVersionRepo(openConcurrentTestDB(t), logger.NewTestLogger())
	ctx := context.Background()

	_, err := repo.Reconcile(ctx, "22-104", uuid.New(), record("AHU-1", "H1"))
	require.NoError(t, err)

	// All workers observe the same stale Active row; only one may supersede.
	reconcileConcurrently(t, repo, "22-104", "AHU-1", "H2", 4)

	history, err := repo.History(ctx, "22-104", "AHU-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.VersionModified, history[0].Status)
	assert.Equal(t, "H1", history[0].Fingerprint)
	assert.Equal(t, 2, history[1].Version)
	assert.Equal(t, models.VersionActive, history[1].Status)
	assert.Equal(t, "H2", history[1].Fingerprint)

	active, err := repo.ListActive(ctx, "22-104")
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestSchemaRejectsDuplicateVersionRows(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	row := models.EquipmentVersion{
		ID:            uuid.New(),
		ProjectNumber: "22-104",
		Designation:   "AHU-1",
		Version:       1,
		Fingerprint:   "H1",
		Status:        models.VersionActive,
		ElementID:     100,
		Category:      models.CategoryMechanical,
		FirstSeenAt:   now,
		LastSeenAt:    now,
	}
	require.NoError(t, db.Create(&row).Error)

	// Same (project, designation, version) under a new primary key.
	dup := row
	dup.ID = uuid.New()
	dup.Status = models.VersionModified
	assert.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	// A second Active row for the key, even at a new version.
	second := row
	second.ID = uuid.New()
	second.Version = 2
	assert.ErrorIs(t, db.Create(&second).Error, gorm.ErrDuplicatedKey)

	// A Modified row at a new version is fine; only Active is single-slot.
	third := row
	third.ID = uuid.New()
	third.Version = 3
	third.Status = models.VersionModified
	assert.NoError(t, db.Create(&third).Error)
}

func TestReconcileKeysAreIndependent(t *testing.T) {
	repo := NewVersionRepo(openTestDB(t), logger.NewTestLogger())
	ctx := context.Background()
	fileID := uuid.New()

	_, err := repo.Reconcile(ctx, "22-104", fileID, record("AHU-1", "H1"))
	require.NoError(t, err)
	_, err = repo.Reconcile(ctx, "22-104", fileID, record("AHU-2", "H1"))
	require.NoError(t, err)
	// Same designation under another project is a different identity key.
	_, err = repo.Reconcile(ctx, "23-001", fileID, record("AHU-1", "H9"))
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, "22-104")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	active, err = repo.ListActive(ctx, "23-001")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].Version)
}
