package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/pkg/logger"
)

func seedUnits(t *testing.T, db *gorm.DB, units ...models.ProcessingUnit) {
	t.Helper()
	for i := range units {
		require.NoError(t, db.Create(&units[i]).Error)
	}
}

func TestListUnitsGatesFormatVersion(t *testing.T) {
	db := openTestDB(t)
	seedUnits(t, db,
		models.ProcessingUnit{ProjectNumber: "22-104", SourcePath: "/srv/p1", FormatVersion: "2024", Status: models.UnitPending},
		models.ProcessingUnit{ProjectNumber: "22-105", SourcePath: "/srv/p2", FormatVersion: "2019", Status: models.UnitPending},
		models.ProcessingUnit{ProjectNumber: "22-106", SourcePath: "", FormatVersion: "2023", Status: models.UnitPending},
		models.ProcessingUnit{ProjectNumber: "22-107", SourcePath: "/srv/p4", FormatVersion: "2021", Status: models.UnitPending},
	)

	repo := NewCatalogRepo(db, logger.NewTestLogger())
	units, err := repo.ListUnits(context.Background(), "")
	require.NoError(t, err)

	// Unsupported versions and empty paths are filtered out.
	require.Len(t, units, 2)
	assert.Equal(t, "22-104", units[0].ProjectNumber)
	assert.Equal(t, "22-107", units[1].ProjectNumber)
}

func TestListUnitsProjectFilter(t *testing.T) {
	db := openTestDB(t)
	seedUnits(t, db,
		models.ProcessingUnit{ProjectNumber: "22-104", SourcePath: "/srv/p1", FormatVersion: "2024", Status: models.UnitPending},
		models.ProcessingUnit{ProjectNumber: "22-105", SourcePath: "/srv/p2", FormatVersion: "2024", Status: models.UnitPending},
	)

	repo := NewCatalogRepo(db, logger.NewTestLogger())

	units, err := repo.ListUnits(context.Background(), "22-105")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "22-105", units[0].ProjectNumber)

	// A filter that matches nothing is a clean empty list.
	units, err = repo.ListUnits(context.Background(), "99-999")
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestMarkStatusTransitions(t *testing.T) {
	db := openTestDB(t)
	seedUnits(t, db,
		models.ProcessingUnit{ProjectNumber: "22-104", SourcePath: "/srv/p1", FormatVersion: "2024", Status: models.UnitPending},
	)

	repo := NewCatalogRepo(db, logger.NewTestLogger())
	ctx := context.Background()

	require.NoError(t, repo.MarkStatus(ctx, 1, models.UnitProcessing, ""))
	require.NoError(t, repo.MarkStatus(ctx, 1, models.UnitFailed, "open failed"))

	var unit models.ProcessingUnit
	require.NoError(t, db.First(&unit, 1).Error)
	assert.Equal(t, models.UnitFailed, unit.Status)
	assert.Equal(t, "open failed", unit.LastError)
	require.NotNil(t, unit.LastProcessedAt)
}

func TestMarkStatusMissingUnitIsNoOp(t *testing.T) {
	db := openTestDB(t)
	log := logger.NewTestLogger()
	repo := NewCatalogRepo(db, log)

	// The catalog is the source of truth; a missing unit means external
	// drift, so the tracker logs and carries on.
	err := repo.MarkStatus(context.Background(), 42, models.UnitCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, 1, log.CountLevel("WARN"))
}
