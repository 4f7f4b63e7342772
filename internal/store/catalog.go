package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/pkg/logger"
)

// SupportedFormatVersions gates which declared document-format versions a
// unit may carry and still be processed.
var SupportedFormatVersions = []string{"2021", "2022", "2023", "2024", "2025"}

// CatalogRepo reads processing units and tracks their status. The catalog is
// the source of truth for which model locations exist.
type CatalogRepo interface {
	// ListUnits returns the units eligible for processing, ordered by
	// project number. An empty projectFilter matches every unit; a filter
	// that matches nothing yields an empty list, not an error.
	ListUnits(ctx context.Context, projectFilter string) ([]models.ProcessingUnit, error)

	// MarkStatus records a unit's lifecycle transition and its
	// last-processed timestamp. A missing unit is logged and ignored:
	// catalog drift is external, not an internal fault.
	MarkStatus(ctx context.Context, unitID uint, status models.UnitStatus, lastError string) error
}

type catalogRepo struct {
	db  *gorm.DB
	log logger.Logger
}

func NewCatalogRepo(db *gorm.DB, log logger.Logger) CatalogRepo {
	return &catalogRepo{
		db:  db,
		log: log.Named("catalog"),
	}
}

func (r *catalogRepo) ListUnits(ctx context.Context, projectFilter string) ([]models.ProcessingUnit, error) {
	q := r.db.WithContext(ctx).
		Where("source_path <> ''").
		Where("format_version IN ?", SupportedFormatVersions).
		Order("project_number")
	if projectFilter != "" {
		q = q.Where("project_number = ?", projectFilter)
	}

	var units []models.ProcessingUnit
	if err := q.Find(&units).Error; err != nil {
		return nil, err
	}

	r.log.Info("Catalog read",
		logger.Int("units", len(units)),
		logger.String("filter", projectFilter),
	)
	return units, nil
}

func (r *catalogRepo) MarkStatus(ctx context.Context, unitID uint, status models.UnitStatus, lastError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":            status,
		"last_processed_at": &now,
		"last_error":        lastError,
	}

	res := r.db.WithContext(ctx).
		Model(&models.ProcessingUnit{}).
		Where("id = ?", unitID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Status update for unknown unit, ignoring",
			logger.Int("unitId", int(unitID)),
			logger.String("status", string(status)),
		)
	}
	return nil
}
