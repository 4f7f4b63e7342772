package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/pkg/logger"
)

// reconcileAttempts bounds the conflict-retry loop in Reconcile.
const reconcileAttempts = 3

// VersionRepo reconciles extracted records against the versioned equipment
// store and serves its history.
type VersionRepo interface {
	// Reconcile compares a record's fingerprint with the latest Active
	// version for its (project, designation) identity key and applies one
	// of: insert version 1, supersede and insert version n+1, or touch the
	// last-seen timestamp. The read-decide-write sequence runs atomically
	// per identity key.
	Reconcile(ctx context.Context, projectNumber string, sourceFileID uuid.UUID, rec models.EquipmentRecord) (models.ReconcileResult, error)

	// ListActive returns the current Active version of every tracked item
	// in a project.
	ListActive(ctx context.Context, projectNumber string) ([]models.EquipmentVersion, error)

	// History returns every stored version of one identity key, oldest
	// first.
	History(ctx context.Context, projectNumber, designation string) ([]models.EquipmentVersion, error)
}

type versionRepo struct {
	db  *gorm.DB
	log logger.Logger
}

func NewVersionRepo(db *gorm.DB, log logger.Logger) VersionRepo {
	return &versionRepo{
		db:  db,
		log: log.Named("versions"),
	}
}

func (r *versionRepo) Reconcile(ctx context.Context, projectNumber string, sourceFileID uuid.UUID, rec models.EquipmentRecord) (models.ReconcileResult, error) {
	var result models.ReconcileResult
	var err error

	// The row lock cannot cover a fresh identity key (there is no row to
	// lock), and on a changed key the loser of the lock wait re-evaluates the
	// Active predicate after the winner flipped it. Either way both writers
	// can reach the insert; the unique indexes reject the loser and the
	// re-read here decides against the winner's row instead.
	for attempt := 1; attempt <= reconcileAttempts; attempt++ {
		result, err = r.reconcileOnce(ctx, projectNumber, sourceFileID, rec)
		if err == nil {
			r.log.Debug("Reconciled record",
				logger.String("project", projectNumber),
				logger.String("designation", rec.Designation),
				logger.String("decision", string(result.Decision)),
				logger.Int("version", result.Version),
			)
			return result, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		r.log.Debug("Reconcile conflict, retrying",
			logger.String("project", projectNumber),
			logger.String("designation", rec.Designation),
			logger.Int("attempt", attempt),
		)
	}
	return models.ReconcileResult{}, fmt.Errorf("failed to reconcile %s/%s: %w", projectNumber, rec.Designation, err)
}

func (r *versionRepo) reconcileOnce(ctx context.Context, projectNumber string, sourceFileID uuid.UUID, rec models.EquipmentRecord) (models.ReconcileResult, error) {
	result := models.ReconcileResult{
		ProjectNumber: projectNumber,
		Designation:   rec.Designation,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the Active row so concurrent reconciles of one key serialize
		// whenever a row exists; the unique indexes catch the cases the lock
		// cannot. SQLite serializes writers on its own and rejects FOR
		// UPDATE, so the clause is Postgres-only.
		q := tx.Where("project_number = ? AND designation = ? AND status = ?",
			projectNumber, rec.Designation, models.VersionActive).
			Order("version DESC").
			Limit(1)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var current models.EquipmentVersion
		if err := q.Find(&current).Error; err != nil {
			return err
		}

		now := time.Now()

		switch {
		case current.ID == uuid.Nil:
			result.Decision = models.DecisionInsertNew
			result.Version = 1
			return tx.Create(r.newVersion(projectNumber, sourceFileID, rec, 1, now)).Error

		case current.Fingerprint != rec.Fingerprint:
			result.Decision = models.DecisionSupersedeAndInsert
			result.Version = current.Version + 1

			if err := tx.Model(&models.EquipmentVersion{}).
				Where("id = ?", current.ID).
				Update("status", models.VersionModified).Error; err != nil {
				return err
			}
			return tx.Create(r.newVersion(projectNumber, sourceFileID, rec, current.Version+1, now)).Error

		default:
			result.Decision = models.DecisionTouchOnly
			result.Version = current.Version
			return tx.Model(&models.EquipmentVersion{}).
				Where("id = ?", current.ID).
				Update("last_seen_at", now).Error
		}
	})
	if err != nil {
		return models.ReconcileResult{}, err
	}
	return result, nil
}

func (r *versionRepo) newVersion(projectNumber string, sourceFileID uuid.UUID, rec models.EquipmentRecord, version int, now time.Time) *models.EquipmentVersion {
	return &models.EquipmentVersion{
		ID:            uuid.New(),
		ProjectNumber: projectNumber,
		Designation:   rec.Designation,
		Version:       version,
		Fingerprint:   rec.Fingerprint,
		Status:        models.VersionActive,
		ElementID:     rec.ElementID,
		Category:      rec.Category,
		Manufacturer:  rec.Manufacturer,
		Model:         rec.Model,
		Level:         rec.Level,
		SystemType:    rec.SystemType,
		SourceFileID:  sourceFileID,
		FirstSeenAt:   now,
		LastSeenAt:    now,
	}
}

func (r *versionRepo) ListActive(ctx context.Context, projectNumber string) ([]models.EquipmentVersion, error) {
	var out []models.EquipmentVersion
	err := r.db.WithContext(ctx).
		Where("project_number = ? AND status = ?", projectNumber, models.VersionActive).
		Order("designation").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *versionRepo) History(ctx context.Context, projectNumber, designation string) ([]models.EquipmentVersion, error) {
	var out []models.EquipmentVersion
	err := r.db.WithContext(ctx).
		Where("project_number = ? AND designation = ?", projectNumber, designation).
		Order("version").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
