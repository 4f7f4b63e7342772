package extraction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/engdata/equipsync/internal/extractor"
	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source/bundle"
	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/storage"
)

type extractionService struct {
	catalog   store.CatalogRepo
	versions  store.VersionRepo
	extractor *extractor.Extractor
	provider  storage.Provider
	logger    logger.Logger
	config    *Config
}

func NewService(
	catalog store.CatalogRepo,
	versions store.VersionRepo,
	ext *extractor.Extractor,
	provider storage.Provider,
	log logger.Logger,
	cfg *Config,
) Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &extractionService{
		catalog:   catalog,
		versions:  versions,
		extractor: ext,
		provider:  provider,
		logger:    log,
		config:    cfg,
	}
}

// Run implements Service.
func (s *extractionService) Run(ctx context.Context, projectFilter string) (*models.RunSummary, error) {
	runID := uuid.New().String()
	log := logger.ForRun(s.logger, runID)

	summary := &models.RunSummary{
		RunID:     runID,
		Filter:    projectFilter,
		Status:    models.RunRunning,
		StartedAt: time.Now(),
	}

	units, err := s.catalog.ListUnits(ctx, projectFilter)
	if err != nil {
		summary.Status = models.RunFailed
		return summary, fmt.Errorf("failed to read catalog: %w", err)
	}

	if len(units) == 0 {
		if projectFilter != "" {
			log.Info("No units matched filter",
				logger.String("filter", projectFilter),
			)
		} else {
			log.Info("Catalog is empty, nothing to process")
		}
		summary.Status = models.RunCompleted
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentUnits)

	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			result := s.processUnit(gctx, unit, log)

			mu.Lock()
			summary.Units = append(summary.Units, result)
			if result.Status == models.UnitFailed {
				summary.UnitsFailed++
			}
			mu.Unlock()

			// Unit failures never abort sibling units.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		summary.Status = models.RunFailed
		summary.FinishedAt = time.Now()
		return summary, err
	}

	summary.Status = models.RunCompleted
	summary.FinishedAt = time.Now()

	log.Info("Extraction run finished",
		logger.Int("units", len(summary.Units)),
		logger.Int("unitsFailed", summary.UnitsFailed),
		logger.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

// processUnit runs discovery, extraction and reconciliation for one unit.
// Every error is caught here and folded into the unit result.
func (s *extractionService) processUnit(ctx context.Context, unit models.ProcessingUnit, runLog logger.Logger) models.UnitResult {
	log := logger.ForUnit(runLog, unit.ProjectNumber, unit.SourcePath)

	result := models.UnitResult{
		ProjectNumber: unit.ProjectNumber,
		SourcePath:    unit.SourcePath,
		Status:        models.UnitCompleted,
	}

	s.markStatus(ctx, unit.ID, models.UnitProcessing, "", log)

	files, err := bundle.Discover(ctx, s.provider, unit.SourcePath, s.config.Discovery)
	if err != nil {
		log.Error("Discovery failed", logger.Error(err))
		result.Status = models.UnitFailed
		result.Err = err.Error()
		s.markStatus(ctx, unit.ID, models.UnitFailed, result.Err, log)
		return result
	}
	result.FilesFound = len(files)

	if len(files) == 0 {
		log.Info("No model files found, nothing to extract")
		s.markStatus(ctx, unit.ID, models.UnitCompleted, "", log)
		return result
	}

	var firstErr error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result.Status = models.UnitFailed
			result.Err = err.Error()
			s.markStatus(ctx, unit.ID, models.UnitFailed, result.Err, log)
			return result
		}

		if err := s.processFile(ctx, unit, file, &result, log); err != nil {
			log.Error("File processing failed",
				logger.String("file", file),
				logger.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			// Remaining files of the unit still get a chance.
		}
	}

	if firstErr != nil || result.StoreErrors > 0 {
		result.Status = models.UnitFailed
		if firstErr != nil {
			result.Err = firstErr.Error()
		} else {
			result.Err = fmt.Sprintf("%d records failed to reconcile", result.StoreErrors)
		}
		s.markStatus(ctx, unit.ID, models.UnitFailed, result.Err, log)
		return result
	}

	log.Info("Unit completed",
		logger.Int("files", result.FilesFound),
		logger.Int("extracted", result.Extracted),
		logger.Int("inserted", result.Inserted),
		logger.Int("superseded", result.Superseded),
		logger.Int("touched", result.Touched),
		logger.Int("elementSkips", result.ElementSkips),
	)
	s.markStatus(ctx, unit.ID, models.UnitCompleted, "", log)
	return result
}

// processFile extracts one model file and reconciles its records. Store
// errors are counted per record and never roll back sibling records.
func (s *extractionService) processFile(ctx context.Context, unit models.ProcessingUnit, file string, result *models.UnitResult, log logger.Logger) error {
	sourceFileID := uuid.New()

	records, stats, err := s.extractor.ExtractFile(ctx, file, s.config.DocumentOpenTimeout)
	if err != nil {
		return err
	}

	result.Extracted += len(records)
	result.ElementSkips += stats.FaultSkips

	for _, rec := range records {
		res, err := s.versions.Reconcile(ctx, unit.ProjectNumber, sourceFileID, rec)
		if err != nil {
			log.Error("Failed to reconcile record",
				logger.String("designation", rec.Designation),
				logger.Int64("elementId", rec.ElementID),
				logger.Error(err),
			)
			result.StoreErrors++
			continue
		}

		switch res.Decision {
		case models.DecisionInsertNew:
			result.Inserted++
		case models.DecisionSupersedeAndInsert:
			result.Superseded++
		case models.DecisionTouchOnly:
			result.Touched++
		}
	}

	log.Info("File extracted",
		logger.String("file", file),
		logger.String("sourceFileId", sourceFileID.String()),
		logger.Int("records", len(records)),
		logger.Int("faultSkips", stats.FaultSkips),
		logger.Int("dropped", stats.Dropped),
	)
	return nil
}

func (s *extractionService) markStatus(ctx context.Context, unitID uint, status models.UnitStatus, lastError string, log logger.Logger) {
	if err := s.catalog.MarkStatus(ctx, unitID, status, lastError); err != nil {
		log.Error("Failed to update unit status",
			logger.String("status", string(status)),
			logger.Error(err),
		)
	}
}
