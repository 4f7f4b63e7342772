package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source"
	"github.com/engdata/equipsync/pkg/logger"
)

// Logical field names resolved on every element. FieldDesignation is the
// identity-bearing field: elements without it are dropped.
const (
	FieldDesignation  = "Equipment_Designation"
	FieldManufacturer = "Manufacturer"
	FieldModel        = "Model"
	FieldLevel        = "Level"
	FieldSystemType   = "System_Type"
)

// Stats counts what happened to the elements of one document.
type Stats struct {
	Elements     int // elements enumerated across all categories
	FaultSkips   int // elements skipped because processing failed
	Dropped      int // elements dropped for a missing designation
	CategoryErrs int // categories whose enumeration failed outright
}

// Extractor turns open documents into normalized equipment records.
type Extractor struct {
	opener source.Opener
	logger logger.Logger
}

func NewExtractor(opener source.Opener, log logger.Logger) *Extractor {
	return &Extractor{
		opener: opener,
		logger: log,
	}
}

// ExtractFile opens one model document, extracts its records and guarantees
// the document is closed on every exit path. The document is never written
// back. openTimeout bounds only the external open, which can hang; element
// iteration runs under the caller's context. Zero means no open deadline.
func (e *Extractor) ExtractFile(ctx context.Context, path string, openTimeout time.Duration) ([]models.EquipmentRecord, Stats, error) {
	openCtx := ctx
	if openTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, openTimeout)
		defer cancel()
	}

	doc, err := e.opener.OpenReadOnly(openCtx, path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open document %s: %w", path, err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			e.logger.Warn("Failed to close document",
				logger.String("path", path),
				logger.Error(cerr),
			)
		}
	}()

	records, stats, err := e.ExtractDocument(ctx, doc)
	return records, stats, err
}

// ExtractDocument enumerates every category of interest and maps each
// non-type element to a record. A single element's failure never aborts its
// siblings; a category enumeration failure never aborts the other categories.
func (e *Extractor) ExtractDocument(ctx context.Context, doc source.Document) ([]models.EquipmentRecord, Stats, error) {
	var records []models.EquipmentRecord
	var stats Stats

	for _, category := range models.Categories {
		elements, err := doc.Elements(category)
		if err != nil {
			e.logger.Error("Failed to enumerate category",
				logger.String("category", string(category)),
				logger.Error(err),
			)
			stats.CategoryErrs++
			continue
		}

		for _, el := range elements {
			if err := ctx.Err(); err != nil {
				return records, stats, err
			}
			stats.Elements++

			rec, err := e.processElement(el, category)
			if err != nil {
				e.logger.Error("Skipping element",
					logger.Int64("elementId", el.ID()),
					logger.String("category", string(category)),
					logger.Error(err),
				)
				stats.FaultSkips++
				continue
			}
			if rec == nil {
				// Missing designation; warned inside processElement.
				stats.Dropped++
				continue
			}
			records = append(records, *rec)
		}
	}

	return records, stats, nil
}

// processElement resolves one element's fields. A nil record with nil error
// means the element lacked its mandatory designation.
func (e *Extractor) processElement(el source.Element, category models.Category) (*models.EquipmentRecord, error) {
	designation, err := source.Resolve(el, FieldDesignation)
	if err != nil {
		return nil, err
	}
	if designation == "" {
		e.logger.Warn("Element has no designation, skipping",
			logger.Int64("elementId", el.ID()),
			logger.String("category", string(category)),
		)
		return nil, nil
	}

	rec := models.EquipmentRecord{
		ElementID:   el.ID(),
		Category:    category,
		Designation: designation,
	}

	descriptive := []struct {
		field  string
		target *string
	}{
		{FieldManufacturer, &rec.Manufacturer},
		{FieldModel, &rec.Model},
		{FieldLevel, &rec.Level},
		{FieldSystemType, &rec.SystemType},
	}
	for _, d := range descriptive {
		val, err := source.Resolve(el, d.field)
		if err != nil {
			return nil, err
		}
		*d.target = val
	}

	rec.Fingerprint = Fingerprint(rec)
	return &rec, nil
}
