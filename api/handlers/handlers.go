package handlers

import (
	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/queue"
)

type Handlers struct {
	Extraction *ExtractionHandler
	Equipment  *EquipmentHandler
}

func NewHandlers(
	q queue.Queue,
	catalog store.CatalogRepo,
	versions store.VersionRepo,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Extraction: NewExtractionHandler(q, log),
		Equipment:  NewEquipmentHandler(catalog, versions, log),
	}
}
