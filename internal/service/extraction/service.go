package extraction

import (
	"context"
	"time"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/source/bundle"
)

// Service runs the extraction-fingerprint-reconciliation pipeline over the
// catalog's processing units.
type Service interface {
	// Run processes every eligible unit, optionally narrowed to one
	// project. Per-unit failures are isolated and reported in the summary;
	// Run itself only fails when the catalog cannot be read.
	Run(ctx context.Context, projectFilter string) (*models.RunSummary, error)
}

// Config tunes one run.
type Config struct {
	// MaxConcurrentUnits bounds parallel unit processing; sized to the
	// store's safe concurrent-connection budget.
	MaxConcurrentUnits int

	// DocumentOpenTimeout caps each document open. External opens can hang.
	DocumentOpenTimeout time.Duration

	// Discovery describes where model bundles live under a unit's base
	// path.
	Discovery bundle.DiscoveryConfig
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrentUnits:  4,
		DocumentOpenTimeout: 2 * time.Minute,
		Discovery:           bundle.DefaultDiscovery(),
	}
}
