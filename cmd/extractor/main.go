package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/engdata/equipsync/config"
	"github.com/engdata/equipsync/internal/extractor"
	"github.com/engdata/equipsync/internal/service/extraction"
	"github.com/engdata/equipsync/internal/source/bundle"
	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/storage"
)

// Exit codes: 0 all units processed, 1 one or more units failed, 2 an
// explicit project filter matched nothing.
const (
	exitOK        = 0
	exitFailures  = 1
	exitNoMatches = 2
)

func main() {
	project := flag.String("project", "", "process only this project number")
	envFile := flag.String("env", ".env", "path to env file")
	flag.Parse()

	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/extractor.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error("Failed to load config", logger.Error(err))
		os.Exit(exitFailures)
	}

	db, err := store.Open(&store.Config{
		Dialect: cfg.Store.Dialect,
		DSN:     cfg.Store.DSN,
	}, log)
	if err != nil {
		log.Error("Failed to open store", logger.Error(err))
		os.Exit(exitFailures)
	}

	provider, err := storage.NewProvider(&cfg.Storage, log)
	if err != nil {
		log.Error("Failed to create storage provider", logger.Error(err))
		os.Exit(exitFailures)
	}

	svc := extraction.NewService(
		store.NewCatalogRepo(db, log),
		store.NewVersionRepo(db, log),
		extractor.NewExtractor(bundle.NewOpener(provider, log), log),
		provider,
		log,
		&extraction.Config{
			MaxConcurrentUnits:  cfg.Run.MaxConcurrentUnits,
			DocumentOpenTimeout: cfg.Run.DocumentOpenTimeout,
			Discovery:           bundle.DefaultDiscovery(),
		},
	)

	// SIGINT/SIGTERM cancel between units and between elements.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, err := svc.Run(ctx, *project)
	if err != nil {
		log.Error("Extraction run failed", logger.Error(err))
		os.Exit(exitFailures)
	}

	for _, unit := range summary.Units {
		log.Info("Unit result",
			logger.String("project", unit.ProjectNumber),
			logger.String("status", string(unit.Status)),
			logger.Int("files", unit.FilesFound),
			logger.Int("extracted", unit.Extracted),
			logger.Int("inserted", unit.Inserted),
			logger.Int("superseded", unit.Superseded),
			logger.Int("touched", unit.Touched),
			logger.Int("elementSkips", unit.ElementSkips),
		)
	}
	log.Info("Run summary",
		logger.String("runId", summary.RunID),
		logger.Int("units", len(summary.Units)),
		logger.Int("unitsFailed", summary.UnitsFailed),
	)

	if *project != "" && len(summary.Units) == 0 {
		os.Exit(exitNoMatches)
	}
	if summary.UnitsFailed > 0 {
		os.Exit(exitFailures)
	}
	os.Exit(exitOK)
}
