package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/engdata/equipsync/config"
	"github.com/engdata/equipsync/internal/extractor"
	"github.com/engdata/equipsync/internal/service/extraction"
	"github.com/engdata/equipsync/internal/source/bundle"
	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/queue"
	"github.com/engdata/equipsync/pkg/storage"
	"github.com/engdata/equipsync/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load("")
	if err != nil {
		log.Error("Failed to load config", logger.Error(err))
		os.Exit(1)
	}

	db, err := store.Open(&store.Config{
		Dialect: cfg.Store.Dialect,
		DSN:     cfg.Store.DSN,
	}, log)
	if err != nil {
		log.Error("Failed to open store", logger.Error(err))
		os.Exit(1)
	}

	provider, err := storage.NewProvider(&cfg.Storage, log)
	if err != nil {
		log.Error("Failed to create storage provider", logger.Error(err))
		os.Exit(1)
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

	q, err := queue.NewAsynqQueue(&queue.Config{
		RedisAddr: cfg.Redis.Addr,
		RedisDB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Error("Failed to connect queue", logger.Error(err))
		os.Exit(1)
	}
	defer q.Close()

	workerCfg := &worker.Config{
		RedisAddr:   cfg.Redis.Addr,
		RedisDB:     cfg.Redis.DB,
		Concurrency: 2,
		Queues: map[string]int{
			"default": 1,
		},
	}

	extractionWorker, err := worker.NewExtractionWorker(workerCfg, svc, q, log)
	if err != nil {
		log.Error("Failed to create extraction worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := extractionWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	extractionWorker.Stop()
	log.Info("Worker stopped")
}
