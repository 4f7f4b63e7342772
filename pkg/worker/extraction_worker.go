package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/engdata/equipsync/internal/models"
	"github.com/engdata/equipsync/internal/service/extraction"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/queue"
)

// ExtractionWorker consumes extraction:run tasks and drives the pipeline.
type ExtractionWorker struct {
	BaseWorker
	service extraction.Service
	queue   queue.Queue
}

func NewExtractionWorker(cfg *Config, svc extraction.Service, q queue.Queue, log logger.Logger) (*ExtractionWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &ExtractionWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		service: svc,
		queue:   q,
	}

	w.mux.HandleFunc(queue.TaskTypeExtractionRun, w.handleExtractionRun)
	return w, nil
}

func (w *ExtractionWorker) handleExtractionRun(ctx context.Context, t *asynq.Task) error {
	var req queue.RunRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		w.logger.Error("Failed to unmarshal run request",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal run request: %w", err)
	}
	if req.RunID == "" {
		return fmt.Errorf("invalid run request: missing run id")
	}

	w.logger.Info("Starting extraction run",
		logger.String("runId", req.RunID),
		logger.String("filter", req.ProjectFilter),
	)

	w.saveStatus(ctx, &queue.RunStatus{
		RunID:     req.RunID,
		Status:    models.RunRunning,
		Filter:    req.ProjectFilter,
		StartedAt: time.Now(),
	})

	summary, err := w.service.Run(ctx, req.ProjectFilter)

	status := &queue.RunStatus{
		RunID:      req.RunID,
		Filter:     req.ProjectFilter,
		FinishedAt: time.Now(),
	}
	if summary != nil {
		status.StartedAt = summary.StartedAt
	}
	if err != nil {
		status.Status = models.RunFailed
		status.Error = err.Error()
		w.saveStatus(ctx, status)
		return err
	}

	status.Status = models.RunCompleted
	status.UnitsTotal = len(summary.Units)
	status.UnitsFailed = summary.UnitsFailed
	w.saveStatus(ctx, status)

	w.logger.Info("Extraction run completed",
		logger.String("runId", req.RunID),
		logger.Int("units", len(summary.Units)),
		logger.Int("unitsFailed", summary.UnitsFailed),
	)
	return nil
}

func (w *ExtractionWorker) saveStatus(ctx context.Context, status *queue.RunStatus) {
	if err := w.queue.SaveRunStatus(ctx, status); err != nil {
		w.logger.Error("Failed to save run status",
			logger.String("runId", status.RunID),
			logger.Error(err),
		)
	}
}

func (w *ExtractionWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
