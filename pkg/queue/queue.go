package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/engdata/equipsync/internal/models"
)

// TaskTypeExtractionRun is the queued task kind for one extraction run.
const TaskTypeExtractionRun = "extraction:run"

// RunRequest asks the worker to process the catalog, optionally narrowed to
// one project.
type RunRequest struct {
	RunID         string    `json:"runId"`
	ProjectFilter string    `json:"projectFilter,omitempty"`
	RequestedAt   time.Time `json:"requestedAt"`
}

// RunStatus is the externally visible state of one run, persisted in Redis
// so the API can answer status queries after the task leaves the queue.
type RunStatus struct {
	RunID       string           `json:"runId"`
	Status      models.RunStatus `json:"status"`
	Filter      string           `json:"filter,omitempty"`
	UnitsTotal  int              `json:"unitsTotal"`
	UnitsFailed int              `json:"unitsFailed"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	FinishedAt  time.Time        `json:"finishedAt,omitempty"`
}

// ErrRunNotFound is returned when neither Redis nor the queue knows a run.
var ErrRunNotFound = errors.New("run not found")

// Queue enqueues extraction runs and tracks their status.
type Queue interface {
	Enqueue(ctx context.Context, req *RunRequest) error
	GetRunStatus(ctx context.Context, runID string) (*RunStatus, error)
	SaveRunStatus(ctx context.Context, status *RunStatus) error
}

// Config for the asynq-backed queue.
type Config struct {
	RedisAddr      string
	RedisDB        int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	StatusTTL      time.Duration
}

// AsynqQueue implements Queue on asynq with Redis status persistence.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       *Config
}

func NewAsynqQueue(cfg *Config) (*AsynqQueue, error) {
	if cfg.StatusTTL == 0 {
		cfg.StatusTTL = 7 * 24 * time.Hour
	}
	if cfg.ProcessTimeout == 0 {
		cfg.ProcessTimeout = 2 * time.Hour
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
		cfg: cfg,
	}, nil
}

// Enqueue implements Queue.Enqueue
func (q *AsynqQueue) Enqueue(ctx context.Context, req *RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.ProcessTimeout),
		asynq.TaskID(req.RunID),
	}

	t := asynq.NewTask(TaskTypeExtractionRun, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue run: %w", err)
	}

	return q.SaveRunStatus(ctx, &RunStatus{
		RunID:     req.RunID,
		Status:    models.RunPending,
		Filter:    req.ProjectFilter,
		StartedAt: req.RequestedAt,
	})
}

// GetRunStatus implements Queue.GetRunStatus
func (q *AsynqQueue) GetRunStatus(ctx context.Context, runID string) (*RunStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(runID)).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	if err == nil {
		var status RunStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	// Not in Redis; fall back to the queue itself.
	info, err := q.inspector.GetTaskInfo("default", runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return convertTaskInfo(info), nil
}

// SaveRunStatus implements Queue.SaveRunStatus
func (q *AsynqQueue) SaveRunStatus(ctx context.Context, status *RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, statusKey(status.RunID), data, q.cfg.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

// Close releases the queue client and Redis connections.
func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	if err := q.inspector.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}

func statusKey(runID string) string {
	return fmt.Sprintf("run_status:%s", runID)
}

func convertTaskInfo(info *asynq.TaskInfo) *RunStatus {
	status := &RunStatus{
		RunID:     info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled:
		status.Status = models.RunPending
	case asynq.TaskStateActive:
		status.Status = models.RunRunning
	case asynq.TaskStateCompleted:
		status.Status = models.RunCompleted
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = models.RunFailed
		status.Error = info.LastErr
	default:
		status.Status = models.RunPending
	}
	return status
}
