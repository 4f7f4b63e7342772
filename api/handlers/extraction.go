package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/queue"
)

type ExtractionHandler struct {
	queue  queue.Queue
	logger logger.Logger
}

// RunRequest is the body of POST /extractions.
type RunRequest struct {
	ProjectFilter string `json:"projectFilter"`
}

// RunResponse acknowledges an enqueued run.
type RunResponse struct {
	RunID     string `json:"runId"`
	Status    string `json:"status"`
	Filter    string `json:"filter,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse is the error body shared by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewExtractionHandler(q queue.Queue, log logger.Logger) *ExtractionHandler {
	return &ExtractionHandler{
		queue:  q,
		logger: log,
	}
}

// StartRun enqueues an extraction run
func (h *ExtractionHandler) StartRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	runReq := &queue.RunRequest{
		RunID:         uuid.New().String(),
		ProjectFilter: req.ProjectFilter,
		RequestedAt:   time.Now(),
	}

	if err := h.queue.Enqueue(c.Request.Context(), runReq); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to enqueue run", err)
		return
	}

	h.logger.Info("Extraction run enqueued",
		logger.String("runId", runReq.RunID),
		logger.String("filter", runReq.ProjectFilter),
	)

	c.JSON(http.StatusAccepted, RunResponse{
		RunID:     runReq.RunID,
		Status:    "pending",
		Filter:    runReq.ProjectFilter,
		CreatedAt: runReq.RequestedAt.Format(time.RFC3339),
	})
}

// GetRunStatus returns the state of one run
func (h *ExtractionHandler) GetRunStatus(c *gin.Context) {
	runID := c.Param("runId")
	if runID == "" {
		h.handleError(c, http.StatusBadRequest, "Run ID is required", nil)
		return
	}

	status, err := h.queue.GetRunStatus(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, queue.ErrRunNotFound) {
			h.handleError(c, http.StatusNotFound, "Run not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get run status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ExtractionHandler) handleError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	}
	if err != nil {
		h.logger.Error(message, logger.Error(err))
	}
	c.JSON(code, resp)
}
