package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/engdata/equipsync/api/handlers"
	"github.com/engdata/equipsync/api/middleware"
)

// SetupRoutes wires all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	runs := v1.Group("/extractions")
	{
		runs.POST("", h.Extraction.StartRun)
		runs.GET("/:runId", h.Extraction.GetRunStatus)
	}

	v1.GET("/units", h.Equipment.ListUnits)

	projects := v1.Group("/projects/:project")
	{
		projects.GET("/equipment", h.Equipment.ListActive)
		projects.GET("/equipment/:designation/history", h.Equipment.History)
	}
}
