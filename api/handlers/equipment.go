package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
)

type EquipmentHandler struct {
	catalog  store.CatalogRepo
	versions store.VersionRepo
	logger   logger.Logger
}

func NewEquipmentHandler(catalog store.CatalogRepo, versions store.VersionRepo, log logger.Logger) *EquipmentHandler {
	return &EquipmentHandler{
		catalog:  catalog,
		versions: versions,
		logger:   log,
	}
}

// ListUnits returns the catalog's eligible processing units
func (h *EquipmentHandler) ListUnits(c *gin.Context) {
	units, err := h.catalog.ListUnits(c.Request.Context(), c.Query("project"))
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to read catalog", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(units),
		"units": units,
	})
}

// ListActive returns the current Active version of every tracked item in a
// project
func (h *EquipmentHandler) ListActive(c *gin.Context) {
	project := c.Param("project")
	if project == "" {
		h.handleError(c, http.StatusBadRequest, "Project number is required", nil)
		return
	}

	versions, err := h.versions.ListActive(c.Request.Context(), project)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list equipment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":   project,
		"count":     len(versions),
		"equipment": versions,
	})
}

// History returns every stored version of one identity key
func (h *EquipmentHandler) History(c *gin.Context) {
	project := c.Param("project")
	designation := c.Param("designation")
	if project == "" || designation == "" {
		h.handleError(c, http.StatusBadRequest, "Project number and designation are required", nil)
		return
	}

	versions, err := h.versions.History(c.Request.Context(), project, designation)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	if len(versions) == 0 {
		h.handleError(c, http.StatusNotFound, "No versions for designation", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":     project,
		"designation": designation,
		"versions":    versions,
	})
}

func (h *EquipmentHandler) handleError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	}
	if err != nil {
		h.logger.Error(message, logger.Error(err))
	}
	c.JSON(code, resp)
}
