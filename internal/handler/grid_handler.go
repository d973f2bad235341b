package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classgrid/timetable-api/internal/dto"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
	"github.com/classgrid/timetable-api/pkg/response"
)

type gridService interface {
	OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.GridSnapshot, error)
	GetSnapshot(ctx context.Context, sessionID string) (*dto.GridSnapshot, error)
	BeginDrag(ctx context.Context, sessionID string, req dto.BeginDragRequest) error
	CancelDrag(ctx context.Context, sessionID string) error
	Drop(ctx context.Context, sessionID string, req dto.DropRequest) (*dto.GridSnapshot, error)
	Unassign(ctx context.Context, sessionID string, req dto.UnassignRequest) (*dto.GridSnapshot, error)
	SetFilter(ctx context.Context, sessionID string, req dto.FilterRequest) (*dto.GridSnapshot, error)
	Commit(ctx context.Context, sessionID string) (*dto.CommitResponse, error)
	Cancel(ctx context.Context, sessionID string) (*dto.GridSnapshot, error)
	CloseSession(sessionID string)
	ExportCSV(ctx context.Context, sessionID string) ([]byte, error)
	ExportPDF(ctx context.Context, sessionID string) ([]byte, error)
}

// GridHandler exposes the grid editing session endpoints.
type GridHandler struct {
	service gridService
}

// NewGridHandler constructs the handler.
func NewGridHandler(service gridService) *GridHandler {
	return &GridHandler{service: service}
}

// Open godoc
// @Summary Open a grid editing session
// @Tags Grid
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest false "Session options"
// @Success 201 {object} response.Envelope
// @Router /grid/sessions [post]
func (h *GridHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
			return
		}
	}
	snap, err := h.service.OpenSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, snap)
}

// Get godoc
// @Summary Fetch the current grid snapshot
// @Tags Grid
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id} [get]
func (h *GridHandler) Get(c *gin.Context) {
	snap, err := h.service.GetSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// BeginDrag godoc
// @Summary Record the start of a drag gesture
// @Tags Grid
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BeginDragRequest true "Drag payload"
// @Success 204 "No Content"
// @Router /grid/sessions/{id}/drag [post]
func (h *GridHandler) BeginDrag(c *gin.Context) {
	var req dto.BeginDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid drag payload"))
		return
	}
	if err := h.service.BeginDrag(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CancelDrag godoc
// @Summary Abandon the in-flight drag gesture
// @Tags Grid
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Router /grid/sessions/{id}/drag [delete]
func (h *GridHandler) CancelDrag(c *gin.Context) {
	if err := h.service.CancelDrag(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Drop godoc
// @Summary Drop the dragged class onto a grid cell
// @Tags Grid
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DropRequest true "Drop target"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id}/drop [post]
func (h *GridHandler) Drop(c *gin.Context) {
	var req dto.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid drop payload"))
		return
	}
	snap, err := h.service.Drop(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// Unassign godoc
// @Summary Drop the dragged class onto the unassign zone
// @Tags Grid
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UnassignRequest false "Fallback payload"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id}/unassign [post]
func (h *GridHandler) Unassign(c *gin.Context) {
	var req dto.UnassignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid unassign payload"))
			return
		}
	}
	snap, err := h.service.Unassign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// SetFilter godoc
// @Summary Replace the session view filter
// @Tags Grid
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.FilterRequest true "Filter"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id}/filter [put]
func (h *GridHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid filter payload"))
		return
	}
	snap, err := h.service.SetFilter(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// Commit godoc
// @Summary Replay staged changes against the backing store
// @Tags Grid
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id}/commit [post]
func (h *GridHandler) Commit(c *gin.Context) {
	resp, err := h.service.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Cancel godoc
// @Summary Discard staged changes and reload the grid
// @Tags Grid
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /grid/sessions/{id}/cancel [post]
func (h *GridHandler) Cancel(c *gin.Context) {
	snap, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// Close godoc
// @Summary Close a grid session
// @Tags Grid
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Router /grid/sessions/{id} [delete]
func (h *GridHandler) Close(c *gin.Context) {
	h.service.CloseSession(c.Param("id"))
	response.NoContent(c)
}

// Export godoc
// @Summary Export the session timetable
// @Tags Grid
// @Produce octet-stream
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /grid/sessions/{id}/export [get]
func (h *GridHandler) Export(c *gin.Context) {
	sessionID := c.Param("id")
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.service.ExportCSV(c.Request.Context(), sessionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.service.ExportPDF(c.Request.Context(), sessionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="timetable.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
