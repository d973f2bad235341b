package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/pkg/response"
)

type catalogService interface {
	ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListTeachers(ctx context.Context, includeWorkload bool) ([]models.Teacher, error)
}

// CatalogHandler exposes the reference data the grid front-end needs.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Classes godoc
// @Summary List classes with schedules
// @Tags Catalog
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param subject query string false "Subject"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *CatalogHandler) Classes(c *gin.Context) {
	filter := models.ClassFilter{
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
		Subject:   strings.TrimSpace(c.Query("subject")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	classes, err := h.service.ListClasses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// TimeSlots godoc
// @Summary List the time-slot catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *CatalogHandler) TimeSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Rooms godoc
// @Summary List the room catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) Rooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Teachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Param include_workload query bool false "Attach workload summaries"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *CatalogHandler) Teachers(c *gin.Context) {
	includeWorkload := c.Query("include_workload") == "true"
	teachers, err := h.service.ListTeachers(c.Request.Context(), includeWorkload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
