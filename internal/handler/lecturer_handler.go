package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/response"
)

// LecturerHandler exposes lecturers endpoints.
type LecturerHandler struct {
	service *service.LecturerService
}

// NewLecturerHandler constructs a lecturer handler.
func NewLecturerHandler(svc *service.LecturerService) *LecturerHandler {
	return &LecturerHandler{service: svc}
}

// List godoc
// @Summary List lecturers
// @Tags Lecturers
// @Produce json
// @Param q query string false "Search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	filter := models.CatalogFilter{
		Search:    c.Query("q"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 20),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get lecturer
// @Tags Lecturers
// @Produce json
// @Param id path int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param payload body service.LecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) Create(c *gin.Context) {
	var req service.LecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param id path int true "Lecturer ID"
// @Param payload body service.LecturerRequest true "Lecturer payload"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete lecturer
// @Tags Lecturers
// @Param id path int true "Lecturer ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
