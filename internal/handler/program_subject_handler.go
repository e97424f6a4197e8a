package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/response"
)

// ProgramSubjectHandler exposes program subjects endpoints.
type ProgramSubjectHandler struct {
	service *service.ProgramSubjectService
}

// NewProgramSubjectHandler constructs a program subject handler.
func NewProgramSubjectHandler(svc *service.ProgramSubjectService) *ProgramSubjectHandler {
	return &ProgramSubjectHandler{service: svc}
}

// List godoc
// @Summary List program subjects
// @Tags ProgramSubjects
// @Produce json
// @Param q query string false "Search"
// @Param prog_code query string false "Filter by program code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /program-subjects [get]
func (h *ProgramSubjectHandler) List(c *gin.Context) {
	filter := models.CatalogFilter{
		Search:    c.Query("q"),
		ProgCode:  c.Query("prog_code"),
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
// @Summary Get program subject
// @Tags ProgramSubjects
// @Produce json
// @Param id path int true "Program subject ID"
// @Success 200 {object} response.Envelope
// @Router /program-subjects/{id} [get]
func (h *ProgramSubjectHandler) Get(c *gin.Context) {
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
// @Summary Create program subject
// @Tags ProgramSubjects
// @Accept json
// @Produce json
// @Param payload body service.ProgramSubjectRequest true "Program subject payload"
// @Success 201 {object} response.Envelope
// @Router /program-subjects [post]
func (h *ProgramSubjectHandler) Create(c *gin.Context) {
	var req service.ProgramSubjectRequest
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
// @Summary Update program subject
// @Tags ProgramSubjects
// @Accept json
// @Produce json
// @Param id path int true "Program subject ID"
// @Param payload body service.ProgramSubjectRequest true "Program subject payload"
// @Success 200 {object} response.Envelope
// @Router /program-subjects/{id} [put]
func (h *ProgramSubjectHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ProgramSubjectRequest
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
// @Summary Delete program subject
// @Tags ProgramSubjects
// @Param id path int true "Program subject ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /program-subjects/{id} [delete]
func (h *ProgramSubjectHandler) Delete(c *gin.Context) {
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
