package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/response"
)

// CalendarHandler exposes academic calendar endpoints.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// List godoc
// @Summary List academic calendars
// @Tags Calendars
// @Produce json
// @Param term_id query int false "Filter by term"
// @Param school_year query string false "Filter by school year, e.g. 2025-2026"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /calendars [get]
func (h *CalendarHandler) List(c *gin.Context) {
	termID, err := parseQueryInt64(c, "term_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.CalendarFilter{
		TermID:     termID,
		SchoolYear: c.Query("school_year"),
		Page:       parseQueryInt(c, "page", 1),
		PageSize:   parseQueryInt(c, "limit", 20),
		SortBy:     c.Query("sort"),
		SortOrder:  c.Query("order"),
	}
	calendars, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendars, pagination)
}

// Get godoc
// @Summary Get academic calendar
// @Tags Calendars
// @Produce json
// @Param id path int true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	calendar, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// Create godoc
// @Summary Create academic calendar
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body service.CalendarRequest true "Calendar payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /calendars [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req service.CalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	calendar, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, calendar)
}

// Update godoc
// @Summary Replace academic calendar
// @Tags Calendars
// @Accept json
// @Produce json
// @Param id path int true "Calendar ID"
// @Param payload body service.CalendarRequest true "Calendar payload"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	calendar, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// Delete godoc
// @Summary Delete academic calendar
// @Tags Calendars
// @Param id path int true "Calendar ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /calendars/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
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
