package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
	"github.com/noah-isme/timetable-admin-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.LecturerScheduleFilter) ([]models.LecturerSchedule, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.LecturerSchedule, error)
	Create(ctx context.Context, req service.ScheduleRequest) (*models.LecturerSchedule, error)
	Update(ctx context.Context, id int64, req service.ScheduleRequest) (*models.LecturerSchedule, error)
	Delete(ctx context.Context, id int64) error
	CreateBatch(ctx context.Context, req service.BatchScheduleRequest) (*models.ScheduleBatch, error)
	Validate(ctx context.Context, req service.ValidateScheduleRequest) (*models.ScheduleValidationReport, error)
	ListByLecturer(ctx context.Context, lecturerID int64) ([]models.LecturerSchedule, error)
	ListByClass(ctx context.Context, classID int64) ([]models.LecturerSchedule, error)
	ListByRoom(ctx context.Context, roomCode string) ([]models.LecturerSchedule, error)
}

// ScheduleHandler exposes lecturer schedule endpoints and the timetable views.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List lecturer schedules
// @Tags Schedules
// @Produce json
// @Param lecturer_id query int false "Lecturer"
// @Param class_id query int false "Class"
// @Param sy_term_id query int false "Academic calendar"
// @Param room_code query string false "Room"
// @Param day query string false "Weekday"
// @Param batch_no query int false "Batch number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter, err := parseScheduleFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get lecturer schedule
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create lecturer schedule
// @Description Rejects the entry when its room, lecturer or class is already booked at an overlapping time on the same day within an overlapping calendar.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondSchedule(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Edit lecturer schedule
// @Description Conflicts are checked against entries of the same batch. The batch number cannot be changed.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondSchedule(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete lecturer schedule
// @Tags Schedules
// @Param id path int true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
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

// CreateBatch godoc
// @Summary Create a schedule batch
// @Description Stores every item under one new batch number, or none of them.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.BatchScheduleRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/batches [post]
func (h *ScheduleHandler) CreateBatch(c *gin.Context) {
	var req service.BatchScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	batch, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondSchedule(c, err)
		return
	}
	response.Created(c, batch)
}

// Validate godoc
// @Summary Check a schedule without saving it
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ValidateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req service.ValidateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	report, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ByLecturer godoc
// @Summary Lecturer timetable
// @Tags Timetables
// @Produce json
// @Param id path int true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/schedules [get]
func (h *ScheduleHandler) ByLecturer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	schedules, err := h.service.ListByLecturer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// ByGroup godoc
// @Summary Class timetable
// @Tags Timetables
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/schedules [get]
func (h *ScheduleHandler) ByGroup(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	schedules, err := h.service.ListByClass(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// ByRoom godoc
// @Summary Room bookings
// @Tags Timetables
// @Produce json
// @Param id path string true "Room code"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/schedules [get]
func (h *ScheduleHandler) ByRoom(c *gin.Context) {
	// The segment shares the :id wildcard with /rooms/:id but carries the room code.
	code := strings.TrimSpace(c.Param("id"))
	if code == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "room code is required").
			WithFields(map[string]string{"room_code": "required"}))
		return
	}
	schedules, err := h.service.ListByRoom(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// respondSchedule writes a schedule write failure, attaching the colliding
// entries to the envelope meta so clients can show what blocked the write.
func respondSchedule(c *gin.Context, err error) {
	var conflict *models.ScheduleConflictError
	if errors.As(err, &conflict) && len(conflict.Conflicts) > 0 {
		response.ErrorWithMeta(c, err, map[string]interface{}{"conflicts": conflict.Conflicts})
		return
	}
	var batch *models.ScheduleBatchError
	if errors.As(err, &batch) {
		response.ErrorWithMeta(c, err, map[string]interface{}{"rejections": batch.Rejections})
		return
	}
	response.Error(c, err)
}

func parseScheduleFilter(c *gin.Context) (models.LecturerScheduleFilter, error) {
	filter := models.LecturerScheduleFilter{
		RoomCode:  strings.TrimSpace(c.Query("room_code")),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "limit", 20),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	var err error
	if filter.LecturerID, err = parseQueryInt64(c, "lecturer_id"); err != nil {
		return filter, err
	}
	if filter.ClassID, err = parseQueryInt64(c, "class_id"); err != nil {
		return filter, err
	}
	if filter.SYTermID, err = parseQueryInt64(c, "sy_term_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("day"); raw != "" {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid day").
				WithFields(map[string]string{"day": err.Error()})
		}
		filter.Day = day
	}
	if c.Query("batch_no") != "" {
		batchNo, err := parseQueryInt64(c, "batch_no")
		if err != nil {
			return filter, err
		}
		filter.BatchNo = &batchNo
	}
	return filter, nil
}
