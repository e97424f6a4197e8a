package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/handler"
	"github.com/noah-isme/timetable-admin-api/internal/service"
	"github.com/noah-isme/timetable-admin-api/pkg/config"
)

func testHandlers(metrics *service.MetricsService) Handlers {
	return Handlers{
		Terms:           handler.NewTermHandler(nil),
		Calendars:       handler.NewCalendarHandler(nil),
		Rooms:           handler.NewRoomHandler(nil),
		Lecturers:       handler.NewLecturerHandler(nil),
		Groups:          handler.NewGroupHandler(nil),
		ProgramSubjects: handler.NewProgramSubjectHandler(nil),
		Schedules:       handler.NewScheduleHandler(nil),
		Metrics:         handler.NewMetricsHandler(metrics, nil),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestNewRegistersTimetableRoutes(t *testing.T) {
	r := New(testConfig(), zap.NewNop(), service.NewMetricsService(), testHandlers(nil))

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/schedules",
		"POST /api/v1/schedules/validate",
		"POST /api/v1/schedules/batches",
		"PUT /api/v1/schedules/:id",
		"DELETE /api/v1/schedules/:id",
		"GET /api/v1/rooms/:id/schedules",
		"GET /api/v1/lecturers/:id/schedules",
		"GET /api/v1/groups/:id/schedules",
		"DELETE /api/v1/calendars/:id",
		"GET /metrics",
		"GET /metrics/summary",
		"GET /ready",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestNewServesHealthAndMetrics(t *testing.T) {
	metrics := service.NewMetricsService()
	r := New(testConfig(), zap.NewNop(), metrics, testHandlers(metrics))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestNewRejectsInvalidScheduleID(t *testing.T) {
	r := New(testConfig(), zap.NewNop(), nil, testHandlers(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schedules/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
