package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/service"
)

type termRepoStub struct {
	items     map[int64]models.Term
	calendars int
}

func (s *termRepoStub) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	out := make([]models.Term, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, len(out), nil
}

func (s *termRepoStub) FindByID(ctx context.Context, id int64) (*models.Term, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *termRepoStub) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	for id, item := range s.items {
		if id != excludeID && item.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *termRepoStub) CountCalendars(ctx context.Context, id int64) (int, error) {
	return s.calendars, nil
}

func (s *termRepoStub) Create(ctx context.Context, term *models.Term) error {
	term.ID = int64(len(s.items) + 1)
	s.items[term.ID] = *term
	return nil
}

func (s *termRepoStub) Update(ctx context.Context, term *models.Term) error {
	s.items[term.ID] = *term
	return nil
}

func (s *termRepoStub) Delete(ctx context.Context, id int64) error {
	delete(s.items, id)
	return nil
}

func newTermRouter(repo *termRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTermHandler(service.NewTermService(repo, nil, nil))
	r := gin.New()
	r.GET("/terms", h.List)
	r.POST("/terms", h.Create)
	r.GET("/terms/:id", h.Get)
	r.PUT("/terms/:id", h.Update)
	r.DELETE("/terms/:id", h.Delete)
	return r
}

func TestTermHandlerCreateAndDuplicate(t *testing.T) {
	repo := &termRepoStub{items: map[int64]models.Term{}}
	r := newTermRouter(repo)

	w, _ := doJSON(t, r, http.MethodPost, "/terms", `{"name":"1st Semester"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/terms", `{"name":"1st Semester"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Error.Fields, "name")
}

func TestTermHandlerCreateMalformedBody(t *testing.T) {
	w, _ := doJSON(t, newTermRouter(&termRepoStub{items: map[int64]models.Term{}}), http.MethodPost, "/terms", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTermHandlerDeleteInUse(t *testing.T) {
	repo := &termRepoStub{items: map[int64]models.Term{1: {ID: 1, Name: "Summer"}}, calendars: 2}
	w, _ := doJSON(t, newTermRouter(repo), http.MethodDelete, "/terms/1", "")

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Len(t, repo.items, 1)
}

func TestTermHandlerDelete(t *testing.T) {
	repo := &termRepoStub{items: map[int64]models.Term{1: {ID: 1, Name: "Summer"}}}
	w, _ := doJSON(t, newTermRouter(repo), http.MethodDelete, "/terms/1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.items)
}

func TestTermHandlerGetNotFound(t *testing.T) {
	w, _ := doJSON(t, newTermRouter(&termRepoStub{items: map[int64]models.Term{}}), http.MethodGet, "/terms/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
