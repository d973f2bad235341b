package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/classgrid/timetable-api/internal/dto"
	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

type fakeScheduleSrv struct {
	entry     *models.ScheduleEntry
	entries   []models.ScheduleEntry
	check     *dto.ConflictCheckResponse
	err       error
	lastQuery dto.ScheduleQuery
	lastID    string
}

func (f *fakeScheduleSrv) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntry, error) {
	f.lastQuery = query
	return f.entries, f.err
}

func (f *fakeScheduleSrv) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	f.lastID = id
	return f.entry, f.err
}

func (f *fakeScheduleSrv) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.ScheduleEntry, error) {
	return f.entry, f.err
}

func (f *fakeScheduleSrv) Update(ctx context.Context, id string, req dto.UpdateScheduleRequest) (*models.ScheduleEntry, error) {
	f.lastID = id
	return f.entry, f.err
}

func (f *fakeScheduleSrv) Delete(ctx context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeScheduleSrv) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	return f.check, f.err
}

func TestScheduleHandlerListNormalizesDay(t *testing.T) {
	srv := &fakeScheduleSrv{entries: []models.ScheduleEntry{{ID: "sched-1"}}}
	h := NewScheduleHandler(srv)

	c, rec := gridTestContext(t, http.MethodGet, "/schedules?day=monday", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MONDAY", srv.lastQuery.Day)
}

func TestScheduleHandlerCreate(t *testing.T) {
	srv := &fakeScheduleSrv{entry: &models.ScheduleEntry{ID: "sched-1", Day: "MONDAY"}}
	h := NewScheduleHandler(srv)

	c, rec := gridTestContext(t, http.MethodPost, "/schedules", dto.CreateScheduleRequest{
		ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1",
	})
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "sched-1")
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	srv := &fakeScheduleSrv{err: appErrors.Clone(appErrors.ErrConflict, "class already occupies this slot")}
	h := NewScheduleHandler(srv)

	c, rec := gridTestContext(t, http.MethodPost, "/schedules", dto.CreateScheduleRequest{
		ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1",
	})
	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScheduleHandlerDeleteNotFound(t *testing.T) {
	srv := &fakeScheduleSrv{err: appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")}
	h := NewScheduleHandler(srv)

	c, rec := gridTestContext(t, http.MethodDelete, "/schedules/sched-gone", nil)
	c.Params = gin.Params{{Key: "id", Value: "sched-gone"}}
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "sched-gone", srv.lastID)
}

func TestScheduleHandlerCheckConflicts(t *testing.T) {
	srv := &fakeScheduleSrv{check: &dto.ConflictCheckResponse{HasConflicts: true, Conflicts: []models.ScheduleConflict{{
		Dimension: models.ConflictDimensionTeacher, Day: "MONDAY", Time: "07:00", ClassName: "Math 9A",
	}}}}
	h := NewScheduleHandler(srv)

	c, rec := gridTestContext(t, http.MethodPost, "/schedules/check-conflicts", dto.ConflictCheckRequest{
		TeacherID: "teacher-1",
		Schedules: []models.ProposedSlot{{Day: "MONDAY", Time: "07:00"}},
	})
	h.CheckConflicts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"has_conflicts":true`)
}
