package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgrid/timetable-api/internal/dto"
	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

type scheduleStoreStub struct {
	entries map[string]*models.ScheduleEntry
	nextID  int
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{entries: make(map[string]*models.ScheduleEntry)}
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if filter.ClassID != "" && entry.ClassID != filter.ClassID {
			continue
		}
		if filter.Day != "" && entry.Day != filter.Day {
			continue
		}
		if filter.RoomID != "" && (entry.RoomID == nil || *entry.RoomID != filter.RoomID) {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *entry
	return &copied, nil
}

func (s *scheduleStoreStub) ExistsForClassSlot(ctx context.Context, classID, day, timeSlotID, excludeID string) (bool, error) {
	for _, entry := range s.entries {
		if entry.ClassID == classID && entry.Day == day && entry.TimeSlotID == timeSlotID && entry.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *scheduleStoreStub) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	s.nextID++
	if entry.ID == "" {
		entry.ID = "sched-" + string(rune('0'+s.nextID))
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *scheduleStoreStub) Update(ctx context.Context, id, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	entry.Day = day
	entry.TimeSlotID = timeSlotID
	entry.RoomID = roomID
	entry.Time = ""
	copied := *entry
	return &copied, nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.entries, id)
	return nil
}

type classStoreStub struct {
	classes map[string]*models.ClassEntity
	repo    *scheduleStoreStub
}

func newClassStoreStub(repo *scheduleStoreStub, classes ...models.ClassEntity) *classStoreStub {
	stub := &classStoreStub{classes: make(map[string]*models.ClassEntity), repo: repo}
	for i := range classes {
		stub.classes[classes[i].ID] = &classes[i]
	}
	return stub
}

func (c *classStoreStub) FindByID(ctx context.Context, id string) (*models.ClassEntity, error) {
	class, ok := c.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *class
	return &copied, nil
}

func (c *classStoreStub) ListWithSchedules(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error) {
	var out []models.ClassEntity
	for _, class := range c.classes {
		if filter.TeacherID != "" && (class.TeacherID == nil || *class.TeacherID != filter.TeacherID) {
			continue
		}
		copied := *class
		if c.repo != nil {
			copied.Schedules, _ = c.repo.List(ctx, models.ScheduleFilter{ClassID: class.ID})
		}
		out = append(out, copied)
	}
	return out, nil
}

type slotFinderStub struct {
	slots []models.TimeSlot
}

func (s *slotFinderStub) List(ctx context.Context) ([]models.TimeSlot, error) {
	return s.slots, nil
}

func (s *slotFinderStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	for i := range s.slots {
		if s.slots[i].ID == id {
			return &s.slots[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func newScheduleFixture() (*scheduleStoreStub, *ScheduleService) {
	teacher1 := "teacher-1"
	repo := newScheduleStoreStub()
	classes := newClassStoreStub(repo,
		models.ClassEntity{ID: "class-1", Name: "Math 9A", TeacherID: &teacher1},
	)
	slots := &slotFinderStub{slots: []models.TimeSlot{
		{ID: "slot-1", Label: "Period 1", StartTime: "07:00", EndTime: "08:00"},
		{ID: "slot-2", Label: "Period 2", StartTime: "08:00", EndTime: "09:00"},
	}}
	return repo, NewScheduleService(repo, classes, slots, nil, nil)
}

func TestScheduleServiceCreate(t *testing.T) {
	_, svc := newScheduleFixture()

	entry, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "MONDAY", entry.Day)
}

func TestScheduleServiceCreateRejectsDuplicateCell(t *testing.T) {
	_, svc := newScheduleFixture()

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), dto.CreateScheduleRequest{ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateUnknownClass(t *testing.T) {
	_, svc := newScheduleFixture()

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{ClassID: "class-nope", Day: "MONDAY", TimeSlotID: "slot-1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestScheduleServiceCreateValidatesDay(t *testing.T) {
	_, svc := newScheduleFixture()

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{ClassID: "class-1", Day: "SUNDAY", TimeSlotID: "slot-1"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestScheduleServiceUpdateMissingEntry(t *testing.T) {
	_, svc := newScheduleFixture()

	_, err := svc.Update(context.Background(), "sched-nope", dto.UpdateScheduleRequest{Day: "MONDAY", TimeSlotID: "slot-1"})
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestScheduleServiceDeleteMissingEntry(t *testing.T) {
	_, svc := newScheduleFixture()

	err := svc.Delete(context.Background(), "sched-nope")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestScheduleServiceCheckConflictsTeacher(t *testing.T) {
	repo, svc := newScheduleFixture()
	room := "room-1"
	repo.entries["sched-1"] = &models.ScheduleEntry{
		ID: "sched-1", ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: &room,
	}

	resp, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TeacherID: "teacher-1",
		Schedules: []models.ProposedSlot{{Day: "MONDAY", Time: "07:00"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.HasConflicts)
	require.NotEmpty(t, resp.Conflicts)
	assert.Equal(t, models.ConflictDimensionTeacher, resp.Conflicts[0].Dimension)
	assert.Equal(t, "Math 9A", resp.Conflicts[0].ClassName)
}

func TestScheduleServiceCheckConflictsRoom(t *testing.T) {
	repo, svc := newScheduleFixture()
	room := "room-1"
	repo.entries["sched-1"] = &models.ScheduleEntry{
		ID: "sched-1", ClassID: "class-1", Day: "TUESDAY", TimeSlotID: "slot-2", RoomID: &room,
	}

	resp, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TeacherID: "teacher-9",
		Schedules: []models.ProposedSlot{{Day: "TUESDAY", Time: "Period 2", RoomID: &room}},
	})
	require.NoError(t, err)
	assert.True(t, resp.HasConflicts)
	require.NotEmpty(t, resp.Conflicts)
	assert.Equal(t, models.ConflictDimensionRoom, resp.Conflicts[0].Dimension)
}

func TestScheduleServiceCheckConflictsRoomOnlyWithoutTeacher(t *testing.T) {
	repo, svc := newScheduleFixture()
	room := "room-1"
	repo.entries["sched-1"] = &models.ScheduleEntry{
		ID: "sched-1", ClassID: "class-1", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: &room,
	}

	resp, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		Schedules: []models.ProposedSlot{{Day: "MONDAY", Time: "07:00", RoomID: &room}},
	})
	require.NoError(t, err)
	assert.True(t, resp.HasConflicts)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, models.ConflictDimensionRoom, resp.Conflicts[0].Dimension)
}

func TestScheduleServiceCheckConflictsClean(t *testing.T) {
	_, svc := newScheduleFixture()

	resp, err := svc.CheckConflicts(context.Background(), dto.ConflictCheckRequest{
		TeacherID: "teacher-1",
		Schedules: []models.ProposedSlot{{Day: "FRIDAY", Time: "07:00"}},
	})
	require.NoError(t, err)
	assert.False(t, resp.HasConflicts)
	assert.Empty(t, resp.Conflicts)
}
