package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgrid/timetable-api/internal/models"
)

func testClasses() []models.ClassEntity {
	return []models.ClassEntity{
		{
			ID: "class-math", Name: "Math 9A", Subject: "Mathematics", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{
				{ID: "sched-1", ClassID: "class-math", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1")},
			},
		},
		{ID: "class-phys", Name: "Physics 9A", Subject: "Physics", TeacherID: strPtr("teacher-2")},
	}
}

func newTestSession(t *testing.T) *GridSession {
	t.Helper()
	return NewGridSession("session-1", testClasses(), testSlots(), testRooms(), testTeachers(), true)
}

func TestNewGridSessionPartitionsPools(t *testing.T) {
	s := newTestSession(t)

	require.Len(t, s.Scheduled, 1)
	require.Len(t, s.Unassigned, 1)
	assert.Equal(t, "class-math", s.Scheduled[0].ID)
	assert.Equal(t, "class-phys", s.Unassigned[0].ID)
	require.NotNil(t, s.Scheduled[0].Schedules[0].TimeSlot)
	assert.Equal(t, "Period 1", s.Scheduled[0].Schedules[0].TimeSlot.Label)
	assert.Empty(t, s.Conflicts)
}

func TestDropOnCellFromUnassignedStagesCreate(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))

	change, err := s.DropOnCell("TUESDAY", "slot-1", nil)
	require.NoError(t, err)
	require.NotNil(t, change)

	assert.Equal(t, models.ChangeCreate, change.Type)
	assert.True(t, models.IsTempScheduleID(change.ScheduleID))
	assert.Equal(t, "TUESDAY", change.Day)
	assert.Equal(t, "Period 1", change.TimeSlotLabel)

	assert.Equal(t, 1, s.Ledger.Len())
	assert.False(t, s.Dragging())
	require.Len(t, s.Scheduled, 2)
	assert.Empty(t, s.Unassigned)
}

func TestDropOnCellMoveStagesUpdate(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.BeginDrag("class-math", DragSource{
		ScheduleID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1"),
	}))

	change, err := s.DropOnCell("WEDNESDAY", "slot-2", nil)
	require.NoError(t, err)
	require.NotNil(t, change)

	assert.Equal(t, models.ChangeUpdate, change.Type)
	assert.Equal(t, "sched-1", change.ScheduleID)
	assert.Equal(t, "MONDAY", change.PrevDay)
	assert.Equal(t, "Period 1", change.PrevTimeSlotLabel)
	require.NotNil(t, change.RoomID)
	assert.Equal(t, "room-1", *change.RoomID)

	entry := s.Scheduled[0].Schedules[0]
	assert.Equal(t, "WEDNESDAY", entry.Day)
	assert.Equal(t, "slot-2", entry.TimeSlotID)
}

func TestDropOnSourceCellIsNoOp(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.BeginDrag("class-math", DragSource{
		ScheduleID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1",
	}))

	change, err := s.DropOnCell("MONDAY", "slot-1", nil)
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Zero(t, s.Ledger.Len())
	assert.False(t, s.Dragging())
}

func TestDropRejectsDuplicateSlotForClass(t *testing.T) {
	classes := testClasses()
	classes[0].Schedules = append(classes[0].Schedules, models.ScheduleEntry{
		ID: "sched-2", ClassID: "class-math", Day: "TUESDAY", TimeSlotID: "slot-1",
	})
	s := NewGridSession("session-1", classes, testSlots(), testRooms(), testTeachers(), true)

	require.NoError(t, s.BeginDrag("class-math", DragSource{
		ScheduleID: "sched-2", Day: "TUESDAY", TimeSlotID: "slot-1",
	}))
	change, err := s.DropOnCell("MONDAY", "slot-1", nil)
	require.Error(t, err)
	assert.Nil(t, change)
	assert.Contains(t, err.Error(), "already scheduled")

	// the gesture aborted without touching anything
	assert.Zero(t, s.Ledger.Len())
	assert.Equal(t, "TUESDAY", s.Scheduled[0].Schedules[1].Day)
	assert.False(t, s.Dragging())
}

func TestDropRejectsUnknownCell(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	_, err := s.DropOnCell("SUNDAY", "slot-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown day")

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	_, err = s.DropOnCell("MONDAY", "slot-99", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown time slot")
}

func TestDropStampsRoomFromActiveFilter(t *testing.T) {
	s := newTestSession(t)
	s.SetFilter(Filter{RoomID: "room-2"})

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	change, err := s.DropOnCell("TUESDAY", "slot-1", nil)
	require.NoError(t, err)
	require.NotNil(t, change.RoomID)
	assert.Equal(t, "room-2", *change.RoomID)
}

func TestDropKeepsSourceRoomOverFilter(t *testing.T) {
	s := newTestSession(t)
	s.SetFilter(Filter{RoomID: "room-2"})

	require.NoError(t, s.BeginDrag("class-math", DragSource{
		ScheduleID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1"),
	}))
	change, err := s.DropOnCell("WEDNESDAY", "slot-2", nil)
	require.NoError(t, err)
	require.NotNil(t, change.RoomID)
	assert.Equal(t, "room-1", *change.RoomID)
}

func TestDropWithoutStampingLeavesRoomEmpty(t *testing.T) {
	s := NewGridSession("session-1", testClasses(), testSlots(), testRooms(), testTeachers(), false)
	s.SetFilter(Filter{RoomID: "room-2"})

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	change, err := s.DropOnCell("TUESDAY", "slot-1", nil)
	require.NoError(t, err)
	assert.Nil(t, change.RoomID)
}

func TestDropResolvesFromPayloadFallback(t *testing.T) {
	s := newTestSession(t)

	// no BeginDrag was recorded; the payload alone identifies the class
	change, err := s.DropOnCell("TUESDAY", "slot-2", &DragPayload{ClassID: "class-phys"})
	require.NoError(t, err)
	assert.Equal(t, models.ChangeCreate, change.Type)

	// schedule id alone resolves to the owning class and its source cell
	change, err = s.DropOnCell("THURSDAY", "slot-2", &DragPayload{ScheduleID: "sched-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ChangeUpdate, change.Type)
	assert.Equal(t, "sched-1", change.ScheduleID)
	assert.Equal(t, "MONDAY", change.PrevDay)
}

func TestDropWithNoDragAndNoPayloadFails(t *testing.T) {
	s := newTestSession(t)

	_, err := s.DropOnCell("MONDAY", "slot-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot identify dragged class")
}

func TestDropToUnassignedStagesDeletes(t *testing.T) {
	classes := testClasses()
	classes[0].Schedules = append(classes[0].Schedules, models.ScheduleEntry{
		ID: "sched-2", ClassID: "class-math", Day: "FRIDAY", TimeSlotID: "slot-2",
	})
	s := NewGridSession("session-1", classes, testSlots(), testRooms(), testTeachers(), true)

	require.NoError(t, s.BeginDrag("class-math", DragSource{ScheduleID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1"}))
	changes, err := s.DropToUnassigned(nil)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, models.ChangeDelete, changes[0].Type)
	assert.Equal(t, "sched-1", changes[0].ScheduleID)
	assert.Equal(t, "sched-2", changes[1].ScheduleID)

	assert.Equal(t, 2, s.Ledger.Len())
	assert.Empty(t, s.Scheduled)
	require.Len(t, s.Unassigned, 2)
	assert.Empty(t, s.Unassigned[1].Schedules)
}

func TestDropToUnassignedAlreadyUnassigned(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	_, err := s.DropToUnassigned(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already unassigned")
}

func TestUnassignCancelsStagedCreate(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	change, err := s.DropOnCell("TUESDAY", "slot-1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, s.Ledger.Len())

	require.NoError(t, s.BeginDrag("class-phys", DragSource{
		ScheduleID: change.ScheduleID, Day: "TUESDAY", TimeSlotID: "slot-1",
	}))
	_, err = s.DropToUnassigned(nil)
	require.NoError(t, err)

	// nothing was ever persisted, so nothing is left to commit
	assert.Zero(t, s.Ledger.Len())
}

func TestDropUpdatesConflicts(t *testing.T) {
	classes := testClasses()
	classes[1].TeacherID = strPtr("teacher-1") // same teacher as Math 9A
	s := NewGridSession("session-1", classes, testSlots(), testRooms(), testTeachers(), true)
	require.Empty(t, s.Conflicts)

	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	_, err := s.DropOnCell("MONDAY", "slot-1", nil)
	require.NoError(t, err)

	require.Len(t, s.Conflicts, 1)
	assert.Equal(t, ConflictTeacher, s.Conflicts[0].Kind)
}

func TestCancelDrag(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.BeginDrag("class-math", DragSource{ScheduleID: "sched-1"}))
	require.True(t, s.Dragging())
	s.CancelDrag()
	assert.False(t, s.Dragging())
}

func TestBeginDragUnknownClass(t *testing.T) {
	s := newTestSession(t)

	err := s.BeginDrag("class-nope", DragSource{})
	require.Error(t, err)
	assert.False(t, s.Dragging())
}

func TestVisibleScheduledFilters(t *testing.T) {
	classes := testClasses()
	classes[1].Schedules = []models.ScheduleEntry{
		{ID: "sched-3", ClassID: "class-phys", Day: "MONDAY", TimeSlotID: "slot-2", RoomID: strPtr("room-2")},
	}
	s := NewGridSession("session-1", classes, testSlots(), testRooms(), testTeachers(), true)
	require.Len(t, s.Scheduled, 2)

	assert.Len(t, s.VisibleScheduled(), 2)

	s.SetFilter(Filter{TeacherID: "teacher-1"})
	visible := s.VisibleScheduled()
	require.Len(t, visible, 1)
	assert.Equal(t, "class-math", visible[0].ID)

	s.SetFilter(Filter{RoomID: "room-2"})
	visible = s.VisibleScheduled()
	require.Len(t, visible, 1)
	assert.Equal(t, "class-phys", visible[0].ID)

	// filters narrow the view only; the pools and ledger are untouched
	assert.Len(t, s.Scheduled, 2)
	assert.Zero(t, s.Ledger.Len())
}

func TestReloadKeepsLedger(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.BeginDrag("class-phys", DragSource{FromUnassigned: true}))
	_, err := s.DropOnCell("TUESDAY", "slot-1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, s.Ledger.Len())

	s.Reload(testClasses())
	assert.Equal(t, 1, s.Ledger.Len())
	require.Len(t, s.Scheduled, 1)
	require.Len(t, s.Unassigned, 1)
	assert.False(t, s.Dragging())
}
