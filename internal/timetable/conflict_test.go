package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgrid/timetable-api/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func testSlots() []models.TimeSlot {
	return []models.TimeSlot{
		{ID: "slot-1", Label: "Period 1", StartTime: "07:00", EndTime: "08:00"},
		{ID: "slot-2", Label: "Period 2", StartTime: "08:00", EndTime: "09:00"},
	}
}

func testRooms() []models.Room {
	return []models.Room{
		{ID: "room-1", Name: "Lab A"},
		{ID: "room-2", Name: "Lab B"},
	}
}

func testTeachers() []models.Teacher {
	return []models.Teacher{
		{ID: "teacher-1", FullName: "Ana Silva"},
		{ID: "teacher-2", FullName: "Bruno Costa"},
	}
}

func TestEntryMatchesSlotIDWinsOverLabel(t *testing.T) {
	slots := testSlots()
	// entry carries slot-2's id but an attached label claiming slot-1
	entry := models.ScheduleEntry{
		TimeSlotID: "slot-2",
		TimeSlot:   &models.TimeSlot{Label: "Period 1"},
	}

	assert.True(t, EntryMatchesSlot(entry, slots[1]))
	assert.False(t, EntryMatchesSlot(entry, slots[0]))
}

func TestEntryMatchesSlotByAttachedLabel(t *testing.T) {
	slots := testSlots()
	entry := models.ScheduleEntry{
		TimeSlot: &models.TimeSlot{Label: "Period 2"},
		Time:     "07:00", // legacy text must not be consulted once a label applies
	}

	assert.True(t, EntryMatchesSlot(entry, slots[1]))
	assert.False(t, EntryMatchesSlot(entry, slots[0]))
}

func TestEntryMatchesSlotLegacyTextContainment(t *testing.T) {
	slots := testSlots()

	assert.True(t, EntryMatchesSlot(models.ScheduleEntry{Time: "07:00 - 08:00"}, slots[0]))
	assert.True(t, EntryMatchesSlot(models.ScheduleEntry{Time: "Period 2"}, slots[1]))
	assert.False(t, EntryMatchesSlot(models.ScheduleEntry{Time: "09:30"}, slots[0]))
	assert.False(t, EntryMatchesSlot(models.ScheduleEntry{}, slots[0]))
}

func TestDetectConflictsTeacherDoubleBooking(t *testing.T) {
	classes := []models.ClassEntity{
		{
			ID: "class-1", Name: "Math 9A", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1"}},
		},
		{
			ID: "class-2", Name: "Math 9B", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "MONDAY", TimeSlotID: "slot-1"}},
		},
	}
	conflicts := DetectConflicts(DetectInput{
		Classes: classes, Days: models.Weekdays, TimeSlots: testSlots(),
		Rooms: testRooms(), Teachers: testTeachers(),
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictTeacher, conflicts[0].Kind)
	assert.Equal(t, "teacher:MONDAY:Period 1:teacher-1", conflicts[0].Key)
	assert.Equal(t, []string{"Math 9A", "Math 9B"}, conflicts[0].ClassNames)
	assert.Contains(t, conflicts[0].Message, "Ana Silva")
	assert.Contains(t, conflicts[0].Message, "Monday at 07:00-08:00 (Period 1)")
}

func TestDetectConflictsOrderIndependentKey(t *testing.T) {
	a := models.ClassEntity{
		ID: "class-1", Name: "Math 9A", TeacherID: strPtr("teacher-1"),
		Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "FRIDAY", TimeSlotID: "slot-2"}},
	}
	b := models.ClassEntity{
		ID: "class-2", Name: "Math 9B", TeacherID: strPtr("teacher-1"),
		Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "FRIDAY", TimeSlotID: "slot-2"}},
	}
	input := DetectInput{Days: models.Weekdays, TimeSlots: testSlots(), Teachers: testTeachers()}

	input.Classes = []models.ClassEntity{a, b}
	forward := DetectConflicts(input)
	input.Classes = []models.ClassEntity{b, a}
	reversed := DetectConflicts(input)

	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)
	assert.Equal(t, forward[0].Key, reversed[0].Key)
	assert.ElementsMatch(t, forward[0].ClassNames, reversed[0].ClassNames)
}

func TestDetectConflictsRoomDoubleBooking(t *testing.T) {
	classes := []models.ClassEntity{
		{
			ID: "class-1", Name: "Biology", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "TUESDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1")}},
		},
		{
			ID: "class-2", Name: "Chemistry", TeacherID: strPtr("teacher-2"),
			Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "TUESDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1")}},
		},
	}
	conflicts := DetectConflicts(DetectInput{
		Classes: classes, Days: models.Weekdays, TimeSlots: testSlots(),
		Rooms: testRooms(), Teachers: testTeachers(),
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictRoom, conflicts[0].Kind)
	assert.Equal(t, "room:TUESDAY:Period 1:room-1", conflicts[0].Key)
	assert.Contains(t, conflicts[0].Message, "Lab A")
}

func TestDetectConflictsDifferentCellsAreClean(t *testing.T) {
	classes := []models.ClassEntity{
		{
			ID: "class-1", Name: "Math 9A", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1", RoomID: strPtr("room-1")}},
		},
		{
			ID: "class-2", Name: "Math 9B", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "MONDAY", TimeSlotID: "slot-2", RoomID: strPtr("room-1")}},
		},
	}
	conflicts := DetectConflicts(DetectInput{
		Classes: classes, Days: models.Weekdays, TimeSlots: testSlots(),
		Rooms: testRooms(), Teachers: testTeachers(),
	})

	assert.Empty(t, conflicts)
}

func TestDetectConflictsLegacyEntryJoinsBucket(t *testing.T) {
	classes := []models.ClassEntity{
		{
			ID: "class-1", Name: "History", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1"}},
		},
		{
			ID: "class-2", Name: "Geography", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "MONDAY", Time: "07:00 - 08:00"}},
		},
	}
	conflicts := DetectConflicts(DetectInput{
		Classes: classes, Days: models.Weekdays, TimeSlots: testSlots(), Teachers: testTeachers(),
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{"History", "Geography"}, conflicts[0].ClassNames)
}

func TestDetectConflictsOverloadedTeacherAnnotated(t *testing.T) {
	teachers := []models.Teacher{
		{ID: "teacher-1", FullName: "Ana Silva", Workload: &models.TeacherWorkload{WeeklyHours: 40, Overloaded: true}},
	}
	classes := []models.ClassEntity{
		{
			ID: "class-1", Name: "Math 9A", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-1", Day: "MONDAY", TimeSlotID: "slot-1"}},
		},
		{
			ID: "class-2", Name: "Math 9B", TeacherID: strPtr("teacher-1"),
			Schedules: []models.ScheduleEntry{{ID: "sched-2", Day: "MONDAY", TimeSlotID: "slot-1"}},
		},
	}
	conflicts := DetectConflicts(DetectInput{
		Classes: classes, Days: models.Weekdays, TimeSlots: testSlots(), Teachers: teachers,
	})

	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0].Message, "over weekly hours")
}

func TestConflictKeysSet(t *testing.T) {
	conflicts := []Conflict{{Key: "teacher:MONDAY:Period 1:teacher-1"}, {Key: "room:MONDAY:Period 1:room-1"}}
	keys := ConflictKeys(conflicts)

	assert.Len(t, keys, 2)
	_, ok := keys["teacher:MONDAY:Period 1:teacher-1"]
	assert.True(t, ok)
}
