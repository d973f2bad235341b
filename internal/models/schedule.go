package models

import "time"

// Weekdays is the fixed six-day school week, in canonical order. All
// deterministic iteration over days (conflict scanning, grid rendering,
// exports) follows this order.
var Weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// IsWeekday reports whether day is one of the recognised school days.
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// ScheduleEntry is one (day, time-slot, room) assignment belonging to
// exactly one class. Legacy rows may lack a time_slot_id and carry only a
// free-text time string; matching precedence for those lives in the
// timetable package.
type ScheduleEntry struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Day        string    `db:"day_of_week" json:"day_of_week"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id,omitempty"`
	Time       string    `db:"time_text" json:"time,omitempty"`
	RoomID     *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// TimeSlot is attached when schedules are joined with the time-slot
	// catalog; it is not a database column.
	TimeSlot *TimeSlot `db:"-" json:"time_slot,omitempty"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ClassID    string
	Day        string
	TimeSlotID string
	RoomID     string
}

// ProposedSlot is one (day, time, room) triple submitted to the pre-flight
// conflict check when creating a brand-new class with an initial schedule.
type ProposedSlot struct {
	Day    string  `json:"day" validate:"required"`
	Time   string  `json:"time" validate:"required"`
	RoomID *string `json:"room_id,omitempty"`
}

// ConflictDimension tags which resource a pre-flight collision is on.
type ConflictDimension string

const (
	ConflictDimensionTeacher ConflictDimension = "TEACHER"
	ConflictDimensionRoom    ConflictDimension = "ROOM"
)

// ScheduleConflict is one pre-flight finding: a proposed slot colliding
// with an existing schedule entry.
type ScheduleConflict struct {
	Dimension ConflictDimension `json:"dimension"`
	Day       string            `json:"day"`
	Time      string            `json:"time"`
	ClassID   string            `json:"class_id"`
	ClassName string            `json:"class_name"`
	RoomID    *string           `json:"room_id,omitempty"`
	Message   string            `json:"message"`
}
