package models

import "time"

// ClassEntity represents an academic class and owns its schedule entries.
// A class with zero entries is "unassigned" in the timetable grid.
type ClassEntity struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Schedules are joined client-side by class id, never loaded by the
	// class query itself.
	Schedules []ScheduleEntry `db:"-" json:"schedules"`
}

// Unassigned reports whether the class has no schedule entries.
func (c ClassEntity) Unassigned() bool {
	return len(c.Schedules) == 0
}

// HasSlot reports whether the class already occupies the (day, timeSlotID)
// pair. The grid rejects drops that would duplicate a slot.
func (c ClassEntity) HasSlot(day, timeSlotID string) bool {
	for _, entry := range c.Schedules {
		if entry.Day == day && entry.TimeSlotID != "" && entry.TimeSlotID == timeSlotID {
			return true
		}
	}
	return false
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	TeacherID string
	Subject   string
	Search    string
}
