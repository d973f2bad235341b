package models

import "time"

// Teacher represents an instructor record as seen by the timetable grid.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Workload decorates conflict messages and visual warnings only; it
	// plays no part in conflict detection.
	Workload *TeacherWorkload `db:"-" json:"workload,omitempty"`
}

// TeacherWorkload summarises a teacher's current load.
type TeacherWorkload struct {
	ClassCount  int  `db:"class_count" json:"class_count"`
	WeeklyHours int  `db:"weekly_hours" json:"weekly_hours"`
	Overloaded  bool `db:"-" json:"overloaded"`
}
