package models

import "time"

// TimeSlot is a named, globally shared time interval ("Period 3,
// 10:00-11:00"). Slots are reference data for this service: created and
// edited elsewhere, treated as immutable here. Labels are unique.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
