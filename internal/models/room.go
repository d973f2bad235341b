package models

import "time"

// Room is a bookable physical room. Reference data, like time slots.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	Building  *string   `db:"building" json:"building,omitempty"`
	Floor     *string   `db:"floor" json:"floor,omitempty"`
	Features  *string   `db:"features" json:"features,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
