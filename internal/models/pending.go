package models

import (
	"strings"

	"github.com/google/uuid"
)

// ChangeType classifies a staged schedule mutation.
type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// TempIDPrefix marks schedule ids generated client-side for entries that
// have not been persisted yet. UPDATE/DELETE changes against such ids are
// never replayed against the backend.
const TempIDPrefix = "tmp-"

// NewTempScheduleID generates a schedule id for a staged CREATE.
func NewTempScheduleID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempScheduleID reports whether id was generated by NewTempScheduleID.
func IsTempScheduleID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// PendingChange is a staged mutation intent against a schedule entry. It
// lives in the session ledger until the editor commits or cancels.
type PendingChange struct {
	Type          ChangeType `json:"type"`
	ScheduleID    string     `json:"schedule_id"`
	ClassID       string     `json:"class_id"`
	ClassName     string     `json:"class_name,omitempty"`
	Day           string     `json:"day,omitempty"`
	TimeSlotID    string     `json:"time_slot_id,omitempty"`
	TimeSlotLabel string     `json:"time_slot_label,omitempty"`
	RoomID        *string    `json:"room_id,omitempty"`

	// Prior placement, carried on UPDATE for audit display only.
	PrevDay           string `json:"prev_day,omitempty"`
	PrevTimeSlotLabel string `json:"prev_time_slot_label,omitempty"`
}
