package dto

import "github.com/classgrid/timetable-api/internal/models"

// CreateScheduleRequest creates one schedule entry for a class.
type CreateScheduleRequest struct {
	ClassID    string  `json:"class_id" validate:"required"`
	Day        string  `json:"day" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	TimeSlotID string  `json:"time_slot_id" validate:"required"`
	RoomID     *string `json:"room_id,omitempty"`
}

// UpdateScheduleRequest moves an existing entry to a new cell and/or room.
type UpdateScheduleRequest struct {
	Day        string  `json:"day" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	TimeSlotID string  `json:"time_slot_id" validate:"required"`
	RoomID     *string `json:"room_id,omitempty"`
}

// ScheduleQuery mirrors the supported listing filters.
type ScheduleQuery struct {
	ClassID    string `form:"class_id" json:"class_id"`
	Day        string `form:"day" json:"day"`
	TimeSlotID string `form:"time_slot_id" json:"time_slot_id"`
	RoomID     string `form:"room_id" json:"room_id"`
}

// ConflictCheckRequest is the pre-flight check run before creating a class
// with an initial set of proposed slots. TeacherID is optional: a new class
// may not have a teacher yet, in which case only room occupancy is checked.
type ConflictCheckRequest struct {
	TeacherID string                `json:"teacher_id,omitempty"`
	Schedules []models.ProposedSlot `json:"schedules" validate:"required,min=1,dive"`
}

// ConflictCheckResponse lists collisions found for the proposal.
type ConflictCheckResponse struct {
	HasConflicts bool                      `json:"has_conflicts"`
	Conflicts    []models.ScheduleConflict `json:"conflicts"`
}
