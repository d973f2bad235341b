package dto

import (
	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/internal/timetable"
)

// OpenSessionRequest starts a grid editing session.
type OpenSessionRequest struct {
	RoomStamping *bool `json:"room_stamping,omitempty"`
}

// BeginDragRequest records the start of a drag gesture.
type BeginDragRequest struct {
	ClassID string               `json:"class_id" validate:"required"`
	Source  timetable.DragSource `json:"source"`
}

// DropRequest completes a drag onto a grid cell. Payload is the fallback
// identification path when the session drag state was lost.
type DropRequest struct {
	Day        string                 `json:"day" validate:"required"`
	TimeSlotID string                 `json:"time_slot_id" validate:"required"`
	Payload    *timetable.DragPayload `json:"payload,omitempty"`
}

// UnassignRequest completes a drag onto the unassign zone.
type UnassignRequest struct {
	Payload *timetable.DragPayload `json:"payload,omitempty"`
}

// FilterRequest replaces the session's view filter.
type FilterRequest struct {
	TeacherID string `json:"teacher_id"`
	RoomID    string `json:"room_id"`
}

// GridCell is one (day, time slot) intersection in the snapshot matrix.
type GridCell struct {
	Day        string          `json:"day"`
	TimeSlotID string          `json:"time_slot_id"`
	Entries    []GridCellEntry `json:"entries,omitempty"`
}

// GridCellEntry is one class occupying a cell.
type GridCellEntry struct {
	ScheduleID string  `json:"schedule_id"`
	ClassID    string  `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Subject    string  `json:"subject,omitempty"`
	TeacherID  *string `json:"teacher_id,omitempty"`
	RoomID     *string `json:"room_id,omitempty"`
	RoomName   string  `json:"room_name,omitempty"`
	Pending    bool    `json:"pending"`
	Conflicted bool    `json:"conflicted"`
}

// GridRow is one time slot's row across the week.
type GridRow struct {
	TimeSlot models.TimeSlot `json:"time_slot"`
	Cells    []GridCell      `json:"cells"`
}

// UnassignedClass is one pool entry below the grid.
type UnassignedClass struct {
	ClassID   string  `json:"class_id"`
	ClassName string  `json:"class_name"`
	Subject   string  `json:"subject,omitempty"`
	TeacherID *string `json:"teacher_id,omitempty"`
}

// GridSnapshot is the full render state of a session: the matrix, the
// unassigned pool, conflicts, staged changes, and the active filter.
type GridSnapshot struct {
	SessionID    string                 `json:"session_id"`
	Days         []string               `json:"days"`
	Rows         []GridRow              `json:"rows"`
	Unassigned   []UnassignedClass      `json:"unassigned"`
	Conflicts    []timetable.Conflict   `json:"conflicts"`
	Pending      []models.PendingChange `json:"pending_changes"`
	Filter       timetable.Filter       `json:"filter"`
	RoomStamping bool                   `json:"room_stamping"`
	Dirty        bool                   `json:"dirty"`
}

// CommitResponse reports the outcome of replaying the session ledger.
type CommitResponse struct {
	Applied  int                      `json:"applied"`
	Skipped  int                      `json:"skipped"`
	Results  []timetable.ChangeResult `json:"results"`
	Snapshot *GridSnapshot            `json:"snapshot,omitempty"`
}
