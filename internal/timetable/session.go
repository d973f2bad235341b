package timetable

import (
	"fmt"

	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

// Filter narrows what the grid renders. Filters are view-only: conflict
// detection and the ledger always operate over the unfiltered set. An
// active room filter additionally stamps its room onto dropped entries
// when room stamping is enabled.
type Filter struct {
	TeacherID string `json:"teacher_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
}

// DragSource describes where a drag started: the unassigned pool, or a
// specific grid cell identified by the schedule entry occupying it.
type DragSource struct {
	FromUnassigned bool    `json:"from_unassigned"`
	ScheduleID     string  `json:"schedule_id,omitempty"`
	Day            string  `json:"day,omitempty"`
	TimeSlotID     string  `json:"time_slot_id,omitempty"`
	RoomID         *string `json:"room_id,omitempty"`
}

// DragPayload is the fallback reconstruction path for a drop whose drag
// state was lost (the browser drag-data channel is unreliable). Session
// state is always the primary source of truth.
type DragPayload struct {
	ClassID    string `json:"class_id,omitempty"`
	ScheduleID string `json:"schedule_id,omitempty"`
}

type dragState struct {
	classID string
	source  DragSource
}

// GridSession owns one editor's in-memory timetable state: the scheduled
// and unassigned class pools, the pending-change ledger, the current
// conflict list, and at most one in-flight drag gesture. A session is
// single-owner; the caller serializes access.
type GridSession struct {
	ID           string
	RoomStamping bool

	Days      []string
	TimeSlots []models.TimeSlot
	Rooms     []models.Room
	Teachers  []models.Teacher

	Scheduled  []models.ClassEntity
	Unassigned []models.ClassEntity
	Ledger     *Ledger
	Conflicts  []Conflict
	Filter     Filter

	drag *dragState
}

// NewGridSession builds a session over freshly fetched data. Classes are
// partitioned into scheduled and unassigned pools and conflicts are
// computed immediately.
func NewGridSession(id string, classes []models.ClassEntity, slots []models.TimeSlot, rooms []models.Room, teachers []models.Teacher, roomStamping bool) *GridSession {
	s := &GridSession{
		ID:           id,
		RoomStamping: roomStamping,
		Days:         append([]string(nil), models.Weekdays...),
		TimeSlots:    slots,
		Rooms:        rooms,
		Teachers:     teachers,
		Ledger:       NewLedger(),
	}
	s.Reload(classes)
	return s
}

// Reload replaces the view model from fetched data: repartitions the
// pools, attaches time slots, drops any in-flight drag, and re-runs
// conflict detection. The ledger is left untouched; commit and cancel
// clear it explicitly.
func (s *GridSession) Reload(classes []models.ClassEntity) {
	s.Scheduled = nil
	s.Unassigned = nil
	for _, class := range classes {
		s.attachSlots(class.Schedules)
		if class.Unassigned() {
			s.Unassigned = append(s.Unassigned, class)
		} else {
			s.Scheduled = append(s.Scheduled, class)
		}
	}
	s.drag = nil
	s.refreshConflicts()
}

// BeginDrag captures the dragged class and its source context into session
// state. The class reference held here is the primary source of truth for
// the eventual drop; the drag payload is only a fallback.
func (s *GridSession) BeginDrag(classID string, source DragSource) error {
	if s.findClass(classID) == nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown class %q", classID))
	}
	s.drag = &dragState{classID: classID, source: source}
	return nil
}

// CancelDrag abandons the in-flight gesture without touching the grid.
func (s *GridSession) CancelDrag() {
	s.drag = nil
}

// Dragging reports whether a drag gesture is in flight.
func (s *GridSession) Dragging() bool {
	return s.drag != nil
}

// DropOnCell completes a drag onto the (day, timeSlotID) cell. It stages
// an UPDATE (source was an existing cell) or a CREATE (source was the
// unassigned pool), rewrites the view model optimistically, and re-runs
// conflict detection. A drop back onto the source cell is a no-op and
// returns a nil change. Validation failures abort the gesture with a
// user-visible error and leave prior state untouched; either way the
// session returns to idle.
func (s *GridSession) DropOnCell(day, timeSlotID string, payload *DragPayload) (*models.PendingChange, error) {
	defer func() { s.drag = nil }()

	if !models.IsWeekday(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", day))
	}
	slot := s.findSlot(timeSlotID)
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", timeSlotID))
	}
	class, source, err := s.resolveDragged(payload)
	if err != nil {
		return nil, err
	}

	if source.ScheduleID != "" && source.Day == day && source.TimeSlotID == timeSlotID {
		return nil, nil
	}
	if class.HasSlot(day, timeSlotID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already scheduled at this slot", class.Name))
	}

	roomID := source.RoomID
	if roomID == nil && s.RoomStamping && s.Filter.RoomID != "" {
		stamped := s.Filter.RoomID
		roomID = &stamped
	}

	change := models.PendingChange{
		ClassID:       class.ID,
		ClassName:     class.Name,
		Day:           day,
		TimeSlotID:    slot.ID,
		TimeSlotLabel: slot.Label,
		RoomID:        roomID,
	}
	if source.ScheduleID != "" {
		change.Type = models.ChangeUpdate
		change.ScheduleID = source.ScheduleID
		change.PrevDay = source.Day
		change.PrevTimeSlotLabel = s.labelFor(source.TimeSlotID)
	} else {
		change.Type = models.ChangeCreate
		change.ScheduleID = models.NewTempScheduleID()
	}

	s.applyDrop(class.ID, source.ScheduleID, change, slot)
	s.Ledger.Append(change)
	s.refreshConflicts()
	return &change, nil
}

// DropToUnassigned completes a drag onto the unassign zone: one DELETE is
// staged per schedule entry of the class, and the class moves, stripped of
// its schedules, into the unassigned pool.
func (s *GridSession) DropToUnassigned(payload *DragPayload) ([]models.PendingChange, error) {
	defer func() { s.drag = nil }()

	class, _, err := s.resolveDragged(payload)
	if err != nil {
		return nil, err
	}
	if class.Unassigned() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is already unassigned", class.Name))
	}

	changes := make([]models.PendingChange, 0, len(class.Schedules))
	for _, entry := range class.Schedules {
		change := models.PendingChange{
			Type:          models.ChangeDelete,
			ScheduleID:    entry.ID,
			ClassID:       class.ID,
			ClassName:     class.Name,
			Day:           entry.Day,
			TimeSlotID:    entry.TimeSlotID,
			TimeSlotLabel: s.labelFor(entry.TimeSlotID),
			RoomID:        entry.RoomID,
		}
		changes = append(changes, change)
		s.Ledger.Append(change)
	}

	idx := classIndex(s.Scheduled, class.ID)
	stripped := s.Scheduled[idx]
	stripped.Schedules = nil
	s.Scheduled = append(s.Scheduled[:idx], s.Scheduled[idx+1:]...)
	s.Unassigned = append(s.Unassigned, stripped)
	s.refreshConflicts()
	return changes, nil
}

// SetFilter replaces the view filter. The underlying pools are untouched.
func (s *GridSession) SetFilter(f Filter) {
	s.Filter = f
}

// VisibleScheduled returns the scheduled pool narrowed by the active
// filter: teacher filters match the class teacher exactly, room filters
// match classes with at least one entry in that room.
func (s *GridSession) VisibleScheduled() []models.ClassEntity {
	if s.Filter.TeacherID == "" && s.Filter.RoomID == "" {
		return s.Scheduled
	}
	var out []models.ClassEntity
	for _, class := range s.Scheduled {
		if s.Filter.TeacherID != "" && (class.TeacherID == nil || *class.TeacherID != s.Filter.TeacherID) {
			continue
		}
		if s.Filter.RoomID != "" && !classUsesRoom(class, s.Filter.RoomID) {
			continue
		}
		out = append(out, class)
	}
	return out
}

func (s *GridSession) refreshConflicts() {
	s.Conflicts = DetectConflicts(DetectInput{
		Classes:   s.Scheduled,
		Days:      s.Days,
		TimeSlots: s.TimeSlots,
		Rooms:     s.Rooms,
		Teachers:  s.Teachers,
	})
}

// resolveDragged identifies the dragged class: session drag state first,
// then the transfer payload (by class id, or by the schedule id of the
// source cell).
func (s *GridSession) resolveDragged(payload *DragPayload) (*models.ClassEntity, DragSource, error) {
	if s.drag != nil {
		class := s.findClass(s.drag.classID)
		if class == nil {
			return nil, DragSource{}, appErrors.Clone(appErrors.ErrValidation, "cannot identify dragged class")
		}
		return class, s.drag.source, nil
	}

	if payload != nil {
		if payload.ClassID != "" {
			if class := s.findClass(payload.ClassID); class != nil {
				return class, s.reconstructSource(class, payload.ScheduleID), nil
			}
		}
		if payload.ScheduleID != "" {
			if class := s.findClassBySchedule(payload.ScheduleID); class != nil {
				return class, s.reconstructSource(class, payload.ScheduleID), nil
			}
		}
	}
	return nil, DragSource{}, appErrors.Clone(appErrors.ErrValidation, "cannot identify dragged class")
}

func (s *GridSession) reconstructSource(class *models.ClassEntity, scheduleID string) DragSource {
	if scheduleID != "" {
		for _, entry := range class.Schedules {
			if entry.ID == scheduleID {
				return DragSource{
					ScheduleID: entry.ID,
					Day:        entry.Day,
					TimeSlotID: entry.TimeSlotID,
					RoomID:     entry.RoomID,
				}
			}
		}
	}
	return DragSource{FromUnassigned: class.Unassigned()}
}

func (s *GridSession) applyDrop(classID, sourceScheduleID string, change models.PendingChange, slot *models.TimeSlot) {
	if idx := classIndex(s.Unassigned, classID); idx >= 0 {
		class := s.Unassigned[idx]
		class.Schedules = append(class.Schedules, models.ScheduleEntry{
			ID:         change.ScheduleID,
			ClassID:    classID,
			Day:        change.Day,
			TimeSlotID: slot.ID,
			RoomID:     change.RoomID,
			TimeSlot:   slot,
		})
		s.Unassigned = append(s.Unassigned[:idx], s.Unassigned[idx+1:]...)
		s.Scheduled = append(s.Scheduled, class)
		return
	}

	idx := classIndex(s.Scheduled, classID)
	if idx < 0 {
		return
	}
	class := &s.Scheduled[idx]
	if sourceScheduleID != "" {
		for i := range class.Schedules {
			if class.Schedules[i].ID == sourceScheduleID {
				class.Schedules[i].Day = change.Day
				class.Schedules[i].TimeSlotID = slot.ID
				class.Schedules[i].TimeSlot = slot
				class.Schedules[i].RoomID = change.RoomID
				// the entry now carries an explicit slot id; stale legacy
				// time text must not shadow it
				class.Schedules[i].Time = ""
				return
			}
		}
	}
	class.Schedules = append(class.Schedules, models.ScheduleEntry{
		ID:         change.ScheduleID,
		ClassID:    classID,
		Day:        change.Day,
		TimeSlotID: slot.ID,
		RoomID:     change.RoomID,
		TimeSlot:   slot,
	})
}

func (s *GridSession) attachSlots(entries []models.ScheduleEntry) {
	for i := range entries {
		if entries[i].TimeSlotID == "" {
			continue
		}
		entries[i].TimeSlot = s.findSlot(entries[i].TimeSlotID)
	}
}

func (s *GridSession) findSlot(id string) *models.TimeSlot {
	for i := range s.TimeSlots {
		if s.TimeSlots[i].ID == id {
			return &s.TimeSlots[i]
		}
	}
	return nil
}

func (s *GridSession) labelFor(timeSlotID string) string {
	if slot := s.findSlot(timeSlotID); slot != nil {
		return slot.Label
	}
	return ""
}

func (s *GridSession) findClass(id string) *models.ClassEntity {
	if idx := classIndex(s.Scheduled, id); idx >= 0 {
		return &s.Scheduled[idx]
	}
	if idx := classIndex(s.Unassigned, id); idx >= 0 {
		return &s.Unassigned[idx]
	}
	return nil
}

func (s *GridSession) findClassBySchedule(scheduleID string) *models.ClassEntity {
	for i := range s.Scheduled {
		for _, entry := range s.Scheduled[i].Schedules {
			if entry.ID == scheduleID {
				return &s.Scheduled[i]
			}
		}
	}
	return nil
}

func classIndex(classes []models.ClassEntity, id string) int {
	for i := range classes {
		if classes[i].ID == id {
			return i
		}
	}
	return -1
}

func classUsesRoom(class models.ClassEntity, roomID string) bool {
	for _, entry := range class.Schedules {
		if entry.RoomID != nil && *entry.RoomID == roomID {
			return true
		}
	}
	return false
}
