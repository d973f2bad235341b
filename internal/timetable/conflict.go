package timetable

import (
	"fmt"
	"strings"

	"github.com/classgrid/timetable-api/internal/models"
)

// ConflictKind tags the dimension a conflict was detected on.
type ConflictKind string

const (
	ConflictTeacher ConflictKind = "teacher"
	ConflictRoom    ConflictKind = "room"
)

// Conflict is one double-booking finding: two or more classes sharing a
// teacher or a room at the same (day, time slot). Key is stable across
// detector runs with equal input and supports set-membership lookup by the
// grid ("is this cell in conflict").
type Conflict struct {
	Kind       ConflictKind `json:"kind"`
	Day        string       `json:"day"`
	SlotLabel  string       `json:"slot_label"`
	EntityID   string       `json:"entity_id"`
	EntityName string       `json:"entity_name"`
	ClassNames []string     `json:"class_names"`
	Message    string       `json:"message"`
	Key        string       `json:"key"`
}

// DetectInput carries everything the detector needs. Rooms and teachers
// are used for name lookup only.
type DetectInput struct {
	Classes   []models.ClassEntity
	Days      []string
	TimeSlots []models.TimeSlot
	Rooms     []models.Room
	Teachers  []models.Teacher
}

// DetectConflicts scans the full grid and returns every teacher and room
// double-booking. It is a pure function of its input: days iterate in the
// given canonical order, then time slots, then teachers/rooms in the order
// first encountered within a bucket, so equal inputs yield an identical
// conflict list.
func DetectConflicts(in DetectInput) []Conflict {
	teacherNames := make(map[string]string, len(in.Teachers))
	overloaded := make(map[string]bool, len(in.Teachers))
	for _, t := range in.Teachers {
		teacherNames[t.ID] = t.FullName
		if t.Workload != nil && t.Workload.Overloaded {
			overloaded[t.ID] = true
		}
	}
	roomNames := make(map[string]string, len(in.Rooms))
	for _, r := range in.Rooms {
		roomNames[r.ID] = r.Name
	}

	var conflicts []Conflict
	for _, day := range in.Days {
		for _, slot := range in.TimeSlots {
			bucket := bucketFor(in.Classes, day, slot)
			if len(bucket) < 2 {
				continue
			}
			conflicts = append(conflicts, teacherConflicts(bucket, day, slot, teacherNames, overloaded)...)
			conflicts = append(conflicts, roomConflicts(bucket, day, slot, roomNames)...)
		}
	}
	return conflicts
}

// ConflictKeys returns the conflict keys as a set for cell lookup.
func ConflictKeys(conflicts []Conflict) map[string]struct{} {
	keys := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		keys[c.Key] = struct{}{}
	}
	return keys
}

// bucketEntry pairs a class with its schedule entries matching one
// (day, slot) cell.
type bucketEntry struct {
	class   models.ClassEntity
	entries []models.ScheduleEntry
}

func bucketFor(classes []models.ClassEntity, day string, slot models.TimeSlot) []bucketEntry {
	var bucket []bucketEntry
	for _, class := range classes {
		var matched []models.ScheduleEntry
		for _, entry := range class.Schedules {
			if entry.Day == day && EntryMatchesSlot(entry, slot) {
				matched = append(matched, entry)
			}
		}
		if len(matched) > 0 {
			bucket = append(bucket, bucketEntry{class: class, entries: matched})
		}
	}
	return bucket
}

func teacherConflicts(bucket []bucketEntry, day string, slot models.TimeSlot, names map[string]string, overloaded map[string]bool) []Conflict {
	var order []string
	byTeacher := make(map[string][]string)
	for _, item := range bucket {
		if item.class.TeacherID == nil || *item.class.TeacherID == "" {
			continue
		}
		id := *item.class.TeacherID
		if _, seen := byTeacher[id]; !seen {
			order = append(order, id)
		}
		byTeacher[id] = append(byTeacher[id], item.class.Name)
	}

	var conflicts []Conflict
	for _, teacherID := range order {
		classNames := byTeacher[teacherID]
		if len(classNames) < 2 {
			continue
		}
		name := names[teacherID]
		if name == "" {
			name = teacherID
		}
		message := fmt.Sprintf("%s is double-booked for %s on %s", name, strings.Join(classNames, ", "), cellLabel(day, slot))
		if overloaded[teacherID] {
			message += " (teacher already over weekly hours)"
		}
		conflicts = append(conflicts, Conflict{
			Kind:       ConflictTeacher,
			Day:        day,
			SlotLabel:  slot.Label,
			EntityID:   teacherID,
			EntityName: name,
			ClassNames: classNames,
			Message:    message,
			Key:        conflictKey(ConflictTeacher, day, slot.Label, teacherID),
		})
	}
	return conflicts
}

func roomConflicts(bucket []bucketEntry, day string, slot models.TimeSlot, names map[string]string) []Conflict {
	var order []string
	byRoom := make(map[string][]string)
	for _, item := range bucket {
		seenRooms := make(map[string]bool)
		for _, entry := range item.entries {
			if entry.RoomID == nil || *entry.RoomID == "" {
				continue
			}
			id := *entry.RoomID
			if seenRooms[id] {
				continue
			}
			seenRooms[id] = true
			if _, seen := byRoom[id]; !seen {
				order = append(order, id)
			}
			byRoom[id] = append(byRoom[id], item.class.Name)
		}
	}

	var conflicts []Conflict
	for _, roomID := range order {
		classNames := byRoom[roomID]
		if len(classNames) < 2 {
			continue
		}
		name := names[roomID]
		if name == "" {
			name = roomID
		}
		conflicts = append(conflicts, Conflict{
			Kind:       ConflictRoom,
			Day:        day,
			SlotLabel:  slot.Label,
			EntityID:   roomID,
			EntityName: name,
			ClassNames: classNames,
			Message:    fmt.Sprintf("room %s is double-booked for %s on %s", name, strings.Join(classNames, ", "), cellLabel(day, slot)),
			Key:        conflictKey(ConflictRoom, day, slot.Label, roomID),
		})
	}
	return conflicts
}

func conflictKey(kind ConflictKind, day, slotLabel, entityID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", kind, day, slotLabel, entityID)
}

// cellLabel renders "Tuesday at 10:00-11:00 (Period 3)" for messages.
func cellLabel(day string, slot models.TimeSlot) string {
	pretty := strings.Title(strings.ToLower(day)) //nolint:staticcheck // day names are ASCII
	if slot.StartTime != "" && slot.EndTime != "" {
		return fmt.Sprintf("%s at %s-%s (%s)", pretty, slot.StartTime, slot.EndTime, slot.Label)
	}
	return fmt.Sprintf("%s at %s", pretty, slot.Label)
}
