package timetable

import (
	"strings"

	"github.com/classgrid/timetable-api/internal/models"
)

// Matching a schedule entry to a time slot follows an explicit precedence
// chain: an explicit time-slot id wins, then the label of an attached slot
// object, then a legacy free-text heuristic for rows predating time-slot
// ids. A strategy that applies decides the match outright; later strategies
// never override it.

type matchVerdict int

const (
	verdictNotApplicable matchVerdict = iota
	verdictMatch
	verdictNoMatch
)

type matchStrategy struct {
	name  string
	apply func(entry models.ScheduleEntry, slot models.TimeSlot) matchVerdict
}

var slotMatchers = []matchStrategy{
	{name: "id", apply: matchByID},
	{name: "label", apply: matchByLabel},
	{name: "legacy-text", apply: matchByLegacyText},
}

// EntryMatchesSlot reports whether entry belongs to slot under the
// precedence chain above. The entry's day is not considered here.
func EntryMatchesSlot(entry models.ScheduleEntry, slot models.TimeSlot) bool {
	for _, strategy := range slotMatchers {
		switch strategy.apply(entry, slot) {
		case verdictMatch:
			return true
		case verdictNoMatch:
			return false
		}
	}
	return false
}

func matchByID(entry models.ScheduleEntry, slot models.TimeSlot) matchVerdict {
	if entry.TimeSlotID == "" {
		return verdictNotApplicable
	}
	if entry.TimeSlotID == slot.ID {
		return verdictMatch
	}
	return verdictNoMatch
}

func matchByLabel(entry models.ScheduleEntry, slot models.TimeSlot) matchVerdict {
	if entry.TimeSlot == nil || entry.TimeSlot.Label == "" {
		return verdictNotApplicable
	}
	if entry.TimeSlot.Label == slot.Label {
		return verdictMatch
	}
	return verdictNoMatch
}

// matchByLegacyText is the fallback for rows that predate time-slot ids:
// the free-text time field matches by equality or containment against the
// slot's start time or label. Heuristic; it can over- and under-match.
func matchByLegacyText(entry models.ScheduleEntry, slot models.TimeSlot) matchVerdict {
	text := strings.TrimSpace(entry.Time)
	if text == "" {
		return verdictNotApplicable
	}
	if textMatches(text, slot.StartTime) || textMatches(text, slot.Label) {
		return verdictMatch
	}
	return verdictNoMatch
}

func textMatches(text, target string) bool {
	if target == "" {
		return false
	}
	return text == target || strings.Contains(text, target)
}

// EntryMatchesTimeText reports whether an existing entry occupies the time
// described by free text, as submitted to the pre-flight conflict check.
// The entry's slot is resolved through the catalog when it has an id; rows
// without one fall back to comparing legacy text directly.
func EntryMatchesTimeText(entry models.ScheduleEntry, slots []models.TimeSlot, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	slot := entry.TimeSlot
	if slot == nil && entry.TimeSlotID != "" {
		for i := range slots {
			if slots[i].ID == entry.TimeSlotID {
				slot = &slots[i]
				break
			}
		}
	}
	if slot != nil {
		return textMatches(text, slot.Label) || textMatches(text, slot.StartTime)
	}

	legacy := strings.TrimSpace(entry.Time)
	if legacy == "" {
		return false
	}
	return legacy == text || strings.Contains(legacy, text) || strings.Contains(text, legacy)
}
