package timetable

import "github.com/classgrid/timetable-api/internal/models"

// Ledger is the session's ordered, deduplicating log of staged schedule
// mutations. It decouples what the editor has arranged on screen from what
// has been persisted; it never touches the view model itself.
//
// Internally it is an insertion-ordered slice with a position index keyed
// by schedule id, so last-write-wins replacement keeps the original append
// position.
type Ledger struct {
	entries []models.PendingChange
	index   map[string]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Append stages a change, deduplicating per schedule id:
//
//   - UPDATE/DELETE on a persisted id that is already staged replaces the
//     staged entry in place (last write wins).
//   - DELETE on a temporary id cancels the staged CREATE that produced it;
//     the row never existed server-side, so nothing remains to replay.
//   - UPDATE on a temporary id rewrites the staged CREATE's payload in
//     place; it stays a CREATE.
//   - UPDATE/DELETE on a temporary id with no staged CREATE is dropped.
func (l *Ledger) Append(change models.PendingChange) {
	id := change.ScheduleID
	if id == "" {
		l.entries = append(l.entries, change)
		return
	}

	if pos, staged := l.index[id]; staged {
		if models.IsTempScheduleID(id) && l.entries[pos].Type == models.ChangeCreate {
			switch change.Type {
			case models.ChangeDelete:
				l.removeAt(pos)
			default:
				change.Type = models.ChangeCreate
				change.PrevDay = ""
				change.PrevTimeSlotLabel = ""
				l.entries[pos] = change
			}
			return
		}
		l.entries[pos] = change
		return
	}

	if models.IsTempScheduleID(id) && change.Type != models.ChangeCreate {
		return
	}

	l.index[id] = len(l.entries)
	l.entries = append(l.entries, change)
}

// Entries returns the staged changes in append order.
func (l *Ledger) Entries() []models.PendingChange {
	out := make([]models.PendingChange, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of staged changes.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear empties the ledger after a successful commit or an explicit cancel.
func (l *Ledger) Clear() {
	l.entries = nil
	l.index = make(map[string]int)
}

func (l *Ledger) removeAt(pos int) {
	removed := l.entries[pos]
	l.entries = append(l.entries[:pos], l.entries[pos+1:]...)
	delete(l.index, removed.ScheduleID)
	for id, p := range l.index {
		if p > pos {
			l.index[id] = p - 1
		}
	}
}
