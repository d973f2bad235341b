package timetable

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

// ScheduleWriter persists staged changes. Both the local store and the
// legacy HTTP backend satisfy it.
type ScheduleWriter interface {
	CreateSchedule(ctx context.Context, classID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error)
	UpdateSchedule(ctx context.Context, scheduleID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// ChangeOutcome is the per-change result of a replay.
type ChangeOutcome string

const (
	OutcomeApplied      ChangeOutcome = "APPLIED"
	OutcomeSkippedStale ChangeOutcome = "SKIPPED_STALE"
	OutcomeSkippedInval ChangeOutcome = "SKIPPED_INVALID"
	OutcomeFailed       ChangeOutcome = "FAILED"
	OutcomeNotAttempted ChangeOutcome = "NOT_ATTEMPTED"
)

// ChangeResult pairs a staged change with its replay outcome.
type ChangeResult struct {
	Change  models.PendingChange `json:"change"`
	Outcome ChangeOutcome        `json:"outcome"`
	Detail  string               `json:"detail,omitempty"`
}

// CommitReport summarizes one replay pass. Aborted reports carry the
// error that stopped the replay; every change after the failing one is
// marked NOT_ATTEMPTED.
type CommitReport struct {
	Applied int            `json:"applied"`
	Skipped int            `json:"skipped"`
	Results []ChangeResult `json:"results"`
	Err     error          `json:"-"`
}

// Aborted reports whether the replay stopped before exhausting the ledger.
func (r *CommitReport) Aborted() bool {
	return r.Err != nil
}

// Orchestrator replays a ledger against a ScheduleWriter in staged order.
type Orchestrator struct {
	writer ScheduleWriter
	logger *zap.Logger
}

func NewOrchestrator(writer ScheduleWriter, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{writer: writer, logger: logger}
}

// Replay applies the staged changes one at a time, in order. Not-found
// responses on UPDATE and DELETE mean the entry vanished server-side since
// the grid loaded; those are logged and skipped so the rest of the batch
// still lands. Any other error aborts the remainder, and the caller must
// keep the ledger intact so the user can retry.
func (o *Orchestrator) Replay(ctx context.Context, changes []models.PendingChange) *CommitReport {
	report := &CommitReport{Results: make([]ChangeResult, 0, len(changes))}

	for i, change := range changes {
		result := ChangeResult{Change: change}

		switch {
		case change.Type != models.ChangeCreate && models.IsTempScheduleID(change.ScheduleID):
			// an update or delete aimed at an uncommitted entry has no
			// server-side target
			result.Outcome = OutcomeSkippedInval
			result.Detail = "target was never persisted"
			report.Skipped++
			o.logger.Warn("skipping change against temp schedule id",
				zap.String("type", string(change.Type)),
				zap.String("schedule_id", change.ScheduleID))

		case change.Type == models.ChangeCreate && (change.Day == "" || change.TimeSlotID == ""):
			result.Outcome = OutcomeSkippedInval
			result.Detail = "create is missing day or time slot"
			report.Skipped++
			o.logger.Warn("skipping incomplete create",
				zap.String("class_id", change.ClassID),
				zap.String("day", change.Day))

		default:
			err := o.apply(ctx, change)
			switch {
			case err == nil:
				result.Outcome = OutcomeApplied
				report.Applied++
			case appErrors.IsNotFound(err) && change.Type != models.ChangeCreate:
				result.Outcome = OutcomeSkippedStale
				result.Detail = "entry no longer exists"
				report.Skipped++
				o.logger.Warn("skipping stale change",
					zap.String("type", string(change.Type)),
					zap.String("schedule_id", change.ScheduleID))
			default:
				result.Outcome = OutcomeFailed
				result.Detail = err.Error()
				report.Err = fmt.Errorf("commit %s for class %s: %w", change.Type, change.ClassID, err)
				report.Results = append(report.Results, result)
				o.logger.Error("commit replay aborted",
					zap.String("type", string(change.Type)),
					zap.String("class_id", change.ClassID),
					zap.Error(err))
				for _, rest := range changes[i+1:] {
					report.Results = append(report.Results, ChangeResult{Change: rest, Outcome: OutcomeNotAttempted})
				}
				return report
			}
		}

		report.Results = append(report.Results, result)
	}
	return report
}

func (o *Orchestrator) apply(ctx context.Context, change models.PendingChange) error {
	switch change.Type {
	case models.ChangeCreate:
		_, err := o.writer.CreateSchedule(ctx, change.ClassID, change.Day, change.TimeSlotID, change.RoomID)
		return err
	case models.ChangeUpdate:
		_, err := o.writer.UpdateSchedule(ctx, change.ScheduleID, change.Day, change.TimeSlotID, change.RoomID)
		return err
	case models.ChangeDelete:
		return o.writer.DeleteSchedule(ctx, change.ScheduleID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown change type %q", change.Type))
	}
}
