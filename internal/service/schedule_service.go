package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classgrid/timetable-api/internal/dto"
	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/internal/timetable"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

type scheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	ExistsForClassSlot(ctx context.Context, classID, day, timeSlotID, excludeID string) (bool, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, id, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
}

type scheduleClassStore interface {
	FindByID(ctx context.Context, id string) (*models.ClassEntity, error)
	ListWithSchedules(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error)
}

type scheduleSlotStore interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// ScheduleService implements the schedule write API the grid commits
// through, plus listing and the pre-flight conflict check. It satisfies
// timetable.ScheduleWriter directly so the commit orchestrator can replay
// against the local store without an adapter.
type ScheduleService struct {
	repo     scheduleStore
	classes  scheduleClassStore
	slots    scheduleSlotStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewScheduleService wires the schedule service.
func NewScheduleService(repo scheduleStore, classes scheduleClassStore, slots scheduleSlotStore, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, classes: classes, slots: slots, validate: validate, logger: logger}
}

// List returns schedule entries matching the query.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntry, error) {
	return s.repo.List(ctx, models.ScheduleFilter{
		ClassID:    query.ClassID,
		Day:        query.Day,
		TimeSlotID: query.TimeSlotID,
		RoomID:     query.RoomID,
	})
}

// Get loads one schedule entry.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, err
	}
	return entry, nil
}

// Create validates and stores a new schedule entry.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.ScheduleEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, err
	}
	if _, err := s.slots.FindByID(ctx, req.TimeSlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown time slot")
		}
		return nil, err
	}
	taken, err := s.repo.ExistsForClassSlot(ctx, req.ClassID, req.Day, req.TimeSlotID, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class already occupies this slot")
	}

	entry := &models.ScheduleEntry{
		ClassID:    req.ClassID,
		Day:        req.Day,
		TimeSlotID: req.TimeSlotID,
		RoomID:     req.RoomID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("schedule entry created",
		zap.String("schedule_id", entry.ID),
		zap.String("class_id", entry.ClassID),
		zap.String("day", entry.Day))
	return entry, nil
}

// Update moves an existing entry to a new cell and/or room.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.UpdateScheduleRequest) (*models.ScheduleEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsForClassSlot(ctx, existing.ClassID, req.Day, req.TimeSlotID, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class already occupies this slot")
	}

	updated, err := s.repo.Update(ctx, id, req.Day, req.TimeSlotID, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return err
	}
	return nil
}

// CheckConflicts runs the pre-flight check for a class proposal: each
// proposed (day, time, room) slot is tested against the prospective
// teacher's existing entries (when a teacher is named) and, when a room
// is named, against that room's occupancy.
func (s *ScheduleService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, err
	}

	var teacherClasses []models.ClassEntity
	if req.TeacherID != "" {
		teacherClasses, err = s.classes.ListWithSchedules(ctx, models.ClassFilter{TeacherID: req.TeacherID})
		if err != nil {
			return nil, err
		}
	}

	var conflicts []models.ScheduleConflict
	for _, proposed := range req.Schedules {
		if !models.IsWeekday(proposed.Day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", proposed.Day))
		}

		for _, class := range teacherClasses {
			for _, entry := range class.Schedules {
				if entry.Day != proposed.Day || !timetable.EntryMatchesTimeText(entry, slots, proposed.Time) {
					continue
				}
				conflicts = append(conflicts, models.ScheduleConflict{
					Dimension: models.ConflictDimensionTeacher,
					Day:       proposed.Day,
					Time:      proposed.Time,
					ClassID:   class.ID,
					ClassName: class.Name,
					Message:   fmt.Sprintf("teacher already has %s at %s on %s", class.Name, proposed.Time, proposed.Day),
				})
			}
		}

		if proposed.RoomID == nil || *proposed.RoomID == "" {
			continue
		}
		roomEntries, err := s.repo.List(ctx, models.ScheduleFilter{Day: proposed.Day, RoomID: *proposed.RoomID})
		if err != nil {
			return nil, err
		}
		for _, entry := range roomEntries {
			if !timetable.EntryMatchesTimeText(entry, slots, proposed.Time) {
				continue
			}
			name := entry.ClassID
			if class, err := s.classes.FindByID(ctx, entry.ClassID); err == nil {
				name = class.Name
			}
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: models.ConflictDimensionRoom,
				Day:       proposed.Day,
				Time:      proposed.Time,
				ClassID:   entry.ClassID,
				ClassName: name,
				RoomID:    proposed.RoomID,
				Message:   fmt.Sprintf("room is taken by %s at %s on %s", name, proposed.Time, proposed.Day),
			})
		}
	}

	return &dto.ConflictCheckResponse{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}, nil
}

// CreateSchedule implements timetable.ScheduleWriter for commit replay.
func (s *ScheduleService) CreateSchedule(ctx context.Context, classID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	return s.Create(ctx, dto.CreateScheduleRequest{ClassID: classID, Day: day, TimeSlotID: timeSlotID, RoomID: roomID})
}

// UpdateSchedule implements timetable.ScheduleWriter for commit replay.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, scheduleID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	return s.Update(ctx, scheduleID, dto.UpdateScheduleRequest{Day: day, TimeSlotID: timeSlotID, RoomID: roomID})
}

// DeleteSchedule implements timetable.ScheduleWriter for commit replay.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return s.Delete(ctx, scheduleID)
}

var _ timetable.ScheduleWriter = (*ScheduleService)(nil)
