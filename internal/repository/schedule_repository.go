package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classgrid/timetable-api/internal/models"
)

const scheduleColumns = "id, class_id, day_of_week, time_slot_id, time_text, room_id, created_at, updated_at"

// ScheduleRepository provides persistence for class schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule entries with optional filtering, in the canonical
// day-then-slot order.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	base := "FROM class_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.TimeSlotID != "" {
		conditions = append(conditions, fmt.Sprintf("time_slot_id = $%d", len(args)+1))
		args = append(args, filter.TimeSlotID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY'], day_of_week), time_slot_id", scheduleColumns, base)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return entries, nil
}

// FindByID loads a schedule entry by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByClass returns a class's schedule entries.
func (r *ScheduleRepository) ListByClass(ctx context.Context, classID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules WHERE class_id = $1 ORDER BY day_of_week, time_slot_id", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list schedules by class: %w", err)
	}
	return entries, nil
}

// ExistsForClassSlot reports whether the class already occupies the
// (day, time slot) cell. Used as a server-side guard on create and move.
func (r *ScheduleRepository) ExistsForClassSlot(ctx context.Context, classID, day, timeSlotID, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM class_schedules WHERE class_id = $1 AND day_of_week = $2 AND time_slot_id = $3 AND id <> $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, classID, day, timeSlotID, excludeID); err != nil {
		return false, fmt.Errorf("check schedule slot: %w", err)
	}
	return exists, nil
}

// Create stores a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO class_schedules (id, class_id, day_of_week, time_slot_id, time_text, room_id, created_at, updated_at) VALUES (:id, :class_id, :day_of_week, :time_slot_id, :time_text, :room_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update moves an entry to a new cell and/or room. Moving an entry clears
// any legacy free-text time; the slot id is authoritative from then on.
func (r *ScheduleRepository) Update(ctx context.Context, id, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	const query = `UPDATE class_schedules SET day_of_week = $2, time_slot_id = $3, room_id = $4, time_text = '', updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, day, timeSlotID, roomID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update schedule rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.FindByID(ctx, id)
}

// Delete removes a schedule entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM class_schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
