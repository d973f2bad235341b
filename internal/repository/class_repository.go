package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/classgrid/timetable-api/internal/models"
)

const classColumns = "id, name, subject, teacher_id, capacity, created_at, updated_at"

// ClassRepository provides persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching the filter, ordered by name.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC", classColumns, base)
	var classes []models.ClassEntity
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassEntity, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.ClassEntity
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListWithSchedules returns classes with their schedule entries attached.
// This is the grid's load path, so schedules come back in one query and
// are grouped in memory.
func (r *ClassRepository) ListWithSchedules(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error) {
	classes, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return classes, nil
	}

	ids := make([]string, len(classes))
	for i, class := range classes {
		ids[i] = class.ID
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM class_schedules WHERE class_id IN (?) ORDER BY day_of_week, time_slot_id", scheduleColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build schedules query: %w", err)
	}
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}

	byClass := make(map[string][]models.ScheduleEntry, len(classes))
	for _, entry := range entries {
		byClass[entry.ClassID] = append(byClass[entry.ClassID], entry)
	}
	for i := range classes {
		classes[i].Schedules = byClass[classes[i].ID]
	}
	return classes, nil
}
