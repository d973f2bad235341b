package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/classgrid/timetable-api/internal/models"
)

// TeacherRepository reads teachers and their timetable workload.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, email, created_at FROM teachers ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, created_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

type teacherWorkloadRow struct {
	TeacherID   string `db:"teacher_id"`
	ClassCount  int    `db:"class_count"`
	WeeklyHours int    `db:"weekly_hours"`
}

// Workloads aggregates per-teacher class counts and scheduled weekly
// hours. Each schedule entry counts as one hour; overload is judged by
// the caller against its configured threshold.
func (r *TeacherRepository) Workloads(ctx context.Context) (map[string]models.TeacherWorkload, error) {
	const query = `
		SELECT c.teacher_id AS teacher_id,
		       COUNT(DISTINCT c.id) AS class_count,
		       COUNT(s.id) AS weekly_hours
		FROM classes c
		LEFT JOIN class_schedules s ON s.class_id = c.id
		WHERE c.teacher_id IS NOT NULL
		GROUP BY c.teacher_id`
	var rows []teacherWorkloadRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("aggregate teacher workloads: %w", err)
	}

	workloads := make(map[string]models.TeacherWorkload, len(rows))
	for _, row := range rows {
		workloads[row.TeacherID] = models.TeacherWorkload{
			ClassCount:  row.ClassCount,
			WeeklyHours: row.WeeklyHours,
		}
	}
	return workloads, nil
}
