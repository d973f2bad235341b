package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/internal/repository"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

// defaultOverloadHours is the weekly scheduled-hours threshold above which
// a teacher is flagged overloaded on the grid.
const defaultOverloadHours = 30

type classCatalogStore interface {
	ListWithSchedules(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error)
	FindByID(ctx context.Context, id string) (*models.ClassEntity, error)
}

type timeSlotCatalogStore interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
}

type roomCatalogStore interface {
	List(ctx context.Context) ([]models.Room, error)
}

type teacherCatalogStore interface {
	List(ctx context.Context) ([]models.Teacher, error)
	Workloads(ctx context.Context) (map[string]models.TeacherWorkload, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

// CatalogService serves the reference data the grid is built from:
// classes with schedules, time slots, rooms, and teachers. Slots, rooms
// and teachers change rarely and are cached; classes and schedules are
// always read fresh.
type CatalogService struct {
	classes       classCatalogStore
	slots         timeSlotCatalogStore
	rooms         roomCatalogStore
	teachers      teacherCatalogStore
	cache         catalogCache
	cacheTTL      time.Duration
	overloadHours int
	logger        *zap.Logger
}

// CatalogServiceOption configures the service.
type CatalogServiceOption func(*CatalogService)

// WithCatalogCache enables catalog caching with the given TTL.
func WithCatalogCache(cache catalogCache, ttl time.Duration) CatalogServiceOption {
	return func(s *CatalogService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithOverloadThreshold overrides the weekly-hours overload threshold.
func WithOverloadThreshold(hours int) CatalogServiceOption {
	return func(s *CatalogService) {
		if hours > 0 {
			s.overloadHours = hours
		}
	}
}

// NewCatalogService wires the catalog service.
func NewCatalogService(classes classCatalogStore, slots timeSlotCatalogStore, rooms roomCatalogStore, teachers teacherCatalogStore, logger *zap.Logger, opts ...CatalogServiceOption) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CatalogService{
		classes:       classes,
		slots:         slots,
		rooms:         rooms,
		teachers:      teachers,
		overloadHours: defaultOverloadHours,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ListClasses returns classes with their schedule entries attached.
func (s *CatalogService) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error) {
	return s.classes.ListWithSchedules(ctx, filter)
}

// GetClass loads one class.
func (s *CatalogService) GetClass(ctx context.Context, id string) (*models.ClassEntity, error) {
	return s.classes.FindByID(ctx, id)
}

// ListTimeSlots returns the time-slot catalog, cached when enabled.
func (s *CatalogService) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if s.cached(ctx, repository.CacheKeyTimeSlots, &slots) {
		return slots, nil
	}
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, repository.CacheKeyTimeSlots, slots)
	return slots, nil
}

// ListRooms returns the room catalog, cached when enabled.
func (s *CatalogService) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if s.cached(ctx, repository.CacheKeyRooms, &rooms) {
		return rooms, nil
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, repository.CacheKeyRooms, rooms)
	return rooms, nil
}

// ListTeachers returns teachers. With includeWorkload the current class
// count and scheduled weekly hours are attached and teachers over the
// threshold are flagged; workloads are never cached.
func (s *CatalogService) ListTeachers(ctx context.Context, includeWorkload bool) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if !s.cached(ctx, repository.CacheKeyTeachers, &teachers) {
		var err error
		teachers, err = s.teachers.List(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, repository.CacheKeyTeachers, teachers)
	}

	if !includeWorkload {
		return teachers, nil
	}
	workloads, err := s.teachers.Workloads(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teachers {
		if w, ok := workloads[teachers[i].ID]; ok {
			w.Overloaded = w.WeeklyHours > s.overloadHours
			teachers[i].Workload = &w
		}
	}
	return teachers, nil
}

// InvalidateCatalog drops the cached reference data.
func (s *CatalogService) InvalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, repository.CacheKeyTimeSlots, repository.CacheKeyRooms, repository.CacheKeyTeachers)
}

func (s *CatalogService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if err != appErrors.ErrCacheMiss && !appErrors.IsNotFound(err) {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CatalogService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
