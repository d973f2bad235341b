package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classgrid/timetable-api/internal/dto"
	"github.com/classgrid/timetable-api/internal/models"
	"github.com/classgrid/timetable-api/internal/timetable"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
	"github.com/classgrid/timetable-api/pkg/export"
	"github.com/classgrid/timetable-api/pkg/logger"
)

type gridCatalog interface {
	ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListTeachers(ctx context.Context, includeWorkload bool) ([]models.Teacher, error)
}

type gridMetrics interface {
	SessionOpened()
	SessionClosed()
	CommitReplayed(applied, skipped int)
}

// GridServiceConfig governs session behaviour.
type GridServiceConfig struct {
	SessionTTL   time.Duration
	RoomStamping bool
}

// GridService owns grid editing sessions. Each session holds one editor's
// staged timetable state server-side; operations on a session are
// serialized through a per-session mutex, mirroring the single-threaded
// editor the grid fronts for.
type GridService struct {
	catalog  gridCatalog
	writer   timetable.ScheduleWriter
	store    *sessionStore
	cfg      GridServiceConfig
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	metrics  gridMetrics
	validate *validator.Validate
	logger   *zap.Logger
}

// GridServiceOption configures the service.
type GridServiceOption func(*GridService)

// WithGridMetrics attaches session/commit instrumentation.
func WithGridMetrics(m gridMetrics) GridServiceOption {
	return func(s *GridService) { s.metrics = m }
}

// NewGridService wires the grid service.
func NewGridService(catalog gridCatalog, writer timetable.ScheduleWriter, cfg GridServiceConfig, validate *validator.Validate, logger *zap.Logger, opts ...GridServiceOption) *GridService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 45 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GridService{
		catalog:  catalog,
		writer:   writer,
		store:    newSessionStore(cfg.SessionTTL),
		cfg:      cfg,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		validate: validate,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// OpenSession loads the catalog and starts a fresh editing session.
func (s *GridService) OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.GridSnapshot, error) {
	classes, slots, rooms, teachers, err := s.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	stamping := s.cfg.RoomStamping
	if req.RoomStamping != nil {
		stamping = *req.RoomStamping
	}
	session := timetable.NewGridSession(uuid.NewString(), classes, slots, rooms, teachers, stamping)
	s.store.Save(session)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	logger.WithSession(s.logger, session.ID).Info("grid session opened",
		zap.Int("scheduled", len(session.Scheduled)),
		zap.Int("unassigned", len(session.Unassigned)))
	return s.snapshot(session), nil
}

// GetSnapshot returns the current render state of a session.
func (s *GridService) GetSnapshot(ctx context.Context, sessionID string) (*dto.GridSnapshot, error) {
	var snap *dto.GridSnapshot
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		snap = s.snapshot(session)
		return nil
	})
	return snap, err
}

// BeginDrag records the start of a drag gesture on the session.
func (s *GridService) BeginDrag(ctx context.Context, sessionID string, req dto.BeginDragRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drag payload")
	}
	return s.withSession(sessionID, func(session *timetable.GridSession) error {
		return session.BeginDrag(req.ClassID, req.Source)
	})
}

// CancelDrag abandons the session's in-flight gesture.
func (s *GridService) CancelDrag(ctx context.Context, sessionID string) error {
	return s.withSession(sessionID, func(session *timetable.GridSession) error {
		session.CancelDrag()
		return nil
	})
}

// Drop completes a drag onto a grid cell and returns the updated snapshot.
func (s *GridService) Drop(ctx context.Context, sessionID string, req dto.DropRequest) (*dto.GridSnapshot, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	var snap *dto.GridSnapshot
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		if _, err := session.DropOnCell(req.Day, req.TimeSlotID, req.Payload); err != nil {
			return err
		}
		snap = s.snapshot(session)
		return nil
	})
	return snap, err
}

// Unassign completes a drag onto the unassign zone.
func (s *GridService) Unassign(ctx context.Context, sessionID string, req dto.UnassignRequest) (*dto.GridSnapshot, error) {
	var snap *dto.GridSnapshot
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		if _, err := session.DropToUnassigned(req.Payload); err != nil {
			return err
		}
		snap = s.snapshot(session)
		return nil
	})
	return snap, err
}

// SetFilter replaces the session's view filter and returns the filtered
// snapshot.
func (s *GridService) SetFilter(ctx context.Context, sessionID string, req dto.FilterRequest) (*dto.GridSnapshot, error) {
	var snap *dto.GridSnapshot
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		session.SetFilter(timetable.Filter{TeacherID: req.TeacherID, RoomID: req.RoomID})
		snap = s.snapshot(session)
		return nil
	})
	return snap, err
}

// Commit replays the session ledger against the backing store. On success
// (including benign skips) the ledger is cleared and the grid is rebuilt
// from a fresh fetch, so the caller sees persisted truth rather than the
// optimistic view. An aborted replay leaves ledger and view untouched for
// retry.
func (s *GridService) Commit(ctx context.Context, sessionID string) (*dto.CommitResponse, error) {
	var resp *dto.CommitResponse
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		changes := session.Ledger.Entries()
		if len(changes) == 0 {
			resp = &dto.CommitResponse{Snapshot: s.snapshot(session)}
			return nil
		}

		orch := timetable.NewOrchestrator(s.writer, s.logger)
		report := orch.Replay(ctx, changes)
		if report.Aborted() {
			// keep the writer's status (409 on conflict, 400 on bad
			// payload) so the editor can react; anything untyped is an
			// upstream failure
			aborted := appErrors.FromError(report.Err)
			if aborted.Code == appErrors.ErrInternal.Code {
				aborted = appErrors.ErrUpstream
			}
			return appErrors.Wrap(report.Err, aborted.Code, aborted.Status, "commit failed, staged changes kept")
		}

		session.Ledger.Clear()
		classes, _, _, _, err := s.fetchCatalog(ctx)
		if err != nil {
			// the writes landed; surface the refetch failure but do not
			// resurrect the ledger
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "commit applied but refetch failed")
		}
		session.Reload(classes)

		if s.metrics != nil {
			s.metrics.CommitReplayed(report.Applied, report.Skipped)
		}
		logger.WithSession(s.logger, session.ID).Info("grid session committed",
			zap.Int("applied", report.Applied),
			zap.Int("skipped", report.Skipped))
		resp = &dto.CommitResponse{
			Applied:  report.Applied,
			Skipped:  report.Skipped,
			Results:  report.Results,
			Snapshot: s.snapshot(session),
		}
		return nil
	})
	return resp, err
}

// Cancel discards all staged changes and rebuilds the grid from a fresh
// fetch.
func (s *GridService) Cancel(ctx context.Context, sessionID string) (*dto.GridSnapshot, error) {
	var snap *dto.GridSnapshot
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		session.Ledger.Clear()
		classes, _, _, _, err := s.fetchCatalog(ctx)
		if err != nil {
			return err
		}
		session.Reload(classes)
		snap = s.snapshot(session)
		return nil
	})
	return snap, err
}

// CloseSession drops the session.
func (s *GridService) CloseSession(sessionID string) {
	if s.store.Delete(sessionID) && s.metrics != nil {
		s.metrics.SessionClosed()
	}
}

// ExportCSV renders the session's visible timetable as CSV.
func (s *GridService) ExportCSV(ctx context.Context, sessionID string) ([]byte, error) {
	var out []byte
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		data, renderErr := s.csv.Render(gridDataset(session))
		if renderErr != nil {
			return renderErr
		}
		out = data
		return nil
	})
	return out, err
}

// ExportPDF renders the session's visible timetable as a landscape PDF.
func (s *GridService) ExportPDF(ctx context.Context, sessionID string) ([]byte, error) {
	var out []byte
	err := s.withSession(sessionID, func(session *timetable.GridSession) error {
		data, renderErr := s.pdf.Render(gridDataset(session), "Weekly Timetable")
		if renderErr != nil {
			return renderErr
		}
		out = data
		return nil
	})
	return out, err
}

func (s *GridService) fetchCatalog(ctx context.Context) ([]models.ClassEntity, []models.TimeSlot, []models.Room, []models.Teacher, error) {
	classes, err := s.catalog.ListClasses(ctx, models.ClassFilter{})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	slots, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	teachers, err := s.catalog.ListTeachers(ctx, true)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return classes, slots, rooms, teachers, nil
}

func (s *GridService) withSession(sessionID string, fn func(*timetable.GridSession) error) error {
	entry, ok := s.store.Get(sessionID)
	if !ok {
		return appErrors.ErrSessionGone
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// snapshot builds the render matrix: one row per time slot, one cell per
// day, entries resolved through the same matching chain the detector uses
// so legacy rows land in the right cells.
func (s *GridService) snapshot(session *timetable.GridSession) *dto.GridSnapshot {
	roomNames := make(map[string]string, len(session.Rooms))
	for _, room := range session.Rooms {
		roomNames[room.ID] = room.Name
	}
	conflictKeys := timetable.ConflictKeys(session.Conflicts)
	pendingIDs := make(map[string]struct{}, session.Ledger.Len())
	for _, change := range session.Ledger.Entries() {
		pendingIDs[change.ScheduleID] = struct{}{}
	}

	visible := session.VisibleScheduled()
	rows := make([]dto.GridRow, 0, len(session.TimeSlots))
	for _, slot := range session.TimeSlots {
		row := dto.GridRow{TimeSlot: slot, Cells: make([]dto.GridCell, 0, len(session.Days))}
		for _, day := range session.Days {
			cell := dto.GridCell{Day: day, TimeSlotID: slot.ID}
			for _, class := range visible {
				for _, entry := range class.Schedules {
					if entry.Day != day || !timetable.EntryMatchesSlot(entry, slot) {
						continue
					}
					_, pending := pendingIDs[entry.ID]
					cell.Entries = append(cell.Entries, dto.GridCellEntry{
						ScheduleID: entry.ID,
						ClassID:    class.ID,
						ClassName:  class.Name,
						Subject:    class.Subject,
						TeacherID:  class.TeacherID,
						RoomID:     entry.RoomID,
						RoomName:   roomName(roomNames, entry.RoomID),
						Pending:    pending,
						Conflicted: cellConflicted(conflictKeys, day, slot.Label, class.TeacherID, entry.RoomID),
					})
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}

	unassigned := make([]dto.UnassignedClass, 0, len(session.Unassigned))
	for _, class := range session.Unassigned {
		unassigned = append(unassigned, dto.UnassignedClass{
			ClassID:   class.ID,
			ClassName: class.Name,
			Subject:   class.Subject,
			TeacherID: class.TeacherID,
		})
	}

	return &dto.GridSnapshot{
		SessionID:    session.ID,
		Days:         session.Days,
		Rows:         rows,
		Unassigned:   unassigned,
		Conflicts:    session.Conflicts,
		Pending:      session.Ledger.Entries(),
		Filter:       session.Filter,
		RoomStamping: session.RoomStamping,
		Dirty:        session.Ledger.Len() > 0,
	}
}

func roomName(names map[string]string, roomID *string) string {
	if roomID == nil {
		return ""
	}
	return names[*roomID]
}

func cellConflicted(keys map[string]struct{}, day, slotLabel string, teacherID, roomID *string) bool {
	if teacherID != nil {
		if _, ok := keys[string(timetable.ConflictTeacher)+":"+day+":"+slotLabel+":"+*teacherID]; ok {
			return true
		}
	}
	if roomID != nil {
		if _, ok := keys[string(timetable.ConflictRoom)+":"+day+":"+slotLabel+":"+*roomID]; ok {
			return true
		}
	}
	return false
}

// gridDataset flattens the session's visible timetable for export: one row
// per (slot, day, class) placement in canonical order.
func gridDataset(session *timetable.GridSession) export.Dataset {
	roomNames := make(map[string]string, len(session.Rooms))
	for _, room := range session.Rooms {
		roomNames[room.ID] = room.Name
	}
	pretty := prettyDays(session.Days)
	headers := append([]string{"Time Slot"}, pretty...)

	rows := make([]map[string]string, 0, len(session.TimeSlots))
	visible := session.VisibleScheduled()
	for _, slot := range session.TimeSlots {
		row := map[string]string{"Time Slot": slot.Label + " " + slot.StartTime + "-" + slot.EndTime}
		for i, day := range session.Days {
			var names []string
			for _, class := range visible {
				for _, entry := range class.Schedules {
					if entry.Day != day || !timetable.EntryMatchesSlot(entry, slot) {
						continue
					}
					label := class.Name
					if name := roomName(roomNames, entry.RoomID); name != "" {
						label += " (" + name + ")"
					}
					names = append(names, label)
				}
			}
			row[pretty[i]] = strings.Join(names, "; ")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func prettyDays(days []string) []string {
	out := make([]string, len(days))
	for i, day := range days {
		out[i] = strings.Title(strings.ToLower(day)) //nolint:staticcheck // day names are ASCII
	}
	return out
}

// --- session store ---

type sessionEntry struct {
	mu      sync.Mutex
	session *timetable.GridSession
	touched time.Time
}

type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*sessionEntry
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{ttl: ttl, items: make(map[string]*sessionEntry)}
}

func (s *sessionStore) Save(session *timetable.GridSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = &sessionEntry{session: session, touched: time.Now()}
}

func (s *sessionStore) Get(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(entry.touched) > s.ttl {
		delete(s.items, id)
		return nil, false
	}
	entry.touched = time.Now()
	return entry, true
}

func (s *sessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}
