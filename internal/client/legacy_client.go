// Package client talks to the legacy school-management API. It satisfies
// the same catalog and schedule-writer contracts as the local store, so
// the grid can run against either backend during the migration.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

// LegacyClient is an HTTP client for the legacy backend.
type LegacyClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLegacyClient creates a client against baseURL.
func NewLegacyClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *LegacyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegacyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// envelope mirrors the legacy response shape.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// ListClasses fetches classes with their schedule entries embedded.
func (c *LegacyClient) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.ClassEntity, error) {
	query := url.Values{"include": {"schedules"}}
	if filter.TeacherID != "" {
		query.Set("teacher_id", filter.TeacherID)
	}
	if filter.Subject != "" {
		query.Set("subject", filter.Subject)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	var classes []models.ClassEntity
	if err := c.get(ctx, "/classes?"+query.Encode(), &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// ListTimeSlots fetches the time-slot catalog.
func (c *LegacyClient) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if err := c.get(ctx, "/time-slots", &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// ListRooms fetches the room catalog.
func (c *LegacyClient) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.get(ctx, "/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListTeachers fetches teachers, optionally with workload summaries.
func (c *LegacyClient) ListTeachers(ctx context.Context, includeWorkload bool) ([]models.Teacher, error) {
	path := "/teachers"
	if includeWorkload {
		path += "?include_workload=true"
	}
	var teachers []models.Teacher
	if err := c.get(ctx, path, &teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

type schedulePayload struct {
	ClassID    string  `json:"class_id,omitempty"`
	Day        string  `json:"day"`
	TimeSlotID string  `json:"time_slot_id"`
	RoomID     *string `json:"room_id,omitempty"`
}

// CreateSchedule implements timetable.ScheduleWriter against the legacy API.
func (c *LegacyClient) CreateSchedule(ctx context.Context, classID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	payload := schedulePayload{ClassID: classID, Day: day, TimeSlotID: timeSlotID, RoomID: roomID}
	var entry models.ScheduleEntry
	if err := c.send(ctx, http.MethodPost, "/schedules", payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateSchedule implements timetable.ScheduleWriter against the legacy API.
func (c *LegacyClient) UpdateSchedule(ctx context.Context, scheduleID, day, timeSlotID string, roomID *string) (*models.ScheduleEntry, error) {
	payload := schedulePayload{Day: day, TimeSlotID: timeSlotID, RoomID: roomID}
	var entry models.ScheduleEntry
	if err := c.send(ctx, http.MethodPut, "/schedules/"+url.PathEscape(scheduleID), payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteSchedule implements timetable.ScheduleWriter against the legacy API.
func (c *LegacyClient) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return c.send(ctx, http.MethodDelete, "/schedules/"+url.PathEscape(scheduleID), nil, nil)
}

func (c *LegacyClient) get(ctx context.Context, path string, dest interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, dest)
}

func (c *LegacyClient) send(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal legacy payload: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build legacy request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "legacy backend unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("legacy %s %s: not found", method, path))
	case resp.StatusCode == http.StatusConflict:
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("legacy %s %s: conflict", method, path))
	case resp.StatusCode >= 400:
		c.logger.Warn("legacy backend error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("legacy %s %s: status %d", method, path, resp.StatusCode))
	}

	if dest == nil {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode legacy response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("unmarshal legacy data: %w", err)
	}
	return nil
}
