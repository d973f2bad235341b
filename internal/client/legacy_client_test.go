package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgrid/timetable-api/internal/models"
	appErrors "github.com/classgrid/timetable-api/pkg/errors"
)

func TestLegacyClientListClasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classes", r.URL.Path)
		require.Equal(t, "schedules", r.URL.Query().Get("include"))
		require.Equal(t, "teacher-1", r.URL.Query().Get("teacher_id"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id": "class-1", "name": "Math 9A",
					"schedules": []map[string]interface{}{
						{"id": "sched-1", "class_id": "class-1", "day_of_week": "MONDAY", "time_slot_id": "slot-1"},
					},
				},
			},
		})
	}))
	defer server.Close()

	c := NewLegacyClient(server.URL, nil, nil)
	classes, err := c.ListClasses(context.Background(), models.ClassFilter{TeacherID: "teacher-1"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Math 9A", classes[0].Name)
	require.Len(t, classes[0].Schedules, 1)
	assert.Equal(t, "MONDAY", classes[0].Schedules[0].Day)
}

func TestLegacyClientCreateSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/schedules", r.URL.Path)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "class-1", payload["class_id"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id": "sched-9", "class_id": "class-1", "day_of_week": "TUESDAY", "time_slot_id": "slot-2",
			},
		})
	}))
	defer server.Close()

	c := NewLegacyClient(server.URL, nil, nil)
	entry, err := c.CreateSchedule(context.Background(), "class-1", "TUESDAY", "slot-2", nil)
	require.NoError(t, err)
	assert.Equal(t, "sched-9", entry.ID)
}

func TestLegacyClientNotFoundMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewLegacyClient(server.URL, nil, nil)
	err := c.DeleteSchedule(context.Background(), "sched-gone")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestLegacyClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewLegacyClient(server.URL, nil, nil)
	_, err := c.ListTimeSlots(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestLegacyClientUnreachable(t *testing.T) {
	c := NewLegacyClient("http://127.0.0.1:1", nil, nil)
	_, err := c.ListRooms(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}
