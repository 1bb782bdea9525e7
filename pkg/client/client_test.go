package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "test-token"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAlertService_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/alerts", r.URL.Path)
		assert.Equal(t, "new", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"data": []map[string]interface{}{
					{"id": "a1", "status": "new", "incidentType": "stroke"},
				},
				"page":        2,
				"page_size":   50,
				"total_items": 51,
				"total_pages": 2,
			},
		})
	})

	page, err := c.Alerts().List(context.Background(), &AlertListOptions{
		ListOptions: ListOptions{Page: 2},
		Status:      "new",
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "a1", page.Data[0].ID)
	assert.Equal(t, int64(51), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
}

func TestAlertService_TransitionArchived(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/alerts/a1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "completed", body["status"])

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": "a1", "status": "completed", "archived": true},
		})
	})

	res, err := c.Alerts().Transition(context.Background(), "a1", "completed", "")
	require.NoError(t, err)
	assert.True(t, res.Archived)
	assert.Nil(t, res.Alert)
}

func TestDoRequest_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantStatus int
		check      func(*APIError) bool
	}{
		{
			name:       "invalid transition",
			status:     http.StatusBadRequest,
			body:       `{"success":false,"error":{"code":"INVALID_TRANSITION","message":"cannot move from new to completed"}}`,
			wantCode:   "INVALID_TRANSITION",
			wantStatus: http.StatusBadRequest,
			check:      (*APIError).IsInvalidTransition,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"success":false,"error":{"code":"NOT_FOUND","message":"Alert not found"}}`,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
			check:      (*APIError).IsNotFound,
		},
		{
			name:       "plain text body",
			status:     http.StatusTooManyRequests,
			body:       "rate limit exceeded",
			wantStatus: http.StatusTooManyRequests,
			check:      (*APIError).IsRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Alerts().Get(context.Background(), "a1")
			require.Error(t, err)

			apiErr, ok := err.(*APIError)
			require.True(t, ok, "expected *APIError, got %T", err)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.True(t, tt.check(apiErr))
		})
	}
}

func TestArchiveService_Delete(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/archive/a1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Archive().Delete(context.Background(), "a1"))
}

func TestPresence(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"connectionId": "c1", "responderId": "medic-1", "responderName": "Ana Reyes", "lat": 14.6, "lng": 121.0},
			},
		})
	})

	locs, err := c.Presence(context.Background())
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Ana Reyes", locs[0].ResponderName)
	assert.InDelta(t, 121.0, locs[0].Longitude, 0.0001)
}
