package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/api/handlers"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/api/router"
	"github.com/pratik-mahalle/emsdispatch/internal/auth"
	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/realtime"
	"github.com/pratik-mahalle/emsdispatch/internal/repository/postgres"
	"github.com/pratik-mahalle/emsdispatch/internal/services"
	"github.com/pratik-mahalle/emsdispatch/internal/testutil"
)

const (
	testSecret = "test-secret-key-for-testing-only"
	testIssuer = "ems-dispatch-test"
)

type dispatchEnv struct {
	server  *httptest.Server
	bus     *realtime.Bus
	gateway *testutil.MockGateway
	tokens  map[user.Role]string
}

// setupDispatchEnv wires the full HTTP stack over an in-memory SQLite store
func setupDispatchEnv(t *testing.T) *dispatchEnv {
	t.Helper()

	db, dialect := testutil.NewTestDB(t)
	log := testutil.NewTestLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{
			FrontendURL:    "http://localhost:3000",
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		Auth:     config.AuthConfig{JWTSecret: testSecret, Issuer: testIssuer},
		Realtime: config.RealtimeConfig{SubscriberBuffer: 32},
	}

	alertRepo := postgres.NewAlertRepository(db, dialect)
	archiveRepo := postgres.NewArchiveRepository(db, dialect)
	userRepo := postgres.NewUserRepository(db, dialect)

	ctx := context.Background()
	accounts := []*user.User{
		{ID: "medic-1", Email: "ana@example.org", FirstName: "Ana", LastName: "Reyes", PhoneNumber: "+639170000001", Role: user.RoleEMSPersonnel},
		{ID: "admin-1", Email: "ops@example.org", FirstName: "Ops", LastName: "Lead", Role: user.RoleAdmin},
		{ID: "citizen-1", Email: "lito@example.org", FirstName: "Lito", LastName: "Santos", PhoneNumber: "+639170000002", Role: user.RoleCitizen},
	}
	for _, u := range accounts {
		if err := userRepo.Create(ctx, u); err != nil {
			t.Fatalf("Failed to seed user %s: %v", u.ID, err)
		}
	}

	gateway := testutil.NewMockGateway()
	dispatcher := services.NewNotificationService(gateway, services.NewStaffTokenSource(userRepo),
		postgres.NewNotificationRepository(db, dialect), services.NotificationConfig{QueueSize: 8, Workers: 1}, log)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	bus := realtime.NewBus(cfg.Realtime.SubscriberBuffer, log)
	t.Cleanup(bus.CloseAll)
	tracker := services.NewPresenceTracker(bus, log)

	alertService := services.NewAlertService(alertRepo, archiveRepo, userRepo, bus, dispatcher, alert.ArchivalPolicy{}, log)
	userService := services.NewUserService(userRepo, nil, log)
	val := services.NewAlertValidator()

	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(db, nil, log),
		Alert:    handlers.NewAlertHandler(alertService, log, val),
		Archive:  handlers.NewArchiveHandler(alertService, log),
		Presence: handlers.NewPresenceHandler(tracker),
		User:     handlers.NewUserHandler(userService, log, val),
		Realtime: handlers.NewRealtimeHandler(bus, tracker, cfg.Realtime, middleware.AllowedOrigins(cfg.Server.FrontendURL), log),
	}

	ts := httptest.NewServer(router.New(cfg, log, middleware.NewTokenVerifier(testSecret, testIssuer), h))
	t.Cleanup(ts.Close)

	env := &dispatchEnv{server: ts, bus: bus, gateway: gateway, tokens: map[user.Role]string{}}
	for _, u := range accounts {
		token, err := auth.MintToken(user.Actor{ID: u.ID, Role: u.Role, Name: u.FullName()}, testSecret, testIssuer, time.Hour)
		if err != nil {
			t.Fatalf("Failed to mint token: %v", err)
		}
		env.tokens[u.Role] = token
	}
	return env
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends a request as role; an empty role sends no token
func (e *dispatchEnv) do(t *testing.T, method, path string, role user.Role, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s returned non-JSON body %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

func nextEvent(t *testing.T, sub *realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for realtime event")
		return realtime.Event{}
	}
}

func TestDispatch_AnonymousAlertThroughCompletion(t *testing.T) {
	env := setupDispatchEnv(t)
	sub := env.bus.Subscribe(realtime.SubscriberInfo{UserID: "observer", Transport: "test"})
	defer sub.Close()

	// A staff device is registered before the report comes in
	if status, _ := env.do(t, http.MethodPost, "/api/v1/users/me/push-tokens", user.RoleEMSPersonnel,
		map[string]string{"token": "device-ana"}); status != http.StatusOK {
		t.Fatalf("Register push token returned %d", status)
	}

	status, resp := env.do(t, http.MethodPost, "/api/v1/alerts", "", map[string]interface{}{
		"reporterName":  "Maria Cruz",
		"reporterPhone": "+639171234567",
		"address":       "12 Mabini St, Quezon City",
		"incidentType":  "cardiac_arrest",
		"patientCount":  1,
	})
	if status != http.StatusCreated {
		t.Fatalf("Submit returned %d: %s", status, resp.Error.Message)
	}

	var created struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Reporter struct {
			Anonymous bool `json:"anonymous"`
		} `json:"reporter"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("Failed to decode alert: %v", err)
	}
	if created.Status != "new" || !created.Reporter.Anonymous {
		t.Errorf("Unexpected created alert: %+v", created)
	}
	if ev := nextEvent(t, sub); ev.Type != realtime.EventAlertCreated {
		t.Errorf("Expected %s event, got %s", realtime.EventAlertCreated, ev.Type)
	}

	// Staff push goes out in the background
	deadline := time.Now().Add(2 * time.Second)
	for env.gateway.MessageCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.gateway.MessageCount() != 1 {
		t.Errorf("Expected 1 push message, got %d", env.gateway.MessageCount())
	}

	// Citizens cannot drive the lifecycle
	if status, resp := env.do(t, http.MethodPatch, "/api/v1/alerts/"+created.ID+"/status", user.RoleCitizen,
		map[string]string{"status": "responding"}); status != http.StatusForbidden {
		t.Errorf("Citizen transition returned %d (%s)", status, resp.Error.Code)
	}

	// Skipping ahead is rejected
	if status, resp := env.do(t, http.MethodPatch, "/api/v1/alerts/"+created.ID+"/status", user.RoleEMSPersonnel,
		map[string]string{"status": "completed"}); status != http.StatusBadRequest || resp.Error.Code != "INVALID_TRANSITION" {
		t.Errorf("Skip transition returned %d (%s)", status, resp.Error.Code)
	}

	for _, next := range []string{"responding", "en_route", "on_scene"} {
		status, resp := env.do(t, http.MethodPatch, "/api/v1/alerts/"+created.ID+"/status", user.RoleEMSPersonnel,
			map[string]string{"status": next})
		if status != http.StatusOK {
			t.Fatalf("Transition to %s returned %d: %s", next, status, resp.Error.Message)
		}
		if ev := nextEvent(t, sub); ev.Type != realtime.EventAlertUpdated {
			t.Errorf("Expected %s event after %s, got %s", realtime.EventAlertUpdated, next, ev.Type)
		}
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/alerts/"+created.ID, user.RoleEMSPersonnel, nil)
	if status != http.StatusOK {
		t.Fatalf("Get returned %d", status)
	}
	var live struct {
		AssignedResponder struct {
			Name string `json:"name"`
		} `json:"assignedResponder"`
		StatusHistory []struct {
			Status string `json:"status"`
		} `json:"statusHistory"`
	}
	if err := json.Unmarshal(resp.Data, &live); err != nil {
		t.Fatalf("Failed to decode alert: %v", err)
	}
	if live.AssignedResponder.Name != "Ana Reyes" {
		t.Errorf("Expected responder Ana Reyes, got %q", live.AssignedResponder.Name)
	}
	if len(live.StatusHistory) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(live.StatusHistory))
	}

	// Completion moves the alert to the archive
	status, resp = env.do(t, http.MethodPatch, "/api/v1/alerts/"+created.ID+"/status", user.RoleEMSPersonnel,
		map[string]string{"status": "completed", "note": "Transported to St. Luke's"})
	if status != http.StatusOK {
		t.Fatalf("Complete returned %d: %s", status, resp.Error.Message)
	}
	var result struct {
		Archived bool `json:"archived"`
	}
	_ = json.Unmarshal(resp.Data, &result)
	if !result.Archived {
		t.Error("Expected completion to archive the alert")
	}
	if ev := nextEvent(t, sub); ev.Type != realtime.EventAlertArchived {
		t.Errorf("Expected %s event, got %s", realtime.EventAlertArchived, ev.Type)
	}

	if status, _ := env.do(t, http.MethodGet, "/api/v1/alerts/"+created.ID, user.RoleEMSPersonnel, nil); status != http.StatusNotFound {
		t.Errorf("Archived alert still live: %d", status)
	}

	status, resp = env.do(t, http.MethodGet, "/api/v1/archive/"+created.ID, user.RoleEMSPersonnel, nil)
	if status != http.StatusOK {
		t.Fatalf("Archive get returned %d", status)
	}
	var archived struct {
		Status        string `json:"status"`
		StatusHistory []struct {
			Note string `json:"note"`
		} `json:"statusHistory"`
	}
	_ = json.Unmarshal(resp.Data, &archived)
	if archived.Status != "completed" || len(archived.StatusHistory) != 5 {
		t.Errorf("Unexpected archived alert: %+v", archived)
	}

	// Only admins may delete from the archive
	if status, _ := env.do(t, http.MethodDelete, "/api/v1/archive/"+created.ID, user.RoleEMSPersonnel, nil); status != http.StatusForbidden {
		t.Errorf("Medic archive delete returned %d", status)
	}
	if status, _ := env.do(t, http.MethodDelete, "/api/v1/archive/"+created.ID, user.RoleAdmin, nil); status != http.StatusNoContent {
		t.Errorf("Admin archive delete returned %d", status)
	}
}

func TestDispatch_ReporterSeesOwnAlerts(t *testing.T) {
	env := setupDispatchEnv(t)

	submit := map[string]interface{}{
		"address":      "Barangay Hall, Pasig",
		"incidentType": "trauma",
		"patientCount": 2,
	}
	if status, resp := env.do(t, http.MethodPost, "/api/v1/alerts", user.RoleCitizen, submit); status != http.StatusCreated {
		t.Fatalf("Signed-in submit returned %d: %s", status, resp.Error.Message)
	}

	// Anonymous reports must carry contact details
	if status, resp := env.do(t, http.MethodPost, "/api/v1/alerts", "", submit); status != http.StatusBadRequest {
		t.Errorf("Anonymous submit without contact returned %d (%s)", status, resp.Error.Code)
	}

	status, resp := env.do(t, http.MethodGet, "/api/v1/alerts/mine", user.RoleCitizen, nil)
	if status != http.StatusOK {
		t.Fatalf("Mine returned %d", status)
	}
	var page struct {
		Data []struct {
			ReporterContact struct {
				Name string `json:"name"`
			} `json:"reporterContact"`
		} `json:"data"`
		TotalItems int64 `json:"total_items"`
	}
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.TotalItems != 1 || page.Data[0].ReporterContact.Name != "Lito Santos" {
		t.Errorf("Unexpected mine page: %+v", page)
	}

	// The archive and presence views are staff only
	if status, _ := env.do(t, http.MethodGet, "/api/v1/archive", user.RoleCitizen, nil); status != http.StatusForbidden {
		t.Errorf("Citizen archive list returned %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/v1/presence", user.RoleCitizen, nil); status != http.StatusForbidden {
		t.Errorf("Citizen presence returned %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/api/v1/alerts", "", nil); status != http.StatusUnauthorized {
		t.Errorf("Anonymous list returned %d", status)
	}
}

func TestDispatch_HealthEndpoints(t *testing.T) {
	env := setupDispatchEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if status, _ := env.do(t, http.MethodGet, path, "", nil); status != http.StatusOK {
			t.Errorf("%s returned %d", path, status)
		}
	}
}
