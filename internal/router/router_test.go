package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"focusmate/internal/db"
	"focusmate/internal/handler"
	"focusmate/internal/presence"
	"focusmate/internal/repository"
	"focusmate/internal/router"
	"focusmate/internal/service"
)

const (
	testCookieName = "token"
	testOrigin     = "http://localhost:5173"
)

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image"`
	} `json:"user"`
}

type statsResponse struct {
	TotalFocusTime    int `json:"totalFocusTime"`
	CompletedSessions int `json:"completedSessions"`
	TasksCompleted    int `json:"tasksCompleted"`
	CurrentStreak     int `json:"currentStreak"`
}

type taskResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type teamEnvelope struct {
	Team struct {
		ID             string `json:"id"`
		TotalFocusTime int    `json:"totalFocusTime"`
		TasksCompleted int    `json:"tasksCompleted"`
		Members        []struct {
			UserID string `json:"userId"`
			Role   string `json:"role"`
		} `json:"members"`
	} `json:"team"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testApp struct {
	handler http.Handler
	hub     *service.RoomHub
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	engine := setupTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "password123",
	}))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201 on register, got %d: %s", recorder.Code, recorder.Body.String())
	}
	cookie := findCookie(recorder.Result().Cookies(), testCookieName)
	if cookie == nil {
		t.Fatalf("expected %s cookie on register", testCookieName)
	}
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if cookie.Value == "" {
		t.Fatalf("session cookie is empty")
	}

	var resp authResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Message != "User created successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.User.Image == "" {
		t.Fatalf("expected default profile image")
	}

	// The cookie alone authenticates API calls.
	userReq := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	userReq.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie.Value})
	userRecorder := httptest.NewRecorder()
	engine.ServeHTTP(userRecorder, userReq)
	if userRecorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for cookie-authenticated request, got %d", userRecorder.Code)
	}
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	engine := setupTestEngine(t)

	status, body := requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", status)
	}
	var validation apiErrorEnvelope
	if err := json.Unmarshal(body, &validation); err != nil {
		t.Fatalf("unmarshal validation response: %v", err)
	}
	if _, ok := validation.Error.Details["password"]; !ok {
		t.Fatalf("expected password detail, got %v", validation.Error.Details)
	}

	registerUser(t, engine, "dup@example.com", "password123")
	status, body = requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Again",
		"email":    "DUP@example.com",
		"password": "password123",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", status, string(body))
	}
}

func TestLoginAndLogout(t *testing.T) {
	engine := setupTestEngine(t)
	registerUser(t, engine, "login@example.com", "password123")

	status, _ := requestJSON(t, engine, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "login@example.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if resp.Message != "Login successful" || resp.Token == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", recorder.Code)
	}
	cookie := findCookie(recorder.Result().Cookies(), testCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected logout to expire the session cookie, got %+v", cookie)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	engine := setupTestEngine(t)

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/user", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/user", "not-a-jwt", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", status)
	}
}

func TestGoogleLoginDisabledWithoutClientID(t *testing.T) {
	engine := setupTestEngine(t)

	status, body := requestJSON(t, engine, http.MethodPost, "/auth/google", "", map[string]string{
		"credential": "header.payload.signature",
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when Google sign-in is disabled, got %d: %s", status, string(body))
	}
}

func TestUserUpdate(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "profile@example.com", "password123")
	registerUser(t, engine, "taken@example.com", "password123")

	status, body := requestJSON(t, engine, http.MethodPut, "/api/user", user.Token, map[string]string{
		"name":  "Renamed",
		"email": "",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on profile update, got %d: %s", status, string(body))
	}
	var updated struct {
		User struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unmarshal update response: %v", err)
	}
	if updated.User.Name != "Renamed" || updated.User.Email != "profile@example.com" {
		t.Fatalf("blank fields must be ignored, got %+v", updated.User)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/user", user.Token, map[string]string{
		"email": "taken@example.com",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 when taking another user's email, got %d", status)
	}
}

func TestTaskCRUDAndIsolation(t *testing.T) {
	engine := setupTestEngine(t)
	owner := registerUser(t, engine, "tasks@example.com", "password123")
	other := registerUser(t, engine, "other@example.com", "password123")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/tasks", owner.Token, map[string]string{
		"title":       "Write report",
		"description": "Quarterly numbers",
		"dueDate":     time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on task create, got %d: %s", status, string(body))
	}
	var created taskResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if created.Status != "open" || created.Priority != "medium" {
		t.Fatalf("unexpected task defaults: %+v", created)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/tasks", owner.Token, map[string]string{
		"title":       "Bad",
		"description": "bad priority",
		"dueDate":     time.Now().UTC().Format(time.RFC3339),
		"priority":    "urgent",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid priority, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPut, "/api/tasks/"+created.ID, owner.Token, map[string]string{
		"status": "completed",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on task update, got %d: %s", status, string(body))
	}
	var updated taskResponse
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unmarshal updated task: %v", err)
	}
	if updated.Status != "completed" || updated.Title != "Write report" {
		t.Fatalf("unexpected updated task: %+v", updated)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/tasks/"+created.ID, other.Token, map[string]string{
		"status": "open",
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 when updating another user's task, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.ID, other.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 when deleting another user's task, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks", other.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on task list, got %d", status)
	}
	var otherTasks []taskResponse
	if err := json.Unmarshal(body, &otherTasks); err != nil {
		t.Fatalf("unmarshal task list: %v", err)
	}
	if len(otherTasks) != 0 {
		t.Fatalf("expected no tasks for other user, got %d", len(otherTasks))
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.ID, owner.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on task delete, got %d", status)
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks", owner.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on task list, got %d", status)
	}
	var ownerTasks []taskResponse
	if err := json.Unmarshal(body, &ownerTasks); err != nil {
		t.Fatalf("unmarshal task list: %v", err)
	}
	if len(ownerTasks) != 0 {
		t.Fatalf("expected task list empty after delete, got %d", len(ownerTasks))
	}
}

func TestStatsRecordAndHistory(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "stats@example.com", "password123")
	other := registerUser(t, engine, "stats-other@example.com", "password123")

	status, body := requestJSON(t, engine, http.MethodPut, "/api/stats/"+user.User.ID, user.Token, map[string]int{
		"focusTime":      25,
		"tasksCompleted": 1,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stats update, got %d: %s", status, string(body))
	}
	var stats statsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	want := statsResponse{TotalFocusTime: 25, CompletedSessions: 1, TasksCompleted: 1, CurrentStreak: 1}
	if stats != want {
		t.Fatalf("unexpected stats after first session: %+v", stats)
	}

	// A second session on the same day keeps the streak.
	status, body = requestJSON(t, engine, http.MethodPut, "/api/stats/me", user.Token, map[string]int{
		"focusTime": 25,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stats update via me, got %d: %s", status, string(body))
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.TotalFocusTime != 50 || stats.CompletedSessions != 2 || stats.CurrentStreak != 1 {
		t.Fatalf("unexpected stats after second session: %+v", stats)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/stats/"+user.User.ID, other.Token, map[string]int{
		"focusTime": 25,
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's stats, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPut, "/api/stats/me", user.Token, map[string]int{
		"focusTime": -5,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative focus time, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/stats/history?limit=1", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on history, got %d", status)
	}
	var history struct {
		Sessions []struct {
			FocusMinutes int `json:"focusMinutes"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Sessions) != 1 || history.Sessions[0].FocusMinutes != 25 {
		t.Fatalf("unexpected history: %+v", history.Sessions)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/stats", other.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stats get, got %d", status)
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats != (statsResponse{}) {
		t.Fatalf("expected zero stats for fresh user, got %+v", stats)
	}
}

func TestTeamMembershipPermissions(t *testing.T) {
	engine := setupTestEngine(t)
	owner := registerUser(t, engine, "owner@example.com", "password123")
	member := registerUser(t, engine, "member@example.com", "password123")
	outsider := registerUser(t, engine, "outsider@example.com", "password123")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/teams", owner.Token, map[string]string{
		"name":        "Deep Work",
		"description": "Morning focus crew",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on team create, got %d: %s", status, string(body))
	}
	var created teamEnvelope
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("unmarshal team: %v", err)
	}
	teamID := created.Team.ID
	if len(created.Team.Members) != 1 || created.Team.Members[0].Role != "owner" {
		t.Fatalf("expected owner membership, got %+v", created.Team.Members)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/teams/"+teamID, outsider.Token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member team read, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/teams/"+teamID, owner.Token, map[string]string{
		"userId": member.User.ID,
		"role":   "member",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on add member, got %d: %s", status, string(body))
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/teams/"+teamID, owner.Token, map[string]string{
		"userId": member.User.ID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 when adding an existing member, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/teams/"+teamID, member.Token, map[string]string{
		"userId": outsider.User.ID,
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 when a member adds someone, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/teams/"+teamID, member.Token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 when a member deletes the team, got %d", status)
	}

	// Completed sessions roll up into the team totals.
	status, _ = requestJSON(t, engine, http.MethodPut, "/api/stats/me", member.Token, map[string]int{
		"focusTime":      30,
		"tasksCompleted": 2,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stats update, got %d", status)
	}
	status, body = requestJSON(t, engine, http.MethodGet, "/api/teams/"+teamID, owner.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on team read, got %d", status)
	}
	var team struct {
		TotalFocusTime int `json:"totalFocusTime"`
		TasksCompleted int `json:"tasksCompleted"`
	}
	if err := json.Unmarshal(body, &team); err != nil {
		t.Fatalf("unmarshal team: %v", err)
	}
	if team.TotalFocusTime != 30 || team.TasksCompleted != 2 {
		t.Fatalf("unexpected team totals: %+v", team)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/teams/remove/"+teamID, member.Token, map[string]string{
		"userId": owner.User.ID,
	})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 when a member removes the owner, got %d", status)
	}

	// Outsiders get the same answer whether or not the target belongs to the team.
	for _, target := range []string{member.User.ID, "no-such-user"} {
		status, _ = requestJSON(t, engine, http.MethodDelete, "/api/teams/remove/"+teamID, outsider.Token, map[string]string{
			"userId": target,
		})
		if status != http.StatusForbidden {
			t.Fatalf("expected 403 when an outsider removes %q, got %d", target, status)
		}
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/teams/remove/"+teamID, owner.Token, map[string]string{
		"userId": "no-such-user",
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 when the owner removes a non-member, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodDelete, "/api/teams/remove/"+teamID, member.Token, map[string]string{
		"userId": member.User.ID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 when a member leaves, got %d: %s", status, string(body))
	}
	var afterLeave teamEnvelope
	if err := json.Unmarshal(body, &afterLeave); err != nil {
		t.Fatalf("unmarshal team: %v", err)
	}
	if len(afterLeave.Team.Members) != 1 {
		t.Fatalf("expected only the owner left, got %+v", afterLeave.Team.Members)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/teams/"+teamID, owner.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on team delete, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/teams/"+teamID, owner.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != testOrigin {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if recorder.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}

func TestRoomRelayForwardsToOtherPeers(t *testing.T) {
	app := setupTestApp(t)
	server := httptest.NewServer(app.handler)
	t.Cleanup(server.Close)

	alice := registerUser(t, app.handler, "alice@example.com", "password123")
	bob := registerUser(t, app.handler, "bob@example.com", "password123")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceCh, err := presence.NewWebSocketTransport(server.URL, testCookieName, alice.Token, zap.NewNop()).Open(ctx, "ROOM42")
	if err != nil {
		t.Fatalf("open alice channel: %v", err)
	}
	t.Cleanup(func() { _ = aliceCh.Close() })
	bobCh, err := presence.NewWebSocketTransport(server.URL, testCookieName, bob.Token, zap.NewNop()).Open(ctx, "ROOM42")
	if err != nil {
		t.Fatalf("open bob channel: %v", err)
	}
	t.Cleanup(func() { _ = bobCh.Close() })

	waitFor(t, func() bool { return app.hub.PeerCount("ROOM42") == 2 })

	aliceGot := make(chan presence.Event, 4)
	bobGot := make(chan presence.Event, 4)
	aliceCh.Subscribe(func(ev presence.Event) { aliceGot <- ev })
	bobCh.Subscribe(func(ev presence.Event) { bobGot <- ev })

	tick := presence.TimerTick{TimeLeft: 1499, IsRunning: true, Mode: presence.ModeFocus}
	if err := aliceCh.Publish(tick); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-bobGot:
		if ev != presence.Event(tick) {
			t.Fatalf("unexpected relayed event: %#v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("bob did not receive the tick")
	}

	select {
	case ev := <-aliceGot:
		t.Fatalf("sender received its own event: %#v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRoomRelayRequiresAuth(t *testing.T) {
	app := setupTestApp(t)
	server := httptest.NewServer(app.handler)
	t.Cleanup(server.Close)

	_, err := presence.NewWebSocketTransport(server.URL, testCookieName, "bogus", zap.NewNop()).
		Open(context.Background(), "ROOM42")
	if err == nil {
		t.Fatalf("expected dial to fail without a valid session")
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()
	return setupTestApp(t).handler
}

func setupTestApp(t *testing.T) testApp {
	t.Helper()

	database, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := db.RunMigrations(context.Background(), database, db.MigrationSource(""), zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(database)
	authService := service.NewAuthService(userRepo, nil, "test-secret", 24*time.Hour, "/images/default-avatar.png")
	hub := service.NewRoomHub(64*1024, []string{testOrigin}, logger)

	engine := router.New(authService, router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieSettings{
			Name: testCookieName,
			TTL:  24 * time.Hour,
		}),
		User: handler.NewUserHandler(service.NewUserService(userRepo)),
		Task: handler.NewTaskHandler(service.NewTaskService(repository.NewTaskRepository(database))),
		Stats: handler.NewStatsHandler(service.NewStatsService(
			userRepo,
			repository.NewSessionRepository(database),
			repository.NewTeamRepository(database),
			clockwork.NewRealClock(),
		)),
		Team: handler.NewTeamHandler(service.NewTeamService(repository.NewTeamRepository(database), userRepo)),
		Room: handler.NewRoomHandler(hub, logger),
	}, testCookieName, []string{testOrigin}, logger)

	return testApp{handler: engine, hub: hub}
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}

func jsonBody(t *testing.T, body interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(raw)
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
