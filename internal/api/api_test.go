package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hackgrid/hackgrid/internal/app/engagement"
	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/health"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type firstPick struct{}

func (firstPick) Float64() float64 { return 0 }
func (firstPick) Intn(int) int     { return 0 }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := store.OpenSQLite(dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog, err := progression.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	opts := engagement.DefaultOptions()
	opts.Rand = func() progression.Rand { return firstPick{} }

	srv := NewServer(engagement.NewEngine(db, catalog, opts))
	srv.SetClock(func() time.Time { return testNow })
	srv.EnableMetrics()

	checker := health.NewChecker(db, dir, catalog)
	checker.RunOnce(context.Background())
	srv.SetHealthChecker(checker)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decode(t, w, &body)
	if body.Error.Message == "" {
		t.Error("error message should be populated")
	}
	return body.Error.Type
}

// ─── Health & Metrics ────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Status string          `json:"status"`
		Checks []health.Status `json:"checks"`
	}
	decode(t, w, &resp)
	if resp.Status != "ok" || len(resp.Checks) != 3 {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, "GET", "/api/level/100", "")

	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hackgrid_http_request_duration_seconds") {
		t.Error("metrics output should contain the request histogram")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/api/leaderboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

// ─── Level ───────────────────────────────────────────────────────────────────

func TestLevelEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, "GET", "/api/level/200", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Level domain.LevelInfo `json:"level"`
		Title string           `json:"title"`
	}
	decode(t, w, &resp)
	if resp.Level.Level != 2 || resp.Level.XPForNextLevel != 300 || resp.Level.ProgressPct != 50 {
		t.Errorf("level = %+v", resp.Level)
	}
	if resp.Title != "SCRIPT_KIDDIE" {
		t.Errorf("title = %q", resp.Title)
	}

	for _, bad := range []string{"-5", "abc"} {
		if w := do(t, srv, "GET", "/api/level/"+bad, ""); w.Code != http.StatusBadRequest {
			t.Errorf("/level/%s status = %d, want 400", bad, w.Code)
		}
	}
}

// ─── Users ───────────────────────────────────────────────────────────────────

func TestProfile_NotFound(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, "GET", "/api/users/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if typ := errorType(t, w); typ != "not_found" {
		t.Errorf("type = %q", typ)
	}
}

func TestLoginThenProfile(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/users/neo/login", "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	var login domain.LoginResult
	decode(t, w, &login)
	if !login.FirstToday || login.Streak != 1 || login.Grant == nil {
		t.Errorf("login = %+v", login)
	}

	w = do(t, srv, "GET", "/api/users/neo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("profile status = %d", w.Code)
	}
	var p domain.Profile
	decode(t, w, &p)
	if p.User.XP != 50 || p.User.Coins != 100 || p.User.StreakCurrent != 1 {
		t.Errorf("profile = %+v", p.User)
	}
}

func TestGrantXP(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/users/neo/xp", `{"action":"PUZZLE_HARD"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res domain.GrantResult
	decode(t, w, &res)
	if res.XPGained != 100 || !res.LeveledUp || res.NewLevel != 2 {
		t.Errorf("grant = %+v", res)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"action":"PUZZLE_HARD","multiplier":0}`, http.StatusBadRequest},
		{`{"action":"NOPE"}`, http.StatusBadRequest},
		{`{not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(t, srv, "POST", "/api/users/neo/xp", tt.body); w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.body, w.Code, tt.want)
		}
	}
}

func TestSolve_UnlocksAchievement(t *testing.T) {
	srv := newTestServer(t)
	body := `{"puzzle":"caesar_shift","category":"CRYPTOGRAPHY","difficulty":"MEDIUM","hints_used":1,"time_spent":300}`

	w := do(t, srv, "POST", "/api/users/neo/solves", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp solveResponse
	decode(t, w, &resp)
	if resp.Solve.Grant.XPGained != 50 {
		t.Errorf("solve xp = %d, want 50", resp.Solve.Grant.XPGained)
	}
	if len(resp.Unlocked) != 1 || resp.Unlocked[0].ID != "first_hack" {
		t.Errorf("unlocked = %+v", resp.Unlocked)
	}

	w = do(t, srv, "POST", "/api/users/neo/solves", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	w = do(t, srv, "GET", "/api/users/neo/ledger?limit=10", "")
	var ledger struct {
		Entries []domain.LedgerEntry `json:"entries"`
	}
	decode(t, w, &ledger)
	// solve, first_hack, level bonus
	if len(ledger.Entries) != 3 {
		t.Errorf("ledger entries = %d, want 3", len(ledger.Entries))
	}

	if w := do(t, srv, "GET", "/api/users/neo/ledger?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
}

// ─── Missions ────────────────────────────────────────────────────────────────

func TestMissions_ClaimFlow(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, "POST", "/api/users/neo/login", "")

	w := do(t, srv, "GET", "/api/users/neo/missions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Missions []domain.MissionStatus `json:"missions"`
	}
	decode(t, w, &resp)
	if len(resp.Missions) != 7 {
		t.Fatalf("missions = %d, want 7", len(resp.Missions))
	}

	ids := map[string]string{}
	for _, m := range resp.Missions {
		ids[m.Mission.ID] = m.Instance.ID
	}

	claim := func(instanceID string) *httptest.ResponseRecorder {
		return do(t, srv, "POST", "/api/users/neo/missions/"+instanceID+"/claim", "")
	}
	if w := claim(ids["daily_login"]); w.Code != http.StatusOK {
		t.Fatalf("claim status = %d: %s", w.Code, w.Body.String())
	}
	if w := claim(ids["daily_login"]); w.Code != http.StatusConflict {
		t.Errorf("second claim status = %d, want 409", w.Code)
	}
	if w := claim(ids["daily_solver_1"]); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("incomplete claim status = %d, want 422", w.Code)
	}
	if w := claim("no-such-mission"); w.Code != http.StatusNotFound {
		t.Errorf("unknown claim status = %d, want 404", w.Code)
	}

	srv.SetClock(func() time.Time { return testNow.AddDate(0, 0, 1) })
	if w := claim(ids["daily_solver_1"]); w.Code != http.StatusGone {
		t.Errorf("expired claim status = %d, want 410", w.Code)
	}
}

// ─── Achievements, Notifications, Leaderboard ────────────────────────────────

func TestAchievements(t *testing.T) {
	srv := newTestServer(t)

	if w := do(t, srv, "GET", "/api/users/ghost/achievements", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}

	do(t, srv, "POST", "/api/users/neo/login", "")
	w := do(t, srv, "POST", "/api/users/neo/achievements/check", "")
	var check struct {
		Unlocked []domain.AchievementDef `json:"unlocked"`
	}
	decode(t, w, &check)
	if check.Unlocked == nil || len(check.Unlocked) != 0 {
		t.Errorf("unlocked = %+v, want empty list", check.Unlocked)
	}

	w = do(t, srv, "GET", "/api/users/neo/achievements", "")
	var ov domain.AchievementOverview
	decode(t, w, &ov)
	if ov.Total != 16 || len(ov.Available) != 15 {
		t.Errorf("overview total=%d available=%d", ov.Total, len(ov.Available))
	}

	w = do(t, srv, "GET", "/api/catalog/achievements", "")
	var cat struct {
		Achievements []domain.AchievementDef `json:"achievements"`
	}
	decode(t, w, &cat)
	for _, a := range cat.Achievements {
		if a.Secret {
			t.Errorf("secret achievement %s listed in catalog", a.ID)
		}
	}
}

func TestNotifications(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, "POST", "/api/users/neo/xp", `{"action":"PUZZLE_HARD"}`)

	w := do(t, srv, "GET", "/api/users/neo/notifications", "")
	var resp struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	decode(t, w, &resp)
	if len(resp.Notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(resp.Notifications))
	}

	id := resp.Notifications[0].ID
	if w := do(t, srv, "POST", "/api/users/neo/notifications/"+id+"/shown", ""); w.Code != http.StatusOK {
		t.Errorf("shown status = %d", w.Code)
	}
	if w := do(t, srv, "POST", "/api/users/trinity/notifications/"+id+"/shown", ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign shown status = %d, want 404", w.Code)
	}
	w = do(t, srv, "GET", "/api/users/neo/notifications", "")
	decode(t, w, &resp)
	if len(resp.Notifications) != 0 {
		t.Errorf("pending after shown = %d", len(resp.Notifications))
	}
}

func TestLeaderboard(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, "POST", "/api/users/neo/xp", `{"action":"PUZZLE_LEGENDARY"}`)
	do(t, srv, "POST", "/api/users/trinity/xp", `{"action":"PUZZLE_EASY"}`)

	w := do(t, srv, "GET", "/api/leaderboard?limit=5", "")
	var resp struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	decode(t, w, &resp)
	if len(resp.Leaderboard) != 2 || resp.Leaderboard[0].UserID != "neo" || resp.Leaderboard[0].Rank != 1 {
		t.Errorf("leaderboard = %+v", resp.Leaderboard)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnknownAction, http.StatusBadRequest},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrMissionAlreadyClaimed, http.StatusConflict},
		{domain.ErrPuzzleAlreadySolved, http.StatusConflict},
		{domain.ErrMissionNotCompleted, http.StatusUnprocessableEntity},
		{domain.ErrMissionExpired, http.StatusGone},
		{http.ErrHandlerTimeout, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
