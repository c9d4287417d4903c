package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
)

const maxBodyBytes = 1 << 16

// ─── Users (/api/users/{id}) ─────────────────────────────────────────────────

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Levels.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Streaks.RecordLogin(r.Context(), chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type grantXPRequest struct {
	Action     string   `json:"action"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

func (s *Server) handleGrantXP(w http.ResponseWriter, r *http.Request) {
	var req grantXPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	multiplier := 1.0
	if req.Multiplier != nil {
		multiplier = *req.Multiplier
	}
	res, err := s.engine.Rewards.GrantAction(r.Context(), chi.URLParam(r, "id"), req.Action, multiplier, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type solveRequest struct {
	Puzzle     string `json:"puzzle"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	HintsUsed  int    `json:"hints_used"`
	TimeSpent  int    `json:"time_spent"`
}

type solveResponse struct {
	Solve    domain.SolveResult      `json:"solve"`
	Unlocked []domain.AchievementDef `json:"achievements_unlocked"`
}

// handleSolve records a verified solve and runs the achievement check so
// the response carries any unlocks it caused.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID := chi.URLParam(r, "id")
	now := s.now()

	res, err := s.engine.Solves.RecordSolve(r.Context(), domain.PuzzleSolve{
		UserID:     userID,
		Puzzle:     req.Puzzle,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		HintsUsed:  req.HintsUsed,
		TimeSpent:  req.TimeSpent,
		SolvedAt:   now,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	unlocked, err := s.engine.Achievements.Check(r.Context(), userID, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if unlocked == nil {
		unlocked = []domain.AchievementDef{}
	}
	writeJSON(w, http.StatusCreated, solveResponse{Solve: res, Unlocked: unlocked})
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.engine.Missions.Active(r.Context(), chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"missions": missions})
}

func (s *Server) handleClaimMission(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Missions.Claim(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "mid"), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	ov, err := s.engine.Achievements.Overview(r.Context(), chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	unlocked, err := s.engine.Achievements.Check(r.Context(), chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if unlocked == nil {
		unlocked = []domain.AchievementDef{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unlocked": unlocked})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 50)
	if !ok {
		return
	}
	entries, err := s.engine.Rewards.Ledger(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 20)
	if !ok {
		return
	}
	pending, err := s.engine.Notifications.Pending(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": pending})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	err := s.engine.Notifications.MarkShown(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "nid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Global ──────────────────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, 10)
	if !ok {
		return
	}
	board, err := s.engine.Levels.Leaderboard(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if board == nil {
		board = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": board})
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	xp, err := strconv.ParseInt(chi.URLParam(r, "xp"), 10, 64)
	if err != nil || xp < 0 {
		writeError(w, http.StatusBadRequest, "xp must be a non-negative integer", "invalid_request")
		return
	}
	info := progression.Info(xp)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level": info,
		"title": progression.TitleForLevel(info.Level),
	})
}

func (s *Server) handleAchievementCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": s.engine.Achievements.Catalog(),
	})
}

// ─── Request helpers ─────────────────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err), "invalid_request")
		return false
	}
	return true
}

func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer", "invalid_request")
		return 0, false
	}
	return n, true
}
