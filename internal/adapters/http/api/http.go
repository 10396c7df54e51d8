// Package api declares HTTP contracts and route registration helpers.
//
// Identity is an opaque X-User-ID header supplied by the fronting
// gateway; handlers that act on behalf of a player reject requests
// without it. All responses are JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/internal/app"
	"github.com/willerob90/SubGames-Working/internal/domain/cycle"
	"github.com/willerob90/SubGames-Working/internal/domain/model"
	"github.com/willerob90/SubGames-Working/internal/domain/ratelimit"
)

// userHeader carries the opaque player identity.
const userHeader = "X-User-ID"

// Dependencies bundles every service operation the HTTP surface uses.
// Handlers each declare the slice they need; this is the union the
// server is constructed with.
type Dependencies interface {
	SessionDependencies
	PickDependencies
	LeaderboardDependencies
	PityDependencies
	CreatorDependencies
	AdminDependencies
	StatsProvider
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	sessionHandler     *SessionHandler
	pickHandler        *PickHandler
	leaderboardHandler *LeaderboardHandler
	pityHandler        *PityHandler
	creatorHandler     *CreatorHandler
	adminHandler       *AdminHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, maxLeaderboardLimit int) *Server {
	return &Server{
		sessionHandler:     NewSessionHandler(deps),
		pickHandler:        NewPickHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		pityHandler:        NewPityHandler(deps),
		creatorHandler:     NewCreatorHandler(deps),
		adminHandler:       NewAdminHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionHandler.HandlePostSession, "sessions"))
	mux.HandleFunc("/results", MetricsMiddleware(s.sessionHandler.HandlePostResult, "results"))
	mux.HandleFunc("/picks", MetricsMiddleware(s.pickHandler.HandlePicks, "picks"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/winner", MetricsMiddleware(s.leaderboardHandler.HandleGetWinner, "winner"))
	mux.HandleFunc("/history", MetricsMiddleware(s.leaderboardHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/pity", MetricsMiddleware(s.pityHandler.HandleGetStatus, "pity"))
	mux.HandleFunc("/pity/redeem", MetricsMiddleware(s.pityHandler.HandleRedeem, "pity_redeem"))
	mux.HandleFunc("/creators/", MetricsMiddleware(s.creatorHandler.HandleGetCreator, "creators"))
	mux.HandleFunc("/referral/", MetricsMiddleware(s.creatorHandler.HandleReferral, "referral"))

	mux.HandleFunc("/admin/settle", MetricsMiddleware(s.adminHandler.HandleSettle, "admin_settle"))
	mux.HandleFunc("/admin/pity", MetricsMiddleware(s.adminHandler.HandlePity, "admin_pity"))
	mux.HandleFunc("/admin/creators", MetricsMiddleware(s.adminHandler.HandlePostCreator, "admin_creators"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service and store errors to HTTP.
func writeDomainError(w http.ResponseWriter, err error) {
	var rl *ratelimit.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
		return
	}

	switch {
	case errors.Is(err, app.ErrUnauthenticated), errors.Is(err, ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err)
	case errors.Is(err, app.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrPickNotFound),
		errors.Is(err, repository.ErrCreatorNotFound),
		errors.Is(err, repository.ErrWinnerNotFound),
		errors.Is(err, repository.ErrEligibilityNotFound),
		errors.Is(err, repository.ErrNoEntries):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrSessionAlreadyUsed):
		writeError(w, http.StatusConflict, "already_used", err)
	case errors.Is(err, app.ErrSessionExpired):
		writeError(w, http.StatusGone, "session_expired", err)
	case errors.Is(err, app.ErrTooFast), errors.Is(err, app.ErrTooSlow):
		writeError(w, http.StatusUnprocessableEntity, "rejected_timing", err)
	case errors.Is(err, app.ErrUnknownGame),
		errors.Is(err, app.ErrInvalidCreator),
		errors.Is(err, cycle.ErrBadKey),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// userID extracts the opaque identity header, empty when absent.
func userID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ErrBadRequest
	}
	return nil
}

// sessionResponse mirrors the public shape of an issued session. The
// expected point value stays server-side.
type sessionResponse struct {
	SessionID string    `json:"session_id"`
	GameType  string    `json:"game_type"`
	StartTime time.Time `json:"start_time"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toSessionResponse(s model.GameSession) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		GameType:  s.GameType,
		StartTime: s.StartTime,
		ExpiresAt: s.ExpiresAt,
	}
}
