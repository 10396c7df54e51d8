package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/willerob90/SubGames-Working/internal/app"
	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// SessionDependencies defines the operations behind session endpoints.
type SessionDependencies interface {
	StartSession(ctx context.Context, userID, gameType, difficulty string) (model.GameSession, error)
	SubmitResult(ctx context.Context, userID, sessionID string, clientSecs float64) (app.ResultReceipt, error)
}

// SessionHandler handles session issue and result submission.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type startSessionRequest struct {
	GameType   string `json:"game_type"`
	Difficulty string `json:"difficulty"`
}

// HandlePostSession handles POST /sessions requests.
func (h *SessionHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if strings.TrimSpace(req.GameType) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	session, err := h.deps.StartSession(r.Context(), user, req.GameType, req.Difficulty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

type submitResultRequest struct {
	SessionID       string  `json:"session_id"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type resultResponse struct {
	SessionID    string `json:"session_id"`
	CycleID      string `json:"cycle_id"`
	GameType     string `json:"game_type"`
	CreatorID    string `json:"creator_id"`
	Points       int    `json:"points"`
	NewSupporter bool   `json:"new_supporter"`
}

// HandlePostResult handles POST /results requests.
func (h *SessionHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	var req submitResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	receipt, err := h.deps.SubmitResult(r.Context(), user, req.SessionID, req.DurationSeconds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		SessionID:    receipt.SessionID,
		CycleID:      receipt.CycleID,
		GameType:     receipt.GameType,
		CreatorID:    receipt.CreatorID,
		Points:       receipt.Points,
		NewSupporter: receipt.NewSupporter,
	})
}
