package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// PickDependencies defines the operations behind pick endpoints.
type PickDependencies interface {
	PickCreator(ctx context.Context, userID, creatorID string) (model.CyclePick, error)
	CurrentPick(ctx context.Context, userID string) (model.CyclePick, error)
}

// PickHandler handles creator pick reads and writes.
type PickHandler struct {
	deps PickDependencies
}

// NewPickHandler creates a new pick handler.
func NewPickHandler(deps PickDependencies) *PickHandler {
	return &PickHandler{deps: deps}
}

type pickRequest struct {
	CreatorID string `json:"creator_id"`
}

type pickResponse struct {
	CycleID     string    `json:"cycle_id"`
	CreatorID   string    `json:"creator_id"`
	Points      int       `json:"points_earned"`
	PickedAt    time.Time `json:"picked_at"`
	SwitchCount int       `json:"switch_count"`
}

func toPickResponse(p model.CyclePick) pickResponse {
	return pickResponse{
		CycleID:     p.CycleID,
		CreatorID:   p.CreatorID,
		Points:      p.PointsEarned,
		PickedAt:    p.PickedAt,
		SwitchCount: p.SwitchCount,
	}
}

// HandlePicks handles POST /picks and GET /picks requests.
func (h *PickHandler) HandlePicks(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req pickRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		if strings.TrimSpace(req.CreatorID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		pick, err := h.deps.PickCreator(r.Context(), user, req.CreatorID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPickResponse(pick))

	case http.MethodGet:
		pick, err := h.deps.CurrentPick(r.Context(), user)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPickResponse(pick))

	default:
		http.NotFound(w, r)
	}
}
