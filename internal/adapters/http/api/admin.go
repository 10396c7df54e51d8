package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// AdminDependencies defines the operations behind operator endpoints.
// Admin routes carry no player identity; the fronting gateway restricts
// who reaches them.
type AdminDependencies interface {
	SettleCycle(ctx context.Context, cycleID string, force bool) (model.CycleWinner, bool, error)
	AwardPityPoints(ctx context.Context, cycleID string) (int64, error)
	RegisterCreator(ctx context.Context, c model.Creator) error
}

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type settleRequest struct {
	CycleID string `json:"cycle_id"`
	Force   bool   `json:"force"`
}

type settleResponse struct {
	CycleID     string    `json:"cycle_id"`
	WinnerID    string    `json:"winner_id"`
	FinalScore  int       `json:"final_score"`
	AnnouncedAt time.Time `json:"announced_at"`
	Created     bool      `json:"created"`
}

// HandleSettle handles POST /admin/settle requests. An empty cycle_id
// settles the most recently closed cycle.
func (h *AdminHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req settleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	winner, created, err := h.deps.SettleCycle(r.Context(), req.CycleID, req.Force)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settleResponse{
		CycleID:     winner.CycleID,
		WinnerID:    winner.WinnerID,
		FinalScore:  winner.FinalScore,
		AnnouncedAt: winner.AnnouncedAt,
		Created:     created,
	})
}

type adminPityRequest struct {
	CycleID string `json:"cycle_id"`
}

type adminPityResponse struct {
	CycleID string `json:"cycle_id"`
	Issued  int64  `json:"issued"`
}

// HandlePity handles POST /admin/pity requests, replaying the pity
// fan-out for a settled cycle.
func (h *AdminHandler) HandlePity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req adminPityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	issued, err := h.deps.AwardPityPoints(r.Context(), req.CycleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminPityResponse{CycleID: req.CycleID, Issued: issued})
}

type creatorRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PhotoURL       string `json:"photo_url"`
	PromotionalURL string `json:"promotional_url"`
}

// HandlePostCreator handles POST /admin/creators requests.
func (h *AdminHandler) HandlePostCreator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req creatorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	err := h.deps.RegisterCreator(r.Context(), model.Creator{
		ID:             req.ID,
		Name:           req.Name,
		PhotoURL:       req.PhotoURL,
		PromotionalURL: req.PromotionalURL,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creatorResponse{
		ID:             req.ID,
		Name:           req.Name,
		PhotoURL:       req.PhotoURL,
		PromotionalURL: req.PromotionalURL,
	})
}
