package api

import (
	"context"
	"net/http"

	"github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// PityDependencies defines the operations behind pity endpoints.
type PityDependencies interface {
	PityStatus(ctx context.Context, userID, cycleID string) (model.PityEligibility, error)
	RedeemPity(ctx context.Context, userID, settledCycleID string) (repository.RedeemReceipt, error)
}

// PityHandler handles pity eligibility reads and redemptions.
type PityHandler struct {
	deps PityDependencies
}

// NewPityHandler creates a new pity handler.
func NewPityHandler(deps PityDependencies) *PityHandler {
	return &PityHandler{deps: deps}
}

type pityStatusResponse struct {
	CycleID  string `json:"cycle_id"`
	Eligible bool   `json:"eligible"`
	Claimed  bool   `json:"claimed"`
	WinnerID string `json:"winner_id"`
}

// HandleGetStatus handles GET /pity?cycle=KEY requests.
func (h *PityHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	elig, err := h.deps.PityStatus(r.Context(), user, r.URL.Query().Get("cycle"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pityStatusResponse{
		CycleID:  elig.CycleID,
		Eligible: elig.Eligible,
		Claimed:  elig.ClickedWinnerLink,
		WinnerID: elig.WinnerID,
	})
}

type redeemRequest struct {
	CycleID string `json:"cycle_id"`
}

type redeemResponse struct {
	Applied   bool   `json:"applied"`
	CreatorID string `json:"creator_id,omitempty"`
	Points    int    `json:"points,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// HandleRedeem handles POST /pity/redeem requests. A redemption whose
// precondition failed returns 200 with applied=false; the client shows
// the reason instead of retrying.
func (h *PityHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	receipt, err := h.deps.RedeemPity(r.Context(), user, req.CycleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{
		Applied:   receipt.Applied,
		CreatorID: receipt.CreatorID,
		Points:    receipt.Points,
		Reason:    receipt.Reason,
	})
}
