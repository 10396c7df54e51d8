package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// CreatorDependencies defines the operations behind public creator
// endpoints.
type CreatorDependencies interface {
	GetCreator(ctx context.Context, actorID, creatorID string) (model.Creator, error)
	TrackReferralClick(ctx context.Context, actorID, creatorID string) (int, error)
}

// CreatorHandler handles creator lookups and referral clicks.
type CreatorHandler struct {
	deps CreatorDependencies
}

// NewCreatorHandler creates a new creator handler.
func NewCreatorHandler(deps CreatorDependencies) *CreatorHandler {
	return &CreatorHandler{deps: deps}
}

type creatorResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PhotoURL       string `json:"photo_url,omitempty"`
	PromotionalURL string `json:"promotional_url,omitempty"`
	ReferralClicks int    `json:"referral_clicks"`
}

// HandleGetCreator handles GET /creators/{id} requests.
func (h *CreatorHandler) HandleGetCreator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/creators/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	c, err := h.deps.GetCreator(r.Context(), userID(r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creatorResponse{
		ID:             c.ID,
		Name:           c.Name,
		PhotoURL:       c.PhotoURL,
		PromotionalURL: c.PromotionalURL,
		ReferralClicks: c.ReferralClicks,
	})
}

type referralResponse struct {
	CreatorID string `json:"creator_id"`
	Clicks    int    `json:"clicks"`
}

// HandleReferral handles POST /referral/{creatorID} requests. Clicks
// are accepted anonymously; without an identity header the limiter
// keys on the caller's network origin instead.
func (h *CreatorHandler) HandleReferral(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		user = clientHost(r)
	}
	id := strings.TrimPrefix(r.URL.Path, "/referral/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	clicks, err := h.deps.TrackReferralClick(r.Context(), user, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, referralResponse{CreatorID: id, Clicks: clicks})
}

// clientHost identifies an anonymous caller by network origin.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
