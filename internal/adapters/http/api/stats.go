package api

import (
	"context"
	"net/http"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// StatsProvider defines the interface for service statistics and
// per-player aggregates.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
	UserStats(ctx context.Context, userID string) (model.UserStats, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

type userStatsResponse struct {
	GamesPlayed  int `json:"games_played"`
	PointsEarned int `json:"points_earned"`
}

// HandleStats handles GET /stats requests. With an identity header it
// adds the caller's lifetime aggregates to the payload.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	stats := h.provider.Stats(r.Context())
	if user := userID(r); user != "" {
		us, err := h.provider.UserStats(r.Context(), user)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		stats["me"] = userStatsResponse{
			GamesPlayed:  us.GamesPlayed,
			PointsEarned: us.PointsEarned,
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
