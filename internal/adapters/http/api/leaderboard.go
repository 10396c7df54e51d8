package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

const defaultHistoryLimit = 20

// LeaderboardDependencies defines the read operations behind the public
// scoreboard endpoints.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, cycleID string, n int) ([]model.LeaderboardEntry, string, error)
	Winner(ctx context.Context, cycleID string) (model.CycleWinner, error)
	History(ctx context.Context, userID string, n int) ([]model.PlayRecord, error)
}

// LeaderboardHandler handles leaderboard, winner, and history reads.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

type leaderboardEntry struct {
	CreatorID      string    `json:"creator_id"`
	TotalPoints    int       `json:"total_points"`
	SupporterCount int       `json:"supporter_count"`
	FirstToReachAt time.Time `json:"first_to_reach_at"`
}

type leaderboardResponse struct {
	CycleID string             `json:"cycle_id"`
	Entries []leaderboardEntry `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N&cycle=KEY requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}

	entries, key, err := h.deps.Leaderboard(r.Context(), r.URL.Query().Get("cycle"), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := leaderboardResponse{CycleID: key, Entries: make([]leaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, leaderboardEntry{
			CreatorID:      e.CreatorID,
			TotalPoints:    e.TotalPoints,
			SupporterCount: e.SupporterCount,
			FirstToReachAt: e.FirstToReachAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type winnerResponse struct {
	CycleID        string    `json:"cycle_id"`
	WinnerID       string    `json:"winner_id"`
	WinnerName     string    `json:"winner_name"`
	WinnerPhotoURL string    `json:"winner_photo_url,omitempty"`
	PromotionalURL string    `json:"promotional_url,omitempty"`
	FinalScore     int       `json:"final_score"`
	SupporterCount int       `json:"supporter_count"`
	AnnouncedAt    time.Time `json:"announced_at"`
	CycleStart     time.Time `json:"cycle_start"`
	CycleEnd       time.Time `json:"cycle_end"`
}

// HandleGetWinner handles GET /winner?cycle=KEY requests. Without a
// cycle it serves the most recently settled one.
func (h *LeaderboardHandler) HandleGetWinner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	winner, err := h.deps.Winner(r.Context(), r.URL.Query().Get("cycle"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winnerResponse{
		CycleID:        winner.CycleID,
		WinnerID:       winner.WinnerID,
		WinnerName:     winner.WinnerName,
		WinnerPhotoURL: winner.WinnerPhotoURL,
		PromotionalURL: winner.PromotionalURL,
		FinalScore:     winner.FinalScore,
		SupporterCount: winner.SupporterCount,
		AnnouncedAt:    winner.AnnouncedAt,
		CycleStart:     winner.CycleStart,
		CycleEnd:       winner.CycleEnd,
	})
}

type playResponse struct {
	CycleID     string    `json:"cycle_id"`
	GameType    string    `json:"game_type"`
	Difficulty  string    `json:"difficulty,omitempty"`
	CreatorID   string    `json:"creator_id"`
	Points      int       `json:"points"`
	ElapsedSecs float64   `json:"elapsed_seconds"`
	PlayedAt    time.Time `json:"played_at"`
}

// HandleGetHistory handles GET /history?limit=N requests for the
// calling player's recent plays.
func (h *LeaderboardHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user := userID(r)
	if user == "" {
		writeDomainError(w, ErrUnauthenticated)
		return
	}

	n := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 || v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = v
	}

	plays, err := h.deps.History(r.Context(), user, n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]playResponse, 0, len(plays))
	for _, p := range plays {
		out = append(out, playResponse{
			CycleID:     p.CycleID,
			GameType:    p.GameType,
			Difficulty:  p.Difficulty,
			CreatorID:   p.CreatorID,
			Points:      p.Points,
			ElapsedSecs: p.ElapsedSecs,
			PlayedAt:    p.PlayedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
