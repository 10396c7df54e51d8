// Package repository defines the point-ledger store interface and its
// SQLite implementation. Every multi-record mutation that must land
// atomically runs inside a single transaction here.
package repository

import (
	"context"
	"time"

	"github.com/willerob90/SubGames-Working/internal/domain/model"
)

// CommitParams carries one validated game result into the ledger.
type CommitParams struct {
	SessionID   string
	UserID      string
	CycleID     string
	GameType    string
	Difficulty  string
	Points      int
	ElapsedSecs float64
	ClientSecs  float64
	Now         time.Time
}

// CommitReceipt reports what a ledger commit changed.
type CommitReceipt struct {
	CreatorID    string
	Points       int
	NewSupporter bool
}

// RedeemReceipt reports the outcome of a pity redemption. Applied is
// false when a precondition failed; that is an expected steady state,
// not an error.
type RedeemReceipt struct {
	Applied   bool
	CreatorID string
	Points    int
	Reason    string
}

// Store provides transactional access to the cycle-scoped ledger.
type Store interface {
	// Sessions.
	CreateSession(ctx context.Context, s model.GameSession) error
	GetSession(ctx context.Context, id string) (model.GameSession, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Picks.
	UpsertPick(ctx context.Context, cycleID, userID, creatorID string, now time.Time) (model.CyclePick, error)
	GetPick(ctx context.Context, cycleID, userID string) (model.CyclePick, error)

	// Point ledger. CommitResult atomically flips the session to used,
	// increments the pick, upserts the leaderboard entry and user
	// stats, and appends the audit row. A session already used fails
	// with ErrSessionAlreadyUsed and leaves no other change behind.
	CommitResult(ctx context.Context, p CommitParams) (CommitReceipt, error)

	// Leaderboard and settlement.
	TopEntries(ctx context.Context, cycleID string, n int) ([]model.LeaderboardEntry, error)
	SettleCycle(ctx context.Context, cycleID string, cycleStart, cycleEnd, now time.Time, force bool) (model.CycleWinner, bool, error)
	GetWinner(ctx context.Context, cycleID string) (model.CycleWinner, error)

	// Pity points.
	IssuePityEligibility(ctx context.Context, cycleID, winnerID string) (int64, error)
	GetPityEligibility(ctx context.Context, cycleID, userID string) (model.PityEligibility, error)
	RedeemPity(ctx context.Context, settledCycleID, currentCycleID, userID string, now time.Time) (RedeemReceipt, error)

	// Creators and players.
	UpsertCreator(ctx context.Context, c model.Creator) error
	GetCreator(ctx context.Context, id string) (model.Creator, error)
	IncrementReferralClicks(ctx context.Context, creatorID string) (int, error)
	UserStats(ctx context.Context, userID string) (model.UserStats, error)
	RecentPlays(ctx context.Context, userID string, n int) ([]model.PlayRecord, error)

	Close() error
}
