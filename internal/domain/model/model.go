// Package model contains domain records passed between layers.
package model

import "time"

// GameSession is one anti-cheat-gated play attempt. Sessions are
// single-use: Used flips false to true exactly once.
type GameSession struct {
	ID            string
	UserID        string
	GameType      string
	Difficulty    string
	StartTime     time.Time
	ExpiresAt     time.Time
	Used          bool
	ExpectedValue int
}

// CyclePick is a player's creator choice for one cycle, one per
// (cycle, user). CreatorID may change (switching support) but
// PointsEarned only increases within the cycle.
type CyclePick struct {
	CycleID        string
	UserID         string
	CreatorID      string
	PointsEarned   int
	PickedAt       time.Time
	LastSwitchedAt time.Time
	SwitchCount    int
}

// LeaderboardEntry aggregates one creator's standing in one cycle.
// FirstToReachAt records the most recent score change and breaks ties
// at settlement: the creator who reached the top score earliest wins.
type LeaderboardEntry struct {
	CycleID        string
	CreatorID      string
	TotalPoints    int
	SupporterCount int
	FirstToReachAt time.Time
	LastUpdated    time.Time
}

// CycleWinner is the settled result of one cycle, written at most once
// unless settlement is forced.
type CycleWinner struct {
	CycleID        string
	WinnerID       string
	WinnerName     string
	WinnerPhotoURL string
	PromotionalURL string
	FinalScore     int
	SupporterCount int
	FirstToReachAt time.Time
	AnnouncedAt    time.Time
	CycleStart     time.Time
	CycleEnd       time.Time
}

// PityEligibility marks a supporter of a non-winning creator as able to
// claim one bonus point. ClickedWinnerLink flips false to true exactly
// once; the bonus is spent at that moment.
type PityEligibility struct {
	CycleID           string
	UserID            string
	Eligible          bool
	ClickedWinnerLink bool
	WinnerID          string
	TheirCreatorID    string
}

// StartingBonus audits pity points funneled into a new cycle for one
// creator. Informational only; the leaderboard entry is authoritative.
type StartingBonus struct {
	CycleID       string
	CreatorID     string
	PityPoints    int
	FromSupporter []string
}

// Creator is the registry record behind winner announcements.
type Creator struct {
	ID             string
	Name           string
	PhotoURL       string
	PromotionalURL string
	ReferralClicks int
}

// UserStats aggregates a player's lifetime activity.
type UserStats struct {
	UserID       string
	GamesPlayed  int
	PointsEarned int
}

// PlayRecord is one row of the append-only play audit log. ClientSecs
// preserves the client-reported duration for anti-cheat review; the
// ledger scores only against ElapsedSecs measured server-side.
type PlayRecord struct {
	UserID      string
	CycleID     string
	GameType    string
	Difficulty  string
	CreatorID   string
	Points      int
	ElapsedSecs float64
	ClientSecs  float64
	PlayedAt    time.Time
}

// WinnerEvent is published by cycle settlement and consumed by the
// pity issuer.
type WinnerEvent struct {
	CycleID     string
	WinnerID    string
	AnnouncedAt time.Time
}
