package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionAlreadyUsed  = errors.New("session already used")
	ErrPickNotFound        = errors.New("no creator pick for cycle")
	ErrCreatorNotFound     = errors.New("creator not found")
	ErrWinnerNotFound      = errors.New("cycle not settled")
	ErrEligibilityNotFound = errors.New("no pity eligibility for cycle")
	ErrNoEntries           = errors.New("no leaderboard entries for cycle")
)
