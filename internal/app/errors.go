package app

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrUnauthenticated means the caller supplied no user identity.
	ErrUnauthenticated = errors.New("user identity required")

	// ErrUnknownGame means the game type has no server-side rule.
	ErrUnknownGame = errors.New("unknown game type")

	// ErrPermissionDenied means the session belongs to another user.
	ErrPermissionDenied = errors.New("session belongs to another user")

	// ErrSessionExpired means the session outlived its play window.
	ErrSessionExpired = errors.New("session expired")

	// ErrTooFast means the elapsed time fell below the game's minimum.
	ErrTooFast = errors.New("completed faster than the game allows")

	// ErrTooSlow means the elapsed time exceeded the game's maximum.
	ErrTooSlow = errors.New("completed slower than the game allows")

	// ErrInvalidCreator means a creator record is missing required fields.
	ErrInvalidCreator = errors.New("creator id and name required")

	// ErrNotStarted means a lifecycle method ran before Start.
	ErrNotStarted = errors.New("service not started")
)
