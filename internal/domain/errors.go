package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Rule engine errors
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnknownMissionType   = errors.New("unknown mission type")
	ErrUnknownConditionType = errors.New("unknown achievement condition type")
	ErrUnknownAction        = errors.New("unknown reward action")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Mission errors
	ErrMissionNotFound       = errors.New("mission not found")
	ErrMissionAlreadyClaimed = errors.New("mission already claimed")
	ErrMissionNotCompleted   = errors.New("mission target not reached")
	ErrMissionExpired        = errors.New("mission has expired")

	// Activity errors
	ErrPuzzleAlreadySolved = errors.New("puzzle already solved")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
)
