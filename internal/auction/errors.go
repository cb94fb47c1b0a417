package auction

import "errors"

var (
	ErrNotInitialized     = errors.New("room not initialized")
	ErrAlreadyInitialized = errors.New("room already initialized")

	ErrNotHost    = errors.New("host only")
	ErrNotCaptain = errors.New("captain only")

	ErrInvalidTeam          = errors.New("invalid teamId")
	ErrCaptainNameRequired  = errors.New("captainName is required")
	ErrTeamAlreadyCaptained = errors.New("team already joined by captain")

	ErrEmptyRoster = errors.New("players is empty")

	ErrRoundAlreadyRunning   = errors.New("round already running")
	ErrQueueEmpty            = errors.New("queue is empty")
	ErrNoActiveRound         = errors.New("no active round")
	ErrRoundActive           = errors.New("round is active or paused")
	ErrAuctionNotStarted     = errors.New("auction not started")
	ErrNoActiveOrPausedRound = errors.New("no active or paused round")

	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrBidTooLow          = errors.New("bid must exceed the current highest bid")

	ErrNothingToUndo = errors.New("no recent result to undo")

	ErrUnsupportedCommand = errors.New("unsupported command")

	// ErrStaleTimer marks a timer firing that no longer matches the live
	// round. Callers swallow it; it is a race, not a failure.
	ErrStaleTimer = errors.New("stale timer deadline")
)
