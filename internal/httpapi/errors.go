package httpapi

import (
	"errors"
	"net/http"

	"github.com/inin7674/lol-team/internal/auction"
)

// statusFor maps auction errors onto HTTP statuses: 403 for the wrong
// role, 404 for a missing room, 409 for state conflicts, 400 for bad
// input.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrNotHost),
		errors.Is(err, auction.ErrNotCaptain):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrAlreadyInitialized),
		errors.Is(err, auction.ErrTeamAlreadyCaptained),
		errors.Is(err, auction.ErrRoundAlreadyRunning),
		errors.Is(err, auction.ErrNoActiveRound),
		errors.Is(err, auction.ErrRoundActive),
		errors.Is(err, auction.ErrAuctionNotStarted),
		errors.Is(err, auction.ErrNoActiveOrPausedRound),
		errors.Is(err, auction.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, auction.ErrInvalidTeam),
		errors.Is(err, auction.ErrCaptainNameRequired),
		errors.Is(err, auction.ErrEmptyRoster),
		errors.Is(err, auction.ErrQueueEmpty),
		errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, auction.ErrInsufficientPoints),
		errors.Is(err, auction.ErrBidTooLow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
