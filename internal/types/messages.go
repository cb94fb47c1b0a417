package types

import "github.com/inin7674/lol-team/internal/auction"

// ServerMessage is one websocket frame. The only frame today is
// type "state": the full public snapshot after each committed mutation.
type ServerMessage struct {
	Type    string               `json:"type"` // "state" | "error"
	Version int                  `json:"version,omitempty"`
	State   *auction.PublicState `json:"state,omitempty"`
	Error   string               `json:"error,omitempty"`
}
