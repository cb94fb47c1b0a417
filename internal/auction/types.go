package auction

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	InitialPoints  = 500
	DefaultSeconds = 10
	MinSeconds     = 5
	MaxSeconds     = 60

	// CaptainName value for a team nobody has claimed yet.
	UnassignedCaptain = "unassigned"

	maxLogs = 120
)

// TeamIDs is the fixed set of teams in every room.
var TeamIDs = []string{"A", "B", "C", "D"}

type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Tier      string   `json:"tier"`
	Positions []string `json:"positions"`
}

type Team struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CaptainName   string   `json:"captainName"`
	CaptainPlayer *Player  `json:"captainPlayer"`
	Points        int      `json:"points"`
	Players       []Player `json:"players"`
}

// Bid is one team's standing offer on the current lot. At is a unix
// millisecond timestamp used to break ties between equal amounts.
type Bid struct {
	Amount int   `json:"amount"`
	At     int64 `json:"at"`
}

type Round struct {
	Running     bool  `json:"running"`
	Paused      bool  `json:"paused"`
	EndsAt      int64 `json:"endsAt"`
	RemainingMs int64 `json:"remainingMs"`
	Started     bool  `json:"started"`
}

type ResolvedType string

const (
	ResolvedSold   ResolvedType = "sold"
	ResolvedUnsold ResolvedType = "unsold"
)

// Resolved records one finished lot so it can be undone.
type Resolved struct {
	Type   ResolvedType `json:"type"`
	Player Player       `json:"player"`
	TeamID string       `json:"teamId,omitempty"`
	Amount int          `json:"amount,omitempty"`
}

type Role string

const (
	RoleHost    Role = "host"
	RoleCaptain Role = "captain"
)

type Session struct {
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	TeamID   string `json:"teamId,omitempty"`
	JoinedAt int64  `json:"joinedAt"`
}

type Config struct {
	Seconds int `json:"seconds"`
}

// Room is the authoritative aggregate for one auction. It is owned by a
// single actor goroutine and serialized whole, sessions included, as the
// unit of persistence. Session tokens never leave via PublicState.
type Room struct {
	RoomCode        string             `json:"roomCode"`
	CreatedAt       int64              `json:"createdAt"`
	Initialized     bool               `json:"initialized"`
	Config          Config             `json:"config"`
	Teams           []*Team            `json:"teams"`
	Queue           []Player           `json:"queue"`
	Current         *Player            `json:"current"`
	Bids            map[string]Bid     `json:"bids"`
	Logs            []string           `json:"logs"`
	Sessions        map[string]Session `json:"sessions"`
	Round           Round              `json:"round"`
	ResolvedHistory []Resolved         `json:"resolvedHistory"`
}

// Env carries the injected sources of nondeterminism so transitions stay
// reproducible under test.
type Env struct {
	Now      time.Time
	Rand     *rand.Rand
	NewID    func() string
	NewToken func() string
}

func NewRoom(code string, now time.Time) *Room {
	teams := make([]*Team, 0, len(TeamIDs))
	for _, id := range TeamIDs {
		teams = append(teams, &Team{
			ID:          id,
			Name:        fmt.Sprintf("Team %s", id),
			CaptainName: UnassignedCaptain,
			Points:      InitialPoints,
			Players:     []Player{},
		})
	}
	return &Room{
		RoomCode:        code,
		CreatedAt:       now.UnixMilli(),
		Config:          Config{Seconds: DefaultSeconds},
		Teams:           teams,
		Queue:           []Player{},
		Bids:            map[string]Bid{},
		Logs:            []string{},
		Sessions:        map[string]Session{},
		ResolvedHistory: []Resolved{},
	}
}

func (r *Room) Team(id string) *Team {
	for _, t := range r.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *Room) session(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	s, ok := r.Sessions[token]
	return s, ok
}

// NameKey folds a display name into the key used to decide "same person":
// lowercase with runs of whitespace collapsed to single spaces.
func NameKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func (r *Room) pushLog(line string) {
	r.Logs = append([]string{line}, r.Logs...)
	if len(r.Logs) > maxLogs {
		r.Logs = r.Logs[:maxLogs]
	}
}

func sanitizePlayer(raw Player, newID func() string) Player {
	p := Player{
		ID:   strings.TrimSpace(raw.ID),
		Name: strings.TrimSpace(raw.Name),
		Tier: strings.TrimSpace(raw.Tier),
	}
	if p.ID == "" {
		p.ID = newID()
	}
	for _, pos := range raw.Positions {
		if pos != "" {
			p.Positions = append(p.Positions, pos)
		}
	}
	return p
}

func sanitizeCaptain(raw *Player, fallbackName string, newID func() string) *Player {
	var base Player
	if raw != nil {
		base = *raw
	}
	p := sanitizePlayer(base, newID)
	if p.Name == "" {
		p.Name = strings.TrimSpace(fallbackName)
	}
	return &p
}
