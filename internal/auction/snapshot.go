package auction

// PublicState is the snapshot handed to clients: the room minus its
// sessions. Everything is deep-copied so subscribers never alias the
// actor-owned aggregate.
type PublicState struct {
	RoomCode        string         `json:"roomCode"`
	Config          Config         `json:"config"`
	Teams           []Team         `json:"teams"`
	Queue           []Player       `json:"queue"`
	Current         *Player        `json:"current"`
	Bids            map[string]Bid `json:"bids"`
	Logs            []string       `json:"logs"`
	ResolvedHistory []Resolved     `json:"resolvedHistory"`
	Round           Round          `json:"round"`
	CanUndo         bool           `json:"canUndo"`
}

func (r *Room) PublicState() PublicState {
	teams := make([]Team, 0, len(r.Teams))
	for _, t := range r.Teams {
		team := *t
		team.CaptainPlayer = copyPlayerPtr(t.CaptainPlayer)
		team.Players = copyPlayers(t.Players)
		teams = append(teams, team)
	}

	bids := make(map[string]Bid, len(r.Bids))
	for id, bid := range r.Bids {
		bids[id] = bid
	}

	history := make([]Resolved, 0, len(r.ResolvedHistory))
	for _, res := range r.ResolvedHistory {
		res.Player = copyPlayer(res.Player)
		history = append(history, res)
	}

	return PublicState{
		RoomCode:        r.RoomCode,
		Config:          r.Config,
		Teams:           teams,
		Queue:           copyPlayers(r.Queue),
		Current:         copyPlayerPtr(r.Current),
		Bids:            bids,
		Logs:            append([]string{}, r.Logs...),
		ResolvedHistory: history,
		Round:           r.Round,
		CanUndo:         r.Current != nil || len(r.ResolvedHistory) > 0,
	}
}

// Clone deep-copies the aggregate, sessions included. The actor applies
// each command to a clone and swaps it in only once the result is
// persisted, so a failed command never leaks a half-applied state.
func (r *Room) Clone() *Room {
	cp := *r

	cp.Teams = make([]*Team, 0, len(r.Teams))
	for _, t := range r.Teams {
		team := *t
		team.CaptainPlayer = copyPlayerPtr(t.CaptainPlayer)
		team.Players = copyPlayers(t.Players)
		cp.Teams = append(cp.Teams, &team)
	}

	cp.Queue = copyPlayers(r.Queue)
	cp.Current = copyPlayerPtr(r.Current)

	cp.Bids = make(map[string]Bid, len(r.Bids))
	for id, bid := range r.Bids {
		cp.Bids[id] = bid
	}

	cp.Logs = append([]string{}, r.Logs...)

	cp.Sessions = make(map[string]Session, len(r.Sessions))
	for token, s := range r.Sessions {
		cp.Sessions[token] = s
	}

	cp.ResolvedHistory = make([]Resolved, 0, len(r.ResolvedHistory))
	for _, res := range r.ResolvedHistory {
		res.Player = copyPlayer(res.Player)
		cp.ResolvedHistory = append(cp.ResolvedHistory, res)
	}

	return &cp
}

func copyPlayer(p Player) Player {
	p.Positions = append([]string{}, p.Positions...)
	return p
}

func copyPlayerPtr(p *Player) *Player {
	if p == nil {
		return nil
	}
	cp := copyPlayer(*p)
	return &cp
}

func copyPlayers(ps []Player) []Player {
	out := make([]Player, 0, len(ps))
	for _, p := range ps {
		out = append(out, copyPlayer(p))
	}
	return out
}
