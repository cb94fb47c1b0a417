package auction

import (
	"fmt"
	"sort"
	"strings"
)

// Apply runs one command against the room. Commands validate fully before
// mutating anything, so a failed command leaves the room untouched. The
// returned effects (timer arm/disarm) are the caller's responsibility.
func Apply(r *Room, cmd Command, env Env) (Outcome, error) {
	if cmd.Type != CmdInit && !r.Initialized {
		return Outcome{}, ErrNotInitialized
	}

	switch cmd.Type {
	case CmdInit:
		return applyInit(r, cmd, env)
	case CmdJoinCaptain:
		return applyJoinCaptain(r, cmd, env)
	case CmdLeaveCaptain:
		return applyLeaveCaptain(r, cmd)
	case CmdAddRoster:
		return applyAddRoster(r, cmd, env)
	case CmdStartRound:
		return applyStartRound(r, cmd, env)
	case CmdPlaceBid:
		return applyPlaceBid(r, cmd, env)
	case CmdFinishRound:
		return applyFinishRound(r, cmd, env)
	case CmdTogglePause:
		return applyTogglePause(r, cmd, env)
	case CmdRestartAuction:
		return applyRestartAuction(r, cmd, env)
	case CmdUndoLast:
		return applyUndoLast(r, cmd)
	default:
		return Outcome{}, ErrUnsupportedCommand
	}
}

func requireHost(r *Room, token string) error {
	s, ok := r.session(token)
	if !ok || s.Role != RoleHost {
		return ErrNotHost
	}
	return nil
}

func requireCaptain(r *Room, token string) (Session, error) {
	s, ok := r.session(token)
	if !ok || s.Role != RoleCaptain {
		return Session{}, ErrNotCaptain
	}
	return s, nil
}

func applyInit(r *Room, cmd Command, env Env) (Outcome, error) {
	if r.Initialized {
		return Outcome{}, ErrAlreadyInitialized
	}
	hostName := strings.TrimSpace(cmd.HostName)
	if hostName == "" {
		hostName = "host"
	}
	token := env.NewToken()
	r.Initialized = true
	r.Sessions[token] = Session{
		Role:     RoleHost,
		Name:     hostName,
		JoinedAt: env.Now.UnixMilli(),
	}
	return Outcome{Token: token}, nil
}

func applyJoinCaptain(r *Room, cmd Command, env Env) (Outcome, error) {
	teamID := strings.ToUpper(strings.TrimSpace(cmd.TeamID))
	team := r.Team(teamID)
	if team == nil {
		return Outcome{}, ErrInvalidTeam
	}
	captainName := strings.TrimSpace(cmd.CaptainName)
	if captainName == "" {
		return Outcome{}, ErrCaptainNameRequired
	}
	if team.CaptainName != UnassignedCaptain {
		return Outcome{}, ErrTeamAlreadyCaptained
	}

	token := env.NewToken()
	r.Sessions[token] = Session{
		Role:     RoleCaptain,
		Name:     captainName,
		TeamID:   teamID,
		JoinedAt: env.Now.UnixMilli(),
	}
	team.CaptainName = captainName
	team.CaptainPlayer = sanitizeCaptain(cmd.CaptainPlayer, captainName, env.NewID)

	// Captains are not auctioned: drop any queued entry with the same name.
	key := NameKey(captainName)
	kept := r.Queue[:0]
	for _, p := range r.Queue {
		if NameKey(p.Name) != key {
			kept = append(kept, p)
		}
	}
	r.Queue = kept

	r.pushLog(fmt.Sprintf("%s captain joined - %s", team.Name, captainName))
	return Outcome{Token: token, TeamID: teamID}, nil
}

func applyLeaveCaptain(r *Room, cmd Command) (Outcome, error) {
	captain, err := requireCaptain(r, cmd.Token)
	if err != nil {
		return Outcome{}, err
	}
	team := r.Team(captain.TeamID)
	if team == nil {
		return Outcome{}, ErrInvalidTeam
	}
	if r.Round.Running || r.Round.Paused {
		return Outcome{}, ErrRoundActive
	}

	team.CaptainName = UnassignedCaptain
	team.CaptainPlayer = nil
	delete(r.Sessions, cmd.Token)
	r.pushLog(fmt.Sprintf("%s captain left - %s", team.Name, captain.Name))
	return Outcome{TeamID: team.ID}, nil
}

func applyAddRoster(r *Room, cmd Command, env Env) (Outcome, error) {
	if err := requireHost(r, cmd.Token); err != nil {
		return Outcome{}, err
	}
	if len(cmd.Players) == 0 {
		return Outcome{}, ErrEmptyRoster
	}

	assigned := map[string]bool{}
	for _, team := range r.Teams {
		if team.CaptainPlayer != nil {
			assigned[NameKey(team.CaptainPlayer.Name)] = true
		}
		for _, p := range team.Players {
			assigned[NameKey(p.Name)] = true
		}
	}
	queued := map[string]bool{}
	for _, p := range r.Queue {
		queued[NameKey(p.Name)] = true
	}

	for _, raw := range cmd.Players {
		p := sanitizePlayer(raw, env.NewID)
		if p.Name == "" {
			continue
		}
		key := NameKey(p.Name)
		if assigned[key] || queued[key] {
			continue
		}
		queued[key] = true
		r.Queue = append(r.Queue, p)
	}

	r.pushLog(fmt.Sprintf("roster added - %d players", len(cmd.Players)))
	return Outcome{}, nil
}

func applyStartRound(r *Room, cmd Command, env Env) (Outcome, error) {
	if err := requireHost(r, cmd.Token); err != nil {
		return Outcome{}, err
	}
	if r.Round.Running {
		return Outcome{}, ErrRoundAlreadyRunning
	}
	// A lot restaged by undo goes back to the head of the queue before
	// drawing, so it stays in play instead of being overwritten.
	if r.Current != nil {
		r.Queue = append([]Player{*r.Current}, r.Queue...)
		r.Current = nil
	}
	if len(r.Queue) == 0 {
		return Outcome{}, ErrQueueEmpty
	}

	seconds := cmd.Seconds
	if seconds <= 0 {
		seconds = r.Config.Seconds
	}
	if seconds < MinSeconds {
		seconds = MinSeconds
	}
	if seconds > MaxSeconds {
		seconds = MaxSeconds
	}
	r.Config.Seconds = seconds

	idx := env.Rand.Intn(len(r.Queue))
	current := r.Queue[idx]
	r.Queue = append(r.Queue[:idx], r.Queue[idx+1:]...)
	r.Current = &current
	r.Bids = map[string]Bid{}
	r.Round = Round{
		Running: true,
		EndsAt:  env.Now.UnixMilli() + int64(seconds)*1000,
		Started: true,
	}
	r.pushLog(fmt.Sprintf("%s up for auction (%ds)", current.Name, seconds))
	return Outcome{Effects: []Effect{ArmTimer{EndsAt: r.Round.EndsAt}}}, nil
}

func applyPlaceBid(r *Room, cmd Command, env Env) (Outcome, error) {
	captain, err := requireCaptain(r, cmd.Token)
	if err != nil {
		return Outcome{}, err
	}
	if !r.Round.Running || r.Current == nil {
		return Outcome{}, ErrNoActiveRound
	}
	if cmd.Amount <= 0 {
		return Outcome{}, ErrInvalidAmount
	}
	team := r.Team(captain.TeamID)
	if team == nil {
		return Outcome{}, ErrInvalidTeam
	}
	if cmd.Amount > team.Points {
		return Outcome{}, ErrInsufficientPoints
	}
	highest := 0
	for _, bid := range r.Bids {
		if bid.Amount > highest {
			highest = bid.Amount
		}
	}
	if cmd.Amount <= highest {
		return Outcome{}, ErrBidTooLow
	}

	r.Bids[team.ID] = Bid{Amount: cmd.Amount, At: env.Now.UnixMilli()}
	r.pushLog(fmt.Sprintf("%s %s - %dP", team.Name, team.CaptainName, cmd.Amount))
	return Outcome{}, nil
}

func applyFinishRound(r *Room, cmd Command, env Env) (Outcome, error) {
	if cmd.Origin == OriginTimer {
		// A firing that no longer matches the live round resolved some
		// earlier lot; drop it.
		if !r.Round.Running || r.Current == nil || cmd.Deadline != r.Round.EndsAt {
			return Outcome{}, ErrStaleTimer
		}
	} else {
		if err := requireHost(r, cmd.Token); err != nil {
			return Outcome{}, err
		}
		if !r.Round.Running || r.Current == nil {
			return Outcome{}, ErrNoActiveRound
		}
	}

	current := *r.Current
	if winner, ok := winningBid(r.Bids); ok {
		team := r.Team(winner.TeamID)
		r.ResolvedHistory = append(r.ResolvedHistory, Resolved{
			Type:   ResolvedSold,
			Player: current,
			TeamID: winner.TeamID,
			Amount: winner.Amount,
		})
		team.Points -= winner.Amount
		if team.Points < 0 {
			team.Points = 0
		}
		team.Players = append(team.Players, current)
		r.pushLog(fmt.Sprintf("%s %s won - %dP (%s)", team.Name, team.CaptainName, winner.Amount, current.Name))
	} else {
		r.ResolvedHistory = append(r.ResolvedHistory, Resolved{
			Type:   ResolvedUnsold,
			Player: current,
		})
		r.Queue = append(r.Queue, current)
		r.pushLog(fmt.Sprintf("%s unsold", current.Name))
	}

	r.Current = nil
	r.Bids = map[string]Bid{}
	r.Round = Round{Started: true}
	return Outcome{Effects: []Effect{DisarmTimer{}}}, nil
}

type rankedBid struct {
	TeamID string
	Amount int
	At     int64
}

// winningBid orders bids by amount descending, then earliest timestamp.
// Team id is the final tie-break so resolution is deterministic even for
// identical amount/timestamp pairs.
func winningBid(bids map[string]Bid) (rankedBid, bool) {
	if len(bids) == 0 {
		return rankedBid{}, false
	}
	ranked := make([]rankedBid, 0, len(bids))
	for teamID, bid := range bids {
		ranked = append(ranked, rankedBid{TeamID: teamID, Amount: bid.Amount, At: bid.At})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		if ranked[i].At != ranked[j].At {
			return ranked[i].At < ranked[j].At
		}
		return ranked[i].TeamID < ranked[j].TeamID
	})
	return ranked[0], true
}

func applyTogglePause(r *Room, cmd Command, env Env) (Outcome, error) {
	if err := requireHost(r, cmd.Token); err != nil {
		return Outcome{}, err
	}
	if !r.Round.Started {
		return Outcome{}, ErrAuctionNotStarted
	}

	if r.Round.Running && r.Current != nil {
		remaining := r.Round.EndsAt - env.Now.UnixMilli()
		if remaining < 0 {
			remaining = 0
		}
		r.Round.Running = false
		r.Round.Paused = true
		r.Round.RemainingMs = remaining
		r.Round.EndsAt = 0
		r.pushLog("auction paused")
		return Outcome{Effects: []Effect{DisarmTimer{}}}, nil
	}

	if r.Round.Paused && r.Current != nil {
		ms := r.Round.RemainingMs
		if ms == 0 {
			ms = int64(r.Config.Seconds) * 1000
		}
		if ms < 1000 {
			ms = 1000
		}
		r.Round.Running = true
		r.Round.Paused = false
		r.Round.EndsAt = env.Now.UnixMilli() + ms
		r.Round.RemainingMs = 0
		r.pushLog("auction resumed")
		return Outcome{Effects: []Effect{ArmTimer{EndsAt: r.Round.EndsAt}}}, nil
	}

	return Outcome{}, ErrNoActiveOrPausedRound
}

func applyRestartAuction(r *Room, cmd Command, env Env) (Outcome, error) {
	if err := requireHost(r, cmd.Token); err != nil {
		return Outcome{}, err
	}

	if r.Current != nil {
		r.Queue = append(r.Queue, *r.Current)
	}
	r.Current = nil
	r.Bids = map[string]Bid{}
	r.Round = Round{Started: true}
	r.ResolvedHistory = []Resolved{}
	env.Rand.Shuffle(len(r.Queue), func(i, j int) {
		r.Queue[i], r.Queue[j] = r.Queue[j], r.Queue[i]
	})
	r.pushLog("auction restarted - queue reshuffled")
	return Outcome{Effects: []Effect{DisarmTimer{}}}, nil
}

func applyUndoLast(r *Room, cmd Command) (Outcome, error) {
	if err := requireHost(r, cmd.Token); err != nil {
		return Outcome{}, err
	}
	if r.Round.Running || r.Round.Paused {
		return Outcome{}, ErrRoundActive
	}

	// A lot staged by a previous undo: push it back to the head of the
	// queue instead of unwinding history again.
	if r.Current != nil {
		r.Queue = append([]Player{*r.Current}, r.Queue...)
		r.Current = nil
		r.Bids = map[string]Bid{}
		r.Round = Round{Started: true}
		r.pushLog("staged lot returned to queue")
		return Outcome{}, nil
	}

	if len(r.ResolvedHistory) == 0 {
		return Outcome{}, ErrNothingToUndo
	}
	last := r.ResolvedHistory[len(r.ResolvedHistory)-1]
	r.ResolvedHistory = r.ResolvedHistory[:len(r.ResolvedHistory)-1]

	key := NameKey(last.Player.Name)
	if last.Type == ResolvedSold {
		if team := r.Team(last.TeamID); team != nil {
			for i := len(team.Players) - 1; i >= 0; i-- {
				if NameKey(team.Players[i].Name) == key {
					team.Players = append(team.Players[:i], team.Players[i+1:]...)
					break
				}
			}
			team.Points += last.Amount
		}
	} else {
		for i := len(r.Queue) - 1; i >= 0; i-- {
			if NameKey(r.Queue[i].Name) == key {
				r.Queue = append(r.Queue[:i], r.Queue[i+1:]...)
				break
			}
		}
	}

	restored := last.Player
	r.Current = &restored
	r.Bids = map[string]Bid{}
	r.Round = Round{Started: true}
	r.pushLog("last result undone")
	return Outcome{}, nil
}
