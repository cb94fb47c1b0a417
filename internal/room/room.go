package room

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/auction"
	"github.com/inin7674/lol-team/internal/store"
)

type Msg interface{ isRoomMsg() }

// Command carries one auction command into the actor. Reply receives the
// outcome; pass nil to fire and forget.
type Command struct {
	Cmd   auction.Command
	Reply chan Result
}

func (Command) isRoomMsg() {}

type Subscribe struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Subscribe) isRoomMsg() {}

type Unsubscribe struct{ ClientID string }

func (Unsubscribe) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// ResolveSession checks a caller token before a websocket upgrade.
type ResolveSession struct {
	Token string
	Reply chan SessionInfo
}

func (ResolveSession) isRoomMsg() {}

type SessionInfo struct {
	Session auction.Session
	OK      bool
}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// timerFired is the round deadline expiring. Deadline is the endsAt the
// timer was armed for; the transition drops it if the round moved on.
type timerFired struct{ deadline int64 }

func (timerFired) isRoomMsg() {}

type Result struct {
	State  auction.PublicState
	Token  string
	TeamID string
	Err    error
}

type Snapshot struct {
	Version int
	State   auction.PublicState
}

type View struct {
	Version     int
	NumClients  int
	Initialized bool
	State       auction.PublicState
}

// Deps are the injected collaborators. Zero values get production
// defaults; tests swap in a fake clock and a seeded rand.
type Deps struct {
	Store  store.Store
	Clock  clockwork.Clock
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Room is the per-room actor: one goroutine consuming the inbox, so
// every command (the timer's expiry included) runs with mutual exclusion
// over the aggregate.
type Room struct {
	code    string
	inbox   chan Msg
	state   *auction.Room
	version int
	clients map[string]chan Snapshot

	store store.Store
	clock clockwork.Clock
	rng   *rand.Rand
	log   *zap.Logger

	timer     clockwork.Timer
	timerStop context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts the actor. initial is a previously persisted aggregate to
// revive, or nil for a fresh room awaiting init. A revived running round
// re-arms its timer from the stored endsAt.
func New(parent context.Context, code string, initial *auction.Room, deps Deps) *Room {
	ctx, cancel := context.WithCancel(parent)

	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	state := initial
	if state == nil {
		state = auction.NewRoom(code, deps.Clock.Now())
	}

	r := &Room{
		code:    code,
		inbox:   make(chan Msg, 64),
		state:   state,
		clients: make(map[string]chan Snapshot),
		store:   deps.Store,
		clock:   deps.Clock,
		rng:     deps.Rand,
		log:     deps.Logger.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	if state.Round.Running {
		r.armTimer(state.Round.EndsAt)
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the actor has stopped; nothing drains the inbox
// after that, so senders should select on it.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) Code() string { return r.code }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Subscribe:
				// Register client + send current snapshot immediately.
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: r.version, State: r.state.PublicState()}

			case Unsubscribe:
				delete(r.clients, msg.ClientID)

			case Command:
				res := r.handle(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case timerFired:
				res := r.handle(auction.Command{
					Type:     auction.CmdFinishRound,
					Origin:   auction.OriginTimer,
					Deadline: msg.deadline,
				})
				if errors.Is(res.Err, auction.ErrStaleTimer) {
					r.log.Debug("dropped stale timer fire", zap.Int64("deadline", msg.deadline))
				} else if res.Err != nil {
					r.log.Warn("timer finish failed", zap.Error(res.Err))
				}

			case ResolveSession:
				s, ok := r.state.Sessions[msg.Token]
				if msg.Token == "" || !r.state.Initialized {
					ok = false
				}
				msg.Reply <- SessionInfo{Session: s, OK: ok}

			case GetState:
				msg.Reply <- View{
					Version:     r.version,
					NumClients:  len(r.clients),
					Initialized: r.state.Initialized,
					State:       r.state.PublicState(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// handle runs one command to completion: apply to a clone, persist,
// swap the clone in, run timer effects, then broadcast the committed
// state. A failed command (persist failures included) leaves the live
// aggregate untouched and arms no timer.
func (r *Room) handle(cmd auction.Command) Result {
	next := r.state.Clone()
	out, err := auction.Apply(next, cmd, auction.Env{
		Now:      r.clock.Now(),
		Rand:     r.rng,
		NewID:    uuid.NewString,
		NewToken: newToken,
	})
	if err != nil {
		return Result{Err: err}
	}

	if r.store != nil {
		ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
		saveErr := r.store.Save(ctx, next)
		cancel()
		if saveErr != nil {
			r.log.Error("failed to persist room", zap.Error(saveErr))
			return Result{Err: saveErr}
		}
	}
	r.state = next

	for _, effect := range out.Effects {
		switch e := effect.(type) {
		case auction.ArmTimer:
			r.armTimer(e.EndsAt)
		case auction.DisarmTimer:
			r.stopTimer()
		}
	}

	r.version++
	snap := Snapshot{Version: r.version, State: r.state.PublicState()}
	r.broadcast(snap)
	return Result{State: snap.State, Token: out.Token, TeamID: out.TeamID}
}

// armTimer supersedes any pending timer with a single one-shot wake-up
// for endsAt. The fire message carries endsAt so the transition can
// reject it once the round has moved on.
func (r *Room) armTimer(endsAt int64) {
	r.stopTimer()

	d := time.UnixMilli(endsAt).Sub(r.clock.Now())
	if d < 0 {
		d = 0
	}
	t := r.clock.NewTimer(d)
	ctx, cancel := context.WithCancel(r.ctx)
	r.timer = t
	r.timerStop = cancel

	go func() {
		select {
		case <-t.Chan():
			select {
			case r.inbox <- timerFired{deadline: endsAt}:
			case <-ctx.Done():
			}
		case <-ctx.Done():
			stopAndDrainTimer(t)
		}
	}()
}

func (r *Room) stopTimer() {
	if r.timerStop != nil {
		r.timerStop()
		r.timerStop = nil
	}
	if r.timer != nil {
		stopAndDrainTimer(r.timer)
		r.timer = nil
	}
}

func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

func (r *Room) shutdown() {
	r.stopTimer()
	for id, ch := range r.clients {
		close(ch) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
			r.log.Debug("dropped slow subscriber", zap.String("client", id))
		}
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
