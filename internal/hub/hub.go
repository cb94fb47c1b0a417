package hub

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/auction"
	"github.com/inin7674/lol-team/internal/room"
	"github.com/inin7674/lol-team/internal/store"
)

type HubMsg interface{ isHubMsg() }

// Ensure returns the actor for a code, creating one (revived from the
// store when a persisted aggregate exists) on first use.
type Ensure struct {
	Code  string
	Reply chan *room.Room
}

// Lookup returns the live or persisted actor for a code, or nil. It
// never creates a fresh room, so it doubles as the collision probe for
// code allocation.
type Lookup struct {
	Code  string
	Reply chan *room.Room
}

type Remove struct{ Code string }

type ShutdownHub struct{}

func (Ensure) isHubMsg()      {}
func (Lookup) isHubMsg()      {}
func (Remove) isHubMsg()      {}
func (ShutdownHub) isHubMsg() {}

type Deps struct {
	Store   store.Store
	Clock   clockwork.Clock
	Logger  *zap.Logger
	NewRand func() *rand.Rand // per-room randomness; nil gets time-seeded
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, deps Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Ensure:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				msg.Reply <- h.spawn(msg.Code, h.loadPersisted(msg.Code))

			case Lookup:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				persisted := h.loadPersisted(msg.Code)
				if persisted == nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.spawn(msg.Code, persisted)

			case Remove:
				if rm := h.rooms[msg.Code]; rm != nil {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Code)
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) spawn(code string, initial *auction.Room) *room.Room {
	var rng *rand.Rand
	if h.deps.NewRand != nil {
		rng = h.deps.NewRand()
	}
	rm := room.New(h.ctx, code, initial, room.Deps{
		Store:  h.deps.Store,
		Clock:  h.deps.Clock,
		Rand:   rng,
		Logger: h.deps.Logger,
	})
	h.rooms[code] = rm
	return rm
}

func (h *Hub) loadPersisted(code string) *auction.Room {
	if h.deps.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(h.ctx, 3*time.Second)
	defer cancel()
	persisted, err := h.deps.Store.Load(ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrRoomNotFound) {
			h.deps.Logger.Warn("failed to load persisted room",
				zap.String("room", code), zap.Error(err))
		}
		return nil
	}
	h.deps.Logger.Info("revived persisted room", zap.String("room", code))
	return persisted
}
