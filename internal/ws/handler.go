package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/hub"
	"github.com/inin7674/lol-team/internal/room"
	"github.com/inin7674/lol-team/internal/types"
)

// Handler upgrades a subscriber connection for one room. The first frame
// is the current snapshot; afterwards one frame arrives per committed
// mutation. Client frames are ignored: writes go through the HTTP API.
func Handler(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.Lookup{Code: code, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		token := r.Header.Get("X-Room-Session")
		if token == "" {
			token = r.URL.Query().Get("session")
		}
		sessReply := make(chan room.SessionInfo, 1)
		rm.Inbox() <- room.ResolveSession{Token: token, Reply: sessReply}
		if info := <-sessReply; !info.OK {
			http.Error(w, "invalid session", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Snapshot, 8)
		clientID := randID(6)

		rm.Inbox() <- room.Subscribe{ClientID: clientID, Outbox: out}
		defer func() {
			// A stopped actor no longer drains its inbox.
			select {
			case rm.Inbox() <- room.Unsubscribe{ClientID: clientID}:
			case <-rm.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "state", Version: snap.Version, State: &snap.State}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
					cancel()
					logger.Debug("subscriber write failed",
						zap.String("room", code), zap.String("client", clientID), zap.Error(err))
					return
				}
				cancel()
			}
		}()

		// Reader loop: subscribers don't send commands, so this only
		// watches for the connection going away.
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
