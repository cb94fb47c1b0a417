package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/auction"
	"github.com/inin7674/lol-team/internal/hub"
	"github.com/inin7674/lol-team/internal/room"
)

type Server struct {
	hub *hub.Hub
	log *zap.Logger
}

func NewServer(h *hub.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{hub: h, log: logger}
}

type createRoomRequest struct {
	HostName string `json:"hostName"`
}

type joinRequest struct {
	TeamID        string          `json:"teamId"`
	CaptainName   string          `json:"captainName"`
	CaptainPlayer *auction.Player `json:"captainPlayer"`
}

type rosterRequest struct {
	Players []auction.Player `json:"players"`
}

type startRequest struct {
	Seconds int `json:"seconds"`
}

type bidRequest struct {
	Amount int `json:"amount"`
}

// stateEnvelope is the success body shared by every command endpoint.
// Op-specific fields are filled only where they apply; the session
// tokens here travel to the single caller, never into a broadcast.
type stateEnvelope struct {
	OK           bool                 `json:"ok"`
	RoomCode     string               `json:"roomCode,omitempty"`
	HostSession  string               `json:"hostSession,omitempty"`
	SessionToken string               `json:"sessionToken,omitempty"`
	MyTeamID     string               `json:"myTeamId,omitempty"`
	LeftTeamID   string               `json:"leftTeamId,omitempty"`
	State        *auction.PublicState `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) {
	// A missing or malformed body behaves like an empty one; each
	// command validates its own fields.
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(v)
}

func sessionToken(r *http.Request) string {
	if token := r.Header.Get("X-Room-Session"); token != "" {
		return token
	}
	return r.URL.Query().Get("session")
}

// roomFor resolves the {code} path parameter to a live actor, writing
// the failure response itself when the room can't be found.
func (s *Server) roomFor(w http.ResponseWriter, r *http.Request) *room.Room {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if !validCode(code) {
		writeJSON(w, http.StatusBadRequest, struct {
			Error string `json:"error"`
		}{Error: "invalid room code"})
		return nil
	}
	reply := make(chan *room.Room, 1)
	s.hub.Inbox() <- hub.Lookup{Code: code, Reply: reply}
	rm := <-reply
	if rm == nil {
		writeJSON(w, http.StatusNotFound, struct {
			Error string `json:"error"`
		}{Error: "room not found"})
		return nil
	}
	return rm
}

func exec(rm *room.Room, cmd auction.Command) room.Result {
	reply := make(chan room.Result, 1)
	rm.Inbox() <- room.Command{Cmd: cmd, Reply: reply}
	return <-reply
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	decodeBody(r, &req)

	code, err := allocateCode(s.hub)
	if err != nil {
		s.log.Error("room code allocation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, struct {
			Error string `json:"error"`
		}{Error: err.Error()})
		return
	}

	reply := make(chan *room.Room, 1)
	s.hub.Inbox() <- hub.Ensure{Code: code, Reply: reply}
	rm := <-reply

	res := exec(rm, auction.Command{Type: auction.CmdInit, HostName: req.HostName})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	s.log.Info("room created", zap.String("room", code))
	writeJSON(w, http.StatusCreated, stateEnvelope{
		OK:          true,
		RoomCode:    code,
		HostSession: res.Token,
		State:       &res.State,
	})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: reply}
	view := <-reply
	if !view.Initialized {
		writeJSON(w, http.StatusNotFound, struct {
			Error string `json:"error"`
		}{Error: auction.ErrNotInitialized.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{OK: true, State: &view.State})
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	var req joinRequest
	decodeBody(r, &req)
	res := exec(rm, auction.Command{
		Type:          auction.CmdJoinCaptain,
		TeamID:        req.TeamID,
		CaptainName:   req.CaptainName,
		CaptainPlayer: req.CaptainPlayer,
	})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{
		OK:           true,
		SessionToken: res.Token,
		MyTeamID:     res.TeamID,
		State:        &res.State,
	})
}

func (s *Server) leave(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	res := exec(rm, auction.Command{Type: auction.CmdLeaveCaptain, Token: sessionToken(r)})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{OK: true, LeftTeamID: res.TeamID, State: &res.State})
}

func (s *Server) addRoster(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	var req rosterRequest
	decodeBody(r, &req)
	s.respond(w, exec(rm, auction.Command{
		Type:    auction.CmdAddRoster,
		Token:   sessionToken(r),
		Players: req.Players,
	}))
}

func (s *Server) startRound(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	var req startRequest
	decodeBody(r, &req)
	s.respond(w, exec(rm, auction.Command{
		Type:    auction.CmdStartRound,
		Token:   sessionToken(r),
		Seconds: req.Seconds,
	}))
}

func (s *Server) bid(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	var req bidRequest
	decodeBody(r, &req)
	s.respond(w, exec(rm, auction.Command{
		Type:   auction.CmdPlaceBid,
		Token:  sessionToken(r),
		Amount: req.Amount,
	}))
}

func (s *Server) finishRound(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	s.respond(w, exec(rm, auction.Command{
		Type:   auction.CmdFinishRound,
		Token:  sessionToken(r),
		Origin: auction.OriginManual,
	}))
}

func (s *Server) pauseRound(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	s.respond(w, exec(rm, auction.Command{Type: auction.CmdTogglePause, Token: sessionToken(r)}))
}

func (s *Server) restartAuction(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	s.respond(w, exec(rm, auction.Command{Type: auction.CmdRestartAuction, Token: sessionToken(r)}))
}

func (s *Server) undoRound(w http.ResponseWriter, r *http.Request) {
	rm := s.roomFor(w, r)
	if rm == nil {
		return
	}
	s.respond(w, exec(rm, auction.Command{Type: auction.CmdUndoLast, Token: sessionToken(r)}))
}

func (s *Server) respond(w http.ResponseWriter, res room.Result) {
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, stateEnvelope{OK: true, State: &res.State})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
