package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/ws"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", Healthz)
	r.Route("/api/auction/rooms", func(r chi.Router) {
		r.Post("/create", s.createRoom)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/state", s.state)
			r.Get("/ws", ws.Handler(s.hub, s.log))
			r.Post("/join", s.join)
			r.Post("/leave", s.leave)
			r.Post("/roster", s.addRoster)
			r.Post("/start", s.startRound)
			r.Post("/bid", s.bid)
			r.Post("/finish", s.finishRound)
			r.Post("/pause", s.pauseRound)
			r.Post("/restart", s.restartAuction)
			r.Post("/undo", s.undoRound)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
