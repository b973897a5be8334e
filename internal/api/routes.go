package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Get("/languages", s.handleLanguages)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/question", s.handleGetQuestion)
			r.Post("/answer", s.handleSubmitAnswer)
			r.Post("/hint", s.handleUseHint)
			r.Post("/end", s.handleEndSession)
			r.Post("/restart", s.handleRestartSession)
			r.Post("/restore-hearts", s.handleRestoreHearts)
		})
	})

	r.Get("/progress", s.handleGetProgress)
	r.Get("/achievements", s.handleListAchievements)
	r.Get("/achievements/recent", s.handleRecentAchievements)
	r.Get("/scores/{language}", s.handleTopScores)

	return r
}
