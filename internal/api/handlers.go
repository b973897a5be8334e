package api

import (
	"encoding/json"
	"net/http"

	"github.com/coderquest/coderquest/internal/achievements"
	"github.com/coderquest/coderquest/internal/catalog"
	"github.com/coderquest/coderquest/internal/db"
	"github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/progression"
	"github.com/coderquest/coderquest/internal/repository"
	"github.com/coderquest/coderquest/internal/session"
)

type Server struct {
	DB           *db.DB
	Catalog      *catalog.Catalog
	Registry     *session.Registry
	Progress     *progression.Model
	Achievements *achievements.Engine
	Scores       repository.ScoreRepository
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("invalid request body: " + err.Error())
	}
	return nil
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady reports readiness: the database must answer a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

// handleLanguages lists the languages with a usable question catalog.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"languages": s.Catalog.Languages(),
	})
}
