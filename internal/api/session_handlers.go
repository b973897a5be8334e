package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/session"
)

type createSessionRequest struct {
	Language   string `json:"language"`
	Difficulty string `json:"difficulty"`
	Mode       string `json:"mode"`
	Username   string `json:"username,omitempty"`
}

type submitAnswerRequest struct {
	Choice string `json:"choice"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Language == "" {
		handleError(w, r, errors.NewValidationError("language", "must not be empty"))
		return
	}
	mode := models.Mode(req.Mode)
	if req.Mode == "" {
		mode = models.ModeQuiz
	}

	sess, err := s.Registry.Create(req.Language, models.Difficulty(req.Difficulty), mode, req.Username)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("session created: id=%s, language=%s, difficulty=%s, mode=%s",
		sess.ID(), req.Language, req.Difficulty, mode)

	question, err := sess.CurrentQuestion()
	if err != nil {
		// The first batch loads synchronously, so a missing question here is
		// a bug, not a race.
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]any{
		"session":  sess.Snapshot(),
		"question": question,
	})
}

// loadSession resolves the {id} URL parameter into a live session.
func (s *Server) loadSession(r *http.Request) (*session.Session, error) {
	return s.Registry.Get(chi.URLParam(r, "id"))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	question, err := sess.CurrentQuestion()
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, question)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	feedback, err := sess.SubmitAnswer(r.Context(), req.Choice)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, feedback)
}

func (s *Server) handleUseHint(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	hint, err := sess.UseHint()
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, hint)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := sess.End(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := sess.Restart(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleRestoreHearts(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := sess.RestoreHearts(); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Registry.Get(id); err != nil {
		handleError(w, r, err)
		return
	}
	s.Registry.Remove(id)
	logger.FromContext(r.Context()).Info("session removed: id=%s", id)
	w.WriteHeader(http.StatusNoContent)
}
