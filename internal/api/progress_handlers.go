package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/progression"
)

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	stats := s.Progress.Statistics()
	into, needed := progression.XPIntoLevel(stats.TotalXP)
	respondJSON(w, r, http.StatusOK, map[string]any{
		"statistics":    stats,
		"xp_into_level": into,
		"xp_for_next":   needed,
	})
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	all := s.Achievements.All()
	unlocked := 0
	for _, a := range all {
		if a.IsUnlocked {
			unlocked++
		}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"achievements": all,
		"unlocked":     unlocked,
		"total":        len(all),
	})
}

// handleRecentAchievements drains the newly-unlocked buffer: each unlock is
// reported here exactly once.
func (s *Server) handleRecentAchievements(w http.ResponseWriter, r *http.Request) {
	recent := s.Achievements.DrainRecent()
	if recent == nil {
		recent = []models.Achievement{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"achievements": recent,
	})
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	if language == "" {
		handleError(w, r, errors.NewValidationError("language", "must not be empty"))
		return
	}

	scores, err := s.Scores.Top(r.Context(), language)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if scores == nil {
		scores = []models.ScoreEntry{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"language": language,
		"scores":   scores,
	})
}
