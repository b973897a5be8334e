package session

import (
	apperrors "github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/models"
)

// UseHint spends a hint on the current question, at most once per question.
// Hints never touch hearts or score. Policy: eliminate two wrong choices
// when at least two exist, else fall back to the authored hint string, else
// reveal the first character of the answer.
func (s *Session) UseHint() (*models.HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != models.PhaseAwaitingAnswer {
		return nil, apperrors.NewValidationError("state", "no question is currently awaiting an answer")
	}
	if s.hintUsedThisQ == s.cursor {
		return nil, apperrors.NewValidationError("hint", "hint already used for this question")
	}

	s.hintUsedThisQ = s.cursor
	s.hintsUsed++

	q := s.activeQueue[s.cursor]
	var wrong []string
	for _, c := range s.shuffledChoices[s.cursor] {
		if c != q.CorrectChoice {
			wrong = append(wrong, c)
		}
	}

	if len(wrong) >= 2 {
		s.deps.Rand.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
		return &models.HintResult{EliminatedChoices: wrong[:2]}, nil
	}
	if q.Hint != "" {
		return &models.HintResult{Text: q.Hint}, nil
	}
	return &models.HintResult{Text: "Starts with: " + firstChar(q.CorrectChoice)}, nil
}

func firstChar(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
