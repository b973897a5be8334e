package models

// Difficulty buckets a question or a session by how punishing it is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Valid reports whether the difficulty is one of the known values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// DifficultyForPoints derives a difficulty bucket from a question's base points:
// 1-3 easy, 4-6 medium, 7-9 hard, everything above expert.
func DifficultyForPoints(points int) Difficulty {
	switch {
	case points <= 3:
		return DifficultyEasy
	case points <= 6:
		return DifficultyMedium
	case points <= 9:
		return DifficultyHard
	default:
		return DifficultyExpert
	}
}

// PointsMultiplier scales a question's base points by session difficulty.
func (d Difficulty) PointsMultiplier() float64 {
	switch d {
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2.0
	case DifficultyExpert:
		return 2.5
	default:
		return 1.0
	}
}

// TimeLimitSeconds returns the per-question countdown for quiz mode,
// or 0 when the difficulty imposes no time limit.
func (d Difficulty) TimeLimitSeconds() int {
	switch d {
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 15
	case DifficultyExpert:
		return 10
	default:
		return 0
	}
}

// QuestionItem is one multiple-choice question. Immutable once loaded;
// questions live only for the duration of a session and are never persisted.
type QuestionItem struct {
	Prompt        string     `json:"prompt"`
	Choices       []string   `json:"choices"`
	CorrectChoice string     `json:"correct_choice"`
	BasePoints    int        `json:"base_points"`
	Difficulty    Difficulty `json:"difficulty"`
	Hint          string     `json:"hint,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
	Category      string     `json:"category"`
}
