package models

// Mode selects which progression rules a session plays under.
// Quiz mode awards XP in one batch at game end with difficulty and perfect
// bonuses; flashcard mode awards small per-answer XP instead. The two paths
// are never combined within one session.
type Mode string

const (
	ModeQuiz      Mode = "quiz"
	ModeFlashcard Mode = "flashcard"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeQuiz || m == ModeFlashcard
}

// Phase is a state of the session state machine.
type Phase string

const (
	PhaseLoadingBatch    Phase = "loading_batch"
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseGameOver        Phase = "game_over"
)

// SessionSnapshot is a read-only view of a live session for the API layer.
type SessionSnapshot struct {
	ID               string     `json:"id"`
	Language         string     `json:"language"`
	Difficulty       Difficulty `json:"difficulty"`
	Mode             Mode       `json:"mode"`
	Phase            Phase      `json:"phase"`
	HeartsRemaining  int        `json:"hearts_remaining"`
	HeartsMax        int        `json:"hearts_max"`
	CorrectStreak    int        `json:"correct_streak"`
	ComboMultiplier  int        `json:"combo_multiplier"`
	CumulativeScore  int        `json:"cumulative_score"`
	QuestionsServed  int        `json:"questions_served"`
	CorrectAnswers   int        `json:"correct_answers"`
	WrongAnswers     int        `json:"wrong_answers"`
	HintsUsed        int        `json:"hints_used"`
	TimeRemainingSec *int       `json:"time_remaining_sec,omitempty"`
	IsOver           bool       `json:"is_over"`
}

// QuestionView is a question as presented to the player: choices are already
// shuffled and the correct answer is withheld.
type QuestionView struct {
	Prompt     string     `json:"prompt"`
	Choices    []string   `json:"choices"`
	BasePoints int        `json:"base_points"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category"`
}

// AnswerFeedback reports the outcome of one submitted answer.
type AnswerFeedback struct {
	Correct         bool   `json:"correct"`
	CorrectChoice   string `json:"correct_choice"`
	PointsAwarded   int    `json:"points_awarded"`
	ComboMultiplier int    `json:"combo_multiplier"`
	HeartsRemaining int    `json:"hearts_remaining"`
	Explanation     string `json:"explanation,omitempty"`
	GameOver        bool   `json:"game_over"`
}

// HintResult is the outcome of using a hint on the current question.
type HintResult struct {
	// EliminatedChoices lists wrong choices the player can discard, when the
	// question had at least two wrong choices to eliminate.
	EliminatedChoices []string `json:"eliminated_choices,omitempty"`
	// Text carries the authored hint or a first-letter reveal otherwise.
	Text string `json:"text,omitempty"`
}
