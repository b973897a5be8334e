package models

import "time"

// LanguageStatistics accumulates lifetime results for one language.
type LanguageStatistics struct {
	TotalQuestions     int        `json:"total_questions"`
	CorrectAnswers     int        `json:"correct_answers"`
	WrongAnswers       int        `json:"wrong_answers"`
	TotalPoints        int        `json:"total_points"`
	HighestScore       int        `json:"highest_score"`
	AverageScore       float64    `json:"average_score"`
	TotalTimePlayedSec int        `json:"total_time_played_sec"`
	LastPlayedDate     *time.Time `json:"last_played_date,omitempty"`
}

// PlayerStatistics is the lifetime progression record. One instance exists,
// loaded at startup and saved after every mutation.
//
// Level is derived from TotalXP but persisted alongside it; it is reconciled
// (only ever raised) on every XP award.
type PlayerStatistics struct {
	TotalXP                int                           `json:"total_xp"`
	TotalCoins             int                           `json:"total_coins"`
	Level                  int                           `json:"level"`
	CurrentStreak          int                           `json:"current_streak"`
	LongestStreak          int                           `json:"longest_streak"`
	TotalGamesPlayed       int                           `json:"total_games_played"`
	TotalQuestionsAnswered int                           `json:"total_questions_answered"`
	TotalCorrectAnswers    int                           `json:"total_correct_answers"`
	TotalWrongAnswers      int                           `json:"total_wrong_answers"`
	PerfectGames           int                           `json:"perfect_games"`
	LanguageStats          map[string]LanguageStatistics `json:"language_stats"`
	DailyGoalStreak        int                           `json:"daily_goal_streak"`
	LastPlayedDate         *time.Time                    `json:"last_played_date,omitempty"`
}

// NewPlayerStatistics returns a fresh record, the fallback whenever the
// persisted aggregate is absent or unreadable.
func NewPlayerStatistics() *PlayerStatistics {
	return &PlayerStatistics{
		Level:         1,
		LanguageStats: make(map[string]LanguageStatistics),
	}
}

// Normalize repairs a record decoded from an older or partial persisted blob.
func (p *PlayerStatistics) Normalize() {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.LanguageStats == nil {
		p.LanguageStats = make(map[string]LanguageStatistics)
	}
}
