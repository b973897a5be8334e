package models

import "time"

// AchievementType identifies one of the fixed achievement kinds. The type
// name doubles as the achievement's stable ID.
type AchievementType string

const (
	AchievementFirstGame      AchievementType = "first_game"
	AchievementStreak5        AchievementType = "streak_5"
	AchievementStreak10       AchievementType = "streak_10"
	AchievementStreak20       AchievementType = "streak_20"
	AchievementPerfectGame    AchievementType = "perfect_game"
	AchievementCorrect50      AchievementType = "correct_50"
	AchievementCorrect100     AchievementType = "correct_100"
	AchievementXP100          AchievementType = "xp_100"
	AchievementXP500          AchievementType = "xp_500"
	AchievementXP1000         AchievementType = "xp_1000"
	AchievementPolyglot       AchievementType = "polyglot"
	AchievementHardMode10     AchievementType = "hard_mode_10"
	AchievementNightOwl       AchievementType = "night_owl"
	AchievementEarlyBird      AchievementType = "early_bird"
	AchievementWeekendWarrior AchievementType = "weekend_warrior"
)

// Achievement is one unlockable record. Unlocking is monotonic: once
// IsUnlocked is set it never reverts.
//
// CurrentProgress is persisted because the hard-mode and weekend counters are
// incremented across evaluations and cannot be recomputed from
// PlayerStatistics alone.
type Achievement struct {
	ID              string          `json:"id"`
	Type            AchievementType `json:"type"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	IconRef         string          `json:"icon_ref"`
	IsUnlocked      bool            `json:"is_unlocked"`
	UnlockedAt      *time.Time      `json:"unlocked_at,omitempty"`
	RequiredValue   int             `json:"required_value"`
	CurrentProgress int             `json:"current_progress"`
	XPReward        int             `json:"xp_reward"`
}
