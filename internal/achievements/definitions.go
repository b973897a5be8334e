package achievements

import "github.com/coderquest/coderquest/internal/models"

// Definition describes one achievement kind in the fixed catalog.
type Definition struct {
	Type          models.AchievementType
	Title         string
	Description   string
	IconRef       string
	RequiredValue int
	XPReward      int
}

// Definitions returns the fixed achievement catalog in display order.
// The set is seeded once at first run; unlock state lives on the persisted
// Achievement records, not here.
func Definitions() []Definition {
	return []Definition{
		{models.AchievementFirstGame, "First Steps", "Finish your first game", "icon_first_game", 1, 50},
		{models.AchievementStreak5, "On a Roll", "Answer 5 questions in a row correctly", "icon_streak_5", 5, 50},
		{models.AchievementStreak10, "Unstoppable", "Answer 10 questions in a row correctly", "icon_streak_10", 10, 100},
		{models.AchievementStreak20, "Legendary Streak", "Answer 20 questions in a row correctly", "icon_streak_20", 20, 200},
		{models.AchievementPerfectGame, "Flawless", "Finish a game with every first attempt correct", "icon_perfect", 1, 100},
		{models.AchievementCorrect50, "Half Century", "Answer 50 questions correctly", "icon_correct_50", 50, 100},
		{models.AchievementCorrect100, "Centurion", "Answer 100 questions correctly", "icon_correct_100", 100, 200},
		{models.AchievementXP100, "Getting Started", "Earn 100 XP", "icon_xp_100", 100, 50},
		{models.AchievementXP500, "Dedicated", "Earn 500 XP", "icon_xp_500", 500, 100},
		{models.AchievementXP1000, "Veteran", "Earn 1000 XP", "icon_xp_1000", 1000, 200},
		{models.AchievementPolyglot, "Polyglot", "Play 8 different languages", "icon_polyglot", 8, 300},
		{models.AchievementHardMode10, "Hardcore", "Finish 10 games on hard or expert", "icon_hard_mode", 10, 250},
		{models.AchievementNightOwl, "Night Owl", "Finish a game between midnight and 6 AM", "icon_night_owl", 1, 100},
		{models.AchievementEarlyBird, "Early Bird", "Finish a game between 4 AM and 6 AM", "icon_early_bird", 1, 100},
		{models.AchievementWeekendWarrior, "Weekend Warrior", "Finish 5 games on weekend days", "icon_weekend", 5, 150},
	}
}

// Seed merges the persisted achievement set with the catalog: existing
// records keep their unlock state and progress, definitions added in later
// releases are appended with defaults.
func Seed(existing []models.Achievement) []models.Achievement {
	byID := make(map[string]models.Achievement, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
	}

	out := make([]models.Achievement, 0, len(Definitions()))
	for _, def := range Definitions() {
		if a, ok := byID[string(def.Type)]; ok {
			// Refresh the descriptive fields; unlock state is authoritative.
			a.Title = def.Title
			a.Description = def.Description
			a.IconRef = def.IconRef
			a.RequiredValue = def.RequiredValue
			a.XPReward = def.XPReward
			out = append(out, a)
			continue
		}
		out = append(out, models.Achievement{
			ID:            string(def.Type),
			Type:          def.Type,
			Title:         def.Title,
			Description:   def.Description,
			IconRef:       def.IconRef,
			RequiredValue: def.RequiredValue,
			XPReward:      def.XPReward,
		})
	}
	return out
}
