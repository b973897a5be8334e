package achievements

import (
	"context"
	"sync"
	"time"

	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/repository"
)

// EvalContext carries the per-event inputs an evaluation needs beyond the
// cumulative statistics.
type EvalContext struct {
	// Now stamps unlocks and drives the time-of-day and weekend checks.
	Now time.Time
	// SessionEnded marks evaluations triggered by a finished game. Only such
	// evaluations advance the stateful hard-mode and weekend counters and
	// check the time-of-day windows; re-evaluations after XP rewards must
	// not count the session twice.
	SessionEnded bool
	// Difficulty of the finished session, when SessionEnded.
	Difficulty models.Difficulty
}

// Engine owns the achievement set: it seeds the catalog on first run,
// evaluates unlock predicates against cumulative statistics, and keeps a
// transient recently-unlocked buffer for the presentation layer.
//
// Unlocks are monotonic and evaluation is idempotent: an unlocked
// achievement is never re-evaluated or re-awarded.
type Engine struct {
	mu     sync.Mutex
	repo   repository.ProgressRepository
	set    []models.Achievement
	recent []models.Achievement
}

// NewEngine loads the persisted achievement set, seeding or migrating it
// against the fixed catalog.
func NewEngine(ctx context.Context, repo repository.ProgressRepository) (*Engine, error) {
	existing, err := repo.LoadAchievements(ctx)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		repo: repo,
		set:  Seed(existing),
	}
	if len(existing) != len(e.set) {
		e.save(ctx)
	}
	return e, nil
}

// All returns a copy of the full achievement set.
func (e *Engine) All() []models.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Achievement, len(e.set))
	copy(out, e.set)
	return out
}

// DrainRecent returns and clears the recently-unlocked buffer.
func (e *Engine) DrainRecent() []models.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.recent
	e.recent = nil
	return out
}

// Evaluate checks every locked achievement against the statistics and the
// event context, unlocking those whose predicates hold. It returns the newly
// unlocked achievements; calling it again with unchanged inputs returns none.
func (e *Engine) Evaluate(ctx context.Context, stats models.PlayerStatistics, evalCtx EvalContext) []models.Achievement {
	log := logger.FromContext(ctx).WithPrefix("achievements")
	e.mu.Lock()
	defer e.mu.Unlock()

	var unlocked []models.Achievement
	changed := false

	for i := range e.set {
		a := &e.set[i]
		if a.IsUnlocked {
			continue
		}

		progress, met := e.check(a, stats, evalCtx)
		if progress != a.CurrentProgress {
			a.CurrentProgress = progress
			changed = true
		}
		if !met {
			continue
		}

		now := evalCtx.Now
		a.IsUnlocked = true
		a.UnlockedAt = &now
		a.CurrentProgress = a.RequiredValue
		changed = true
		unlocked = append(unlocked, *a)
		e.recent = append(e.recent, *a)
		log.Info("achievement unlocked: %s (%s)", a.Title, a.ID)
	}

	if changed {
		e.save(ctx)
	}
	return unlocked
}

// check returns the achievement's updated progress and whether its predicate
// is satisfied. Most kinds recompute progress from the statistics; the
// hard-mode and weekend counters instead accumulate across qualifying
// sessions because their history is not recoverable from the statistics.
func (e *Engine) check(a *models.Achievement, stats models.PlayerStatistics, evalCtx EvalContext) (int, bool) {
	recompute := func(value int) (int, bool) {
		if value > a.RequiredValue {
			value = a.RequiredValue
		}
		return value, value >= a.RequiredValue
	}

	switch a.Type {
	case models.AchievementFirstGame:
		return recompute(stats.TotalGamesPlayed)
	case models.AchievementStreak5, models.AchievementStreak10, models.AchievementStreak20:
		return recompute(stats.LongestStreak)
	case models.AchievementPerfectGame:
		return recompute(stats.PerfectGames)
	case models.AchievementCorrect50, models.AchievementCorrect100:
		return recompute(stats.TotalCorrectAnswers)
	case models.AchievementXP100, models.AchievementXP500, models.AchievementXP1000:
		return recompute(stats.TotalXP)
	case models.AchievementPolyglot:
		return recompute(len(stats.LanguageStats))

	case models.AchievementHardMode10:
		progress := a.CurrentProgress
		if evalCtx.SessionEnded &&
			(evalCtx.Difficulty == models.DifficultyHard || evalCtx.Difficulty == models.DifficultyExpert) {
			progress++
		}
		return progress, progress >= a.RequiredValue

	case models.AchievementWeekendWarrior:
		progress := a.CurrentProgress
		if evalCtx.SessionEnded && isWeekend(evalCtx.Now) {
			progress++
		}
		return progress, progress >= a.RequiredValue

	case models.AchievementNightOwl:
		if evalCtx.SessionEnded && evalCtx.Now.Hour() < 6 {
			return a.RequiredValue, true
		}
		return a.CurrentProgress, false

	case models.AchievementEarlyBird:
		if evalCtx.SessionEnded && evalCtx.Now.Hour() >= 4 && evalCtx.Now.Hour() < 6 {
			return a.RequiredValue, true
		}
		return a.CurrentProgress, false
	}

	return a.CurrentProgress, false
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// save persists the set; like the statistics, achievement state is
// non-critical and write failures are logged and swallowed.
func (e *Engine) save(ctx context.Context) {
	if err := e.repo.SaveAchievements(ctx, e.set); err != nil {
		logger.FromContext(ctx).WithPrefix("achievements").Warn("failed to save achievements: %v", err)
	}
}
