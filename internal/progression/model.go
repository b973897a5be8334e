package progression

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/repository"
)

// XP awarded at game end for a session with every first attempt correct.
const perfectBonusXP = 50

// GameSummary carries the aggregated tallies of one finished session.
type GameSummary struct {
	Language          string
	Mode              models.Mode
	Difficulty        models.Difficulty
	Score             int
	QuestionsAnswered int
	CorrectAnswers    int
	TimePlayedSec     int
	Perfect           bool
}

// Model owns the lifetime PlayerStatistics record: XP and leveling,
// per-language aggregation, answer streak and daily streak bookkeeping.
// It is loaded once at startup and saved after every mutation.
//
// Two XP award paths coexist and are never combined within one mode:
// RecordAnswer grants immediate micro-XP (flashcard mode), RecordGameSession
// grants batch XP with difficulty and perfect bonuses (quiz mode).
type Model struct {
	mu    sync.Mutex
	repo  repository.ProgressRepository
	stats *models.PlayerStatistics
	now   func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel loads the persisted statistics (or defaults when absent) and
// returns a ready Model.
func NewModel(ctx context.Context, repo repository.ProgressRepository, opts ...Option) (*Model, error) {
	stats, err := repo.LoadStatistics(ctx)
	if err != nil {
		return nil, err
	}
	m := &Model{
		repo:  repo,
		stats: stats,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reconcileLevel()
	return m, nil
}

// Statistics returns a copy of the current record.
func (m *Model) Statistics() models.PlayerStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Model) snapshotLocked() models.PlayerStatistics {
	out := *m.stats
	out.LanguageStats = make(map[string]models.LanguageStatistics, len(m.stats.LanguageStats))
	for k, v := range m.stats.LanguageStats {
		out.LanguageStats[k] = v
	}
	return out
}

// RecordAnswer applies one answered question in flashcard mode: counts are
// updated immediately and a correct answer earns double its points as XP.
func (m *Model) RecordAnswer(ctx context.Context, correct bool, pointsAwarded int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalQuestionsAnswered++
	if correct {
		m.stats.TotalCorrectAnswers++
		m.stats.TotalXP += pointsAwarded * 2
		m.reconcileLevel()
	} else {
		m.stats.TotalWrongAnswers++
	}
	m.saveLocked(ctx)
}

// UpdateStreak applies one answer to the consecutive-correct streak. This is
// the answer streak, distinct from the daily streak: a wrong answer resets
// it to zero, a correct answer extends it and may raise the longest streak.
func (m *Model) UpdateStreak(ctx context.Context, correct bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !correct {
		m.stats.CurrentStreak = 0
	} else {
		m.stats.CurrentStreak++
		if m.stats.CurrentStreak > m.stats.LongestStreak {
			m.stats.LongestStreak = m.stats.CurrentStreak
		}
	}
	m.saveLocked(ctx)
}

// RecordGameSession applies a finished session: language statistics, global
// aggregates, the daily streak, and (in quiz mode) the batch XP award.
func (m *Model) RecordGameSession(ctx context.Context, summary GameSummary) {
	log := logger.FromContext(ctx).WithPrefix("progression")
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	wrongAnswers := summary.QuestionsAnswered - summary.CorrectAnswers

	// The running average divides by the global games-played count, not the
	// per-language one. Kept as the source behaves; see DESIGN.md.
	n := m.stats.TotalGamesPlayed + 1

	ls := m.stats.LanguageStats[summary.Language]
	ls.TotalQuestions += summary.QuestionsAnswered
	ls.CorrectAnswers += summary.CorrectAnswers
	ls.WrongAnswers += wrongAnswers
	ls.TotalPoints += summary.Score
	if summary.Score > ls.HighestScore {
		ls.HighestScore = summary.Score
	}
	ls.AverageScore = (ls.AverageScore*float64(n-1) + float64(summary.Score)) / float64(n)
	ls.TotalTimePlayedSec += summary.TimePlayedSec
	ls.LastPlayedDate = &now
	m.stats.LanguageStats[summary.Language] = ls

	m.stats.TotalGamesPlayed++
	if summary.Mode == models.ModeQuiz {
		// Flashcard sessions already counted these per answer.
		m.stats.TotalQuestionsAnswered += summary.QuestionsAnswered
		m.stats.TotalCorrectAnswers += summary.CorrectAnswers
		m.stats.TotalWrongAnswers += wrongAnswers
	}
	if summary.Perfect {
		m.stats.PerfectGames++
	}

	if summary.Mode == models.ModeQuiz {
		base := summary.Score
		difficultyBonus := int(math.Floor(float64(base) * (summary.Difficulty.PointsMultiplier() - 1)))
		perfectBonus := 0
		if summary.Perfect {
			perfectBonus = perfectBonusXP
		}
		m.stats.TotalXP += base + difficultyBonus + perfectBonus
		m.reconcileLevel()
		log.Debug("session xp awarded: base=%d, difficulty_bonus=%d, perfect_bonus=%d", base, difficultyBonus, perfectBonus)
	}

	m.touchDailyStreakLocked(now)
	m.stats.LastPlayedDate = &now

	m.saveLocked(ctx)
	log.Info("game session recorded: language=%s, score=%d, perfect=%v, level=%d",
		summary.Language, summary.Score, summary.Perfect, m.stats.Level)
}

// AwardXP grants a flat XP bonus (achievement rewards).
func (m *Model) AwardXP(ctx context.Context, amount int) {
	if amount <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalXP += amount
	m.reconcileLevel()
	m.saveLocked(ctx)
}

// touchDailyStreakLocked applies the consecutive-days-played rules: exactly
// one calendar day since the last play extends the streak, a longer gap
// resets it to 1, playing again on the same day changes nothing.
func (m *Model) touchDailyStreakLocked(now time.Time) {
	last := m.stats.LastPlayedDate
	if last == nil {
		m.stats.DailyGoalStreak = 1
		return
	}
	switch gap := calendarDaysBetween(*last, now); {
	case gap == 0:
		// Same day, no change.
	case gap == 1:
		m.stats.DailyGoalStreak++
	default:
		m.stats.DailyGoalStreak = 1
	}
}

func calendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// reconcileLevel raises the stored level to match the curve. The level never
// decreases, even if the derivation would; monotonicity is a contract here,
// not an accident.
func (m *Model) reconcileLevel() {
	if lv := LevelForXP(m.stats.TotalXP); lv > m.stats.Level {
		m.stats.Level = lv
	}
}

// saveLocked persists the record. Local statistics are non-critical, so
// write failures are logged and swallowed.
func (m *Model) saveLocked(ctx context.Context) {
	if err := m.repo.SaveStatistics(ctx, m.stats); err != nil {
		logger.FromContext(ctx).WithPrefix("progression").Warn("failed to save statistics: %v", err)
	}
}
