package session_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coderquest/coderquest/internal/achievements"
	"github.com/coderquest/coderquest/internal/catalog"
	apperrors "github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/progression"
	"github.com/coderquest/coderquest/internal/repository"
	"github.com/coderquest/coderquest/internal/repository/sqlite"
	"github.com/coderquest/coderquest/internal/session"
	"github.com/coderquest/coderquest/internal/testutil"
	"github.com/coderquest/coderquest/internal/testutil/mocks"
)

const (
	feedbackDelay  = 500 * time.Millisecond
	batchLoadDelay = 500 * time.Millisecond
)

// Every generated question uses the same choice set so tests can answer
// correctly ("right") or incorrectly ("wrong1") without seeing the answer.
func writeQuestions(t *testing.T, dir, language string, count, points int) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < count; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"question": "question %d", "choices": ["right", "wrong1", "wrong2"], "answer": "right", "point": %d}`, i, points)
	}
	sb.WriteString("]")
	require.NoError(t, os.WriteFile(filepath.Join(dir, language+".json"), []byte(sb.String()), 0o644))
}

type fixture struct {
	deps     session.Deps
	sched    *testutil.FakeScheduler
	progress *progression.Model
	engine   *achievements.Engine
	scores   repository.ScoreRepository
}

func newFixture(t *testing.T, catalogDir string) *fixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, database) })

	cat, err := catalog.Load(catalogDir)
	require.NoError(t, err)

	progressRepo := sqlite.NewProgressRepository(database)
	scoreRepo := sqlite.NewScoreRepository(database)

	// A Tuesday at noon: outside every time-of-day and weekend window.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	model, err := progression.NewModel(context.Background(), progressRepo,
		progression.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	engine, err := achievements.NewEngine(context.Background(), progressRepo)
	require.NoError(t, err)

	sched := testutil.NewFakeScheduler()
	deps := session.Deps{
		Catalog:      cat,
		Progress:     model,
		Achievements: engine,
		Scores:       scoreRepo,
		Scheduler:    sched,
		Config:       session.Config{FeedbackDelay: feedbackDelay, BatchLoadDelay: batchLoadDelay},
		Now:          func() time.Time { return now },
		Rand:         rand.New(rand.NewSource(42)),
	}

	return &fixture{
		deps:     deps,
		sched:    sched,
		progress: model,
		engine:   engine,
		scores:   scoreRepo,
	}
}

func newSession(t *testing.T, f *fixture, language string, difficulty models.Difficulty, mode models.Mode) *session.Session {
	t.Helper()
	s, err := session.New("test-session", "tester", language, difficulty, mode, f.deps)
	require.NoError(t, err)
	return s
}

// answer submits a choice and advances past the feedback delay.
func answer(t *testing.T, f *fixture, s *session.Session, choice string) *models.AnswerFeedback {
	t.Helper()
	fb, err := s.SubmitAnswer(context.Background(), choice)
	require.NoError(t, err)
	f.sched.Advance(feedbackDelay)
	return fb
}

func TestStart_ContentUnavailable(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)

	_, err := session.New("id", "tester", "COBOL", models.DifficultyEasy, models.ModeQuiz, f.deps)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeContentUnavailable, appErr.Code)
}

func TestStart_HeartsByDifficulty(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)

	tests := []struct {
		difficulty models.Difficulty
		mode       models.Mode
		hearts     int
	}{
		{models.DifficultyEasy, models.ModeQuiz, 5},
		{models.DifficultyMedium, models.ModeQuiz, 3},
		{models.DifficultyHard, models.ModeQuiz, 1},
		{models.DifficultyExpert, models.ModeQuiz, 1},
		{models.DifficultyHard, models.ModeFlashcard, 5}, // flashcard always plays with 5
	}

	for _, tt := range tests {
		t.Run(string(tt.difficulty)+"_"+string(tt.mode), func(t *testing.T) {
			f := newFixture(t, dir)
			s := newSession(t, f, "Python", tt.difficulty, tt.mode)

			snap := s.Snapshot()
			assert.Equal(t, tt.hearts, snap.HeartsMax)
			assert.Equal(t, tt.hearts, snap.HeartsRemaining)
			assert.Equal(t, models.PhaseAwaitingAnswer, snap.Phase)
		})
	}
}

func TestCurrentQuestion_WithholdsAnswerAndShufflesChoices(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	q, err := s.CurrentQuestion()
	require.NoError(t, err)
	assert.Len(t, q.Choices, 3)
	assert.ElementsMatch(t, []string{"right", "wrong1", "wrong2"}, q.Choices)
	assert.NotEmpty(t, q.Prompt)
}

func TestSubmitAnswer_ComboScoring(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 50, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	// Replaying the combo formula per answer, base 1, easy multiplier 1.0:
	// streak 1-4 earn x1, streak 5-9 earn x2, streak 10 earns x3:
	// 4*1 + 5*2 + 1*3 = 17.
	expectedPerAnswer := []int{1, 1, 1, 1, 2, 2, 2, 2, 2, 3}
	total := 0
	for i, expected := range expectedPerAnswer {
		fb := answer(t, f, s, "right")
		assert.Equal(t, expected, fb.PointsAwarded, "answer %d", i+1)
		total += expected
	}

	assert.Equal(t, 17, total)
	snap := s.Snapshot()
	assert.Equal(t, 17, snap.CumulativeScore)
	assert.Equal(t, 10, snap.CorrectStreak)
	assert.Equal(t, 3, snap.ComboMultiplier)
}

func TestComboMultiplier_Boundaries(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 60, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeFlashcard)

	// Streak 0-4 -> x1; 5-9 -> x2; 10-14 -> x3; 15-19 -> x4; >=20 capped at x5.
	expectations := map[int]int{4: 1, 5: 2, 9: 2, 10: 3, 15: 4, 20: 5, 25: 5}
	for i := 1; i <= 25; i++ {
		fb := answer(t, f, s, "right")
		if want, ok := expectations[i]; ok {
			assert.Equal(t, want, fb.ComboMultiplier, "streak=%d", i)
		}
	}
}

func TestSubmitAnswer_WrongResetsStreakAndCostsHeart(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	for i := 0; i < 6; i++ {
		answer(t, f, s, "right")
	}
	require.Equal(t, 2, s.Snapshot().ComboMultiplier)

	fb := answer(t, f, s, "wrong1")
	assert.False(t, fb.Correct)
	assert.Equal(t, "right", fb.CorrectChoice)
	assert.Equal(t, 0, fb.PointsAwarded)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.CorrectStreak)
	assert.Equal(t, 1, snap.ComboMultiplier)
	assert.Equal(t, 4, snap.HeartsRemaining)

	// The answer streak also reset in the lifetime record.
	assert.Equal(t, 0, f.progress.Statistics().CurrentStreak)
}

func TestSubmitAnswer_DifficultyMultiplier(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 4)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyMedium, models.ModeQuiz)

	fb, err := s.SubmitAnswer(context.Background(), "right")
	require.NoError(t, err)
	// round(4 * 1.5) * combo(x1) = 6
	assert.Equal(t, 6, fb.PointsAwarded)
}

func TestSubmitAnswer_InvalidStates(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	// Unknown choice is rejected without a state change.
	_, err := s.SubmitAnswer(context.Background(), "not-a-choice")
	require.Error(t, err)
	assert.Equal(t, 5, s.Snapshot().HeartsRemaining)

	// During feedback the machine rejects submissions.
	_, err = s.SubmitAnswer(context.Background(), "right")
	require.NoError(t, err)
	_, err = s.SubmitAnswer(context.Background(), "right")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestHeartExhaustion_EndsGame(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	for i := 0; i < 5; i++ {
		fb := answer(t, f, s, "wrong1")
		assert.Equal(t, 4-i, fb.HeartsRemaining)
	}

	snap := s.Snapshot()
	assert.True(t, snap.IsOver)
	assert.Equal(t, models.PhaseGameOver, snap.Phase)

	stats := f.progress.Statistics()
	assert.Equal(t, 1, stats.TotalGamesPlayed)
	assert.Equal(t, 5, stats.TotalWrongAnswers)
	assert.Equal(t, 0, stats.PerfectGames)
}

func TestWrongQueue_RecycledIntoNextBatch(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 4, 1) // batch is the whole catalog
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	answer(t, f, s, "wrong1")
	answer(t, f, s, "right")
	answer(t, f, s, "right")
	answer(t, f, s, "right")

	// Queue exhausted with one missed question pending: a reload is scheduled.
	assert.Equal(t, models.PhaseLoadingBatch, s.Snapshot().Phase)
	f.sched.Advance(batchLoadDelay)
	assert.Equal(t, models.PhaseAwaitingAnswer, s.Snapshot().Phase)

	// The recycled question comes around again; answering it ends the game.
	answer(t, f, s, "right")

	snap := s.Snapshot()
	assert.True(t, snap.IsOver)
	assert.Equal(t, 5, snap.QuestionsServed)
	assert.Equal(t, 4, snap.CorrectAnswers)
	assert.Equal(t, 1, snap.WrongAnswers)
}

func TestTimedMode_ExpiryTakesWrongAnswerPath(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyHard, models.ModeQuiz)

	snap := s.Snapshot()
	require.NotNil(t, snap.TimeRemainingSec)
	assert.Equal(t, 15, *snap.TimeRemainingSec)
	require.Equal(t, 1, snap.HeartsRemaining)

	// Let the countdown expire: forced skip, heart lost, streak reset.
	f.sched.Advance(15 * time.Second)

	snap = s.Snapshot()
	assert.Equal(t, models.PhaseShowingFeedback, snap.Phase)
	assert.Equal(t, 0, snap.HeartsRemaining)
	assert.Equal(t, 1, snap.WrongAnswers)

	f.sched.Advance(feedbackDelay)
	assert.True(t, s.Snapshot().IsOver)
}

func TestTimedMode_CountdownCancelledOnSubmit(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyMedium, models.ModeQuiz)

	f.sched.Advance(3 * time.Second)
	snap := s.Snapshot()
	require.NotNil(t, snap.TimeRemainingSec)
	assert.Equal(t, 17, *snap.TimeRemainingSec)

	answer(t, f, s, "right")

	// The old countdown is dead; the next question starts a fresh one and
	// the stale timer cannot cost a heart.
	snap = s.Snapshot()
	assert.Equal(t, 3, snap.HeartsRemaining)
	require.NotNil(t, snap.TimeRemainingSec)
	assert.Equal(t, 20, *snap.TimeRemainingSec)

	f.sched.Advance(19 * time.Second)
	assert.Equal(t, 3, s.Snapshot().HeartsRemaining)
}

func TestUntimedMode_NoCountdown(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	assert.Nil(t, s.Snapshot().TimeRemainingSec)
	f.sched.Advance(10 * time.Minute)
	snap := s.Snapshot()
	assert.Equal(t, 5, snap.HeartsRemaining)
	assert.Equal(t, models.PhaseAwaitingAnswer, snap.Phase)
}

func TestUseHint(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	hint, err := s.UseHint()
	require.NoError(t, err)
	// Three choices means two wrong ones exist: both get eliminated.
	assert.ElementsMatch(t, []string{"wrong1", "wrong2"}, hint.EliminatedChoices)

	// At most once per question.
	_, err = s.UseHint()
	require.Error(t, err)

	// Hints never touch hearts or score.
	snap := s.Snapshot()
	assert.Equal(t, 5, snap.HeartsRemaining)
	assert.Equal(t, 0, snap.CumulativeScore)
	assert.Equal(t, 1, snap.HintsUsed)

	// The next question gets a fresh hint.
	answer(t, f, s, "right")
	_, err = s.UseHint()
	assert.NoError(t, err)
}

func TestEnd_RecordsPerfectGame(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	score := 0
	for i := 0; i < 5; i++ {
		fb := answer(t, f, s, "right")
		score += fb.PointsAwarded
	}
	require.NoError(t, s.End(context.Background()))

	stats := f.progress.Statistics()
	assert.Equal(t, 1, stats.PerfectGames)
	assert.Equal(t, 1, stats.TotalGamesPlayed)
	assert.Equal(t, 5, stats.TotalCorrectAnswers)

	// Quiz XP: score + easy bonus 0 + perfect 50, plus achievement rewards:
	// first game 50, perfect game 100, streak of 5 is 50, and xp_100 pays 50
	// on the second evaluation pass once the rewards push XP past 100.
	assert.Equal(t, score+50+50+100+50+50, stats.TotalXP)

	// Ending twice is rejected.
	assert.Error(t, s.End(context.Background()))
}

func TestEnd_UnlocksFirstGameOnce(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)

	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)
	answer(t, f, s, "right")
	require.NoError(t, s.End(context.Background()))

	recent := f.engine.DrainRecent()
	types := make([]models.AchievementType, 0, len(recent))
	for _, a := range recent {
		types = append(types, a.Type)
	}
	assert.Contains(t, types, models.AchievementFirstGame)

	// A second game does not re-unlock it.
	s2 := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)
	answer(t, f, s2, "right")
	require.NoError(t, s2.End(context.Background()))

	for _, a := range f.engine.DrainRecent() {
		assert.NotEqual(t, models.AchievementFirstGame, a.Type)
	}
}

func TestEnd_RecordsScoreEntry(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	answer(t, f, s, "right")
	answer(t, f, s, "right")
	require.NoError(t, s.End(context.Background()))

	scores, err := f.scores.Top(context.Background(), "Python")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "tester", scores[0].Username)
	assert.Equal(t, 2, scores[0].Score)
}

func TestRestart_ResetsEverything(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	answer(t, f, s, "right")
	answer(t, f, s, "wrong1")
	require.NoError(t, s.Restart(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, 5, snap.HeartsRemaining)
	assert.Equal(t, 0, snap.CumulativeScore)
	assert.Equal(t, 0, snap.CorrectStreak)
	assert.False(t, snap.IsOver)
	assert.Equal(t, models.PhaseAwaitingAnswer, snap.Phase)
}

func TestRestoreHearts_ContinuesWithoutResettingScore(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyHard, models.ModeQuiz)

	// Bank some points, then lose the single hard-mode heart.
	fb := answer(t, f, s, "right")
	scoreBefore := fb.PointsAwarded
	answer(t, f, s, "wrong1")
	require.True(t, s.Snapshot().IsOver)

	gamesBefore := f.progress.Statistics().TotalGamesPlayed

	require.NoError(t, s.RestoreHearts())
	snap := s.Snapshot()
	assert.False(t, snap.IsOver)
	assert.Equal(t, 1, snap.HeartsRemaining)
	assert.Equal(t, scoreBefore, snap.CumulativeScore, "score survives the recovery")

	// Only the original run is recorded; continued play is not re-counted.
	answer(t, f, s, "wrong1")
	assert.True(t, s.Snapshot().IsOver)
	assert.Equal(t, gamesBefore, f.progress.Statistics().TotalGamesPlayed)
}

func TestRestoreHearts_RequiresGameOver(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)

	assert.Error(t, s.RestoreHearts())
}

func TestFlashcardMode_PerAnswerXP(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 60, 2)
	f := newFixture(t, dir)
	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeFlashcard)

	fb := answer(t, f, s, "right")
	// Flashcard scoring skips the difficulty multiplier: 2 * combo(x1).
	assert.Equal(t, 2, fb.PointsAwarded)

	stats := f.progress.Statistics()
	assert.Equal(t, 4, stats.TotalXP, "flashcard XP is double the awarded points, immediately")
	assert.Equal(t, 1, stats.TotalQuestionsAnswered)
}

func TestEnd_ScoreWriteFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)

	scores := new(mocks.MockScoreRepository)
	scores.On("Add", mock.Anything, mock.AnythingOfType("models.ScoreEntry")).
		Return(int64(0), fmt.Errorf("disk full"))
	f.deps.Scores = scores

	s := newSession(t, f, "Python", models.DifficultyEasy, models.ModeQuiz)
	answer(t, f, s, "right")
	require.NoError(t, s.End(context.Background()))

	// The run is still recorded in the progression even though the score
	// board write failed.
	assert.Equal(t, 1, f.progress.Statistics().TotalGamesPlayed)
	scores.AssertExpectations(t)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	writeQuestions(t, dir, "Python", 30, 1)
	f := newFixture(t, dir)

	registry := session.NewRegistry(f.deps, "default-player")

	s, err := registry.Create("Python", models.DifficultyEasy, models.ModeQuiz, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	got, err := registry.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = registry.Get("unknown")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)

	registry.Remove(s.ID())
	_, err = registry.Get(s.ID())
	assert.Error(t, err)
}
