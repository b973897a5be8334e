package session

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/coderquest/coderquest/internal/achievements"
	"github.com/coderquest/coderquest/internal/catalog"
	apperrors "github.com/coderquest/coderquest/internal/errors"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/progression"
	"github.com/coderquest/coderquest/internal/repository"
	"github.com/coderquest/coderquest/internal/scheduler"
)

const (
	quizBatchSize      = 20
	flashcardBatchSize = 50
	comboMultiplierCap = 5
	comboStreakStep    = 5
)

// Config carries the timing knobs of the session state machine.
type Config struct {
	// FeedbackDelay is how long feedback stays on screen before the machine
	// advances to the next question.
	FeedbackDelay time.Duration
	// BatchLoadDelay simulates the loading screen between question batches.
	BatchLoadDelay time.Duration
}

// Deps are the collaborators a session needs.
type Deps struct {
	Catalog      *catalog.Catalog
	Progress     *progression.Model
	Achievements *achievements.Engine
	Scores       repository.ScoreRepository
	Scheduler    scheduler.Scheduler
	Config       Config
	Now          func() time.Time
	Rand         *rand.Rand
}

// Session runs one play session: a queue of sampled questions, hearts,
// combo multiplier, timers and end-of-game accounting. All entry points are
// guarded by one mutex; scheduler callbacks re-enter through the same mutex
// and carry a generation token so a stale timer can never act on a session
// that has moved on.
type Session struct {
	mu sync.Mutex

	id         string
	username   string
	language   string
	difficulty models.Difficulty
	mode       models.Mode
	log        *logger.Logger

	deps Deps

	phase           models.Phase
	activeQueue     []models.QuestionItem
	cursor          int
	heartsRemaining int
	heartsMax       int
	correctStreak   int
	comboMultiplier int
	cumulativeScore int
	wrongQueue      []models.QuestionItem
	reserve         []models.QuestionItem
	isOver          bool

	timeLimitSec  int // 0 = untimed
	timeRemaining int

	questionsServed  int
	correctCount     int
	wrongCount       int
	hintsUsed        int
	hintUsedThisQ    int // cursor of the question the hint was spent on, -1 when unspent
	perfectSoFar     bool
	recorded         bool
	startedAt        time.Time
	feedbackTask     scheduler.Task
	loadTask         scheduler.Task
	countdownTask    scheduler.Task
	generation       int
	shuffledChoices  [][]string
}

// New creates and starts a session. A missing or unusable catalog for the
// language fails the start with CONTENT_UNAVAILABLE and leaves no state.
func New(id, username, language string, difficulty models.Difficulty, mode models.Mode, deps Deps) (*Session, error) {
	if !difficulty.Valid() {
		return nil, apperrors.NewValidationError("difficulty", "must be easy, medium, hard or expert")
	}
	if !mode.Valid() {
		return nil, apperrors.NewValidationError("mode", "must be quiz or flashcard")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{
		id:         id,
		username:   username,
		language:   language,
		difficulty: difficulty,
		mode:       mode,
		deps:       deps,
		log:        logger.Default().WithPrefix("session").WithField("session_id", id),
	}
	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

// start resets every session field and samples the first batch.
func (s *Session) start() error {
	questions, err := s.deps.Catalog.Questions(s.language)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	s.generation++

	pool := make([]models.QuestionItem, len(questions))
	copy(pool, questions)
	s.deps.Rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	batchSize := quizBatchSize
	if s.mode == models.ModeFlashcard {
		batchSize = flashcardBatchSize
	}
	if batchSize > len(pool) {
		batchSize = len(pool)
	}

	s.activeQueue = pool[:batchSize]
	s.reserve = pool[batchSize:]
	s.shuffleChoicesLocked()
	s.cursor = 0
	s.heartsMax = heartsFor(s.difficulty, s.mode)
	s.heartsRemaining = s.heartsMax
	s.correctStreak = 0
	s.comboMultiplier = 1
	s.cumulativeScore = 0
	s.wrongQueue = nil
	s.isOver = false
	s.questionsServed = 0
	s.correctCount = 0
	s.wrongCount = 0
	s.hintsUsed = 0
	s.hintUsedThisQ = -1
	s.perfectSoFar = true
	s.recorded = false
	s.startedAt = s.deps.Now()

	s.timeLimitSec = 0
	if s.mode == models.ModeQuiz {
		s.timeLimitSec = s.difficulty.TimeLimitSeconds()
	}

	s.log.Info("session started: language=%s, difficulty=%s, mode=%s, batch=%d, hearts=%d",
		s.language, s.difficulty, s.mode, len(s.activeQueue), s.heartsMax)

	s.enterQuestionLocked()
	return nil
}

// heartsFor maps difficulty to lives. Flashcard sessions always play with
// the full five.
func heartsFor(difficulty models.Difficulty, mode models.Mode) int {
	if mode == models.ModeFlashcard {
		return 5
	}
	switch difficulty {
	case models.DifficultyMedium:
		return 3
	case models.DifficultyHard, models.DifficultyExpert:
		return 1
	default:
		return 5
	}
}

// shuffleChoicesLocked pre-shuffles each queued question's choice order.
func (s *Session) shuffleChoicesLocked() {
	s.shuffledChoices = make([][]string, len(s.activeQueue))
	for i, q := range s.activeQueue {
		choices := make([]string, len(q.Choices))
		copy(choices, q.Choices)
		s.deps.Rand.Shuffle(len(choices), func(a, b int) { choices[a], choices[b] = choices[b], choices[a] })
		s.shuffledChoices[i] = choices
	}
}

// enterQuestionLocked presents the question at the cursor and arms the
// countdown when the difficulty imposes one.
func (s *Session) enterQuestionLocked() {
	s.phase = models.PhaseAwaitingAnswer
	s.questionsServed++

	if s.timeLimitSec > 0 {
		s.timeRemaining = s.timeLimitSec
		gen := s.generation
		s.countdownTask = s.deps.Scheduler.Every(time.Second, func() { s.tick(gen) })
	}
}

// tick is the once-per-second countdown callback. Expiry behaves exactly as
// an incorrect answer: same heart loss, same streak reset.
func (s *Session) tick(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase != models.PhaseAwaitingAnswer {
		return
	}
	s.timeRemaining--
	if s.timeRemaining > 0 {
		return
	}

	s.log.Debug("question timed out, forcing skip")
	s.resolveAnswerLocked(context.Background(), false)
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// CurrentQuestion returns the presented question with shuffled choices and
// the answer withheld. Valid only while an answer is awaited.
func (s *Session) CurrentQuestion() (*models.QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != models.PhaseAwaitingAnswer {
		return nil, apperrors.NewValidationError("state", "no question is currently awaiting an answer")
	}
	q := s.activeQueue[s.cursor]
	return &models.QuestionView{
		Prompt:     q.Prompt,
		Choices:    append([]string(nil), s.shuffledChoices[s.cursor]...),
		BasePoints: q.BasePoints,
		Difficulty: q.Difficulty,
		Category:   q.Category,
	}, nil
}

// SubmitAnswer evaluates a player's choice. Valid only while an answer is
// awaited; calling it in any other phase is rejected without a state change.
func (s *Session) SubmitAnswer(ctx context.Context, choice string) (*models.AnswerFeedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != models.PhaseAwaitingAnswer {
		return nil, apperrors.NewValidationError("state", "answer submitted outside the answering phase")
	}

	q := s.activeQueue[s.cursor]
	valid := false
	for _, c := range q.Choices {
		if c == choice {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.NewValidationError("choice", "not one of the question's choices")
	}

	correct := choice == q.CorrectChoice
	points := s.resolveAnswerLocked(ctx, correct)

	return &models.AnswerFeedback{
		Correct:         correct,
		CorrectChoice:   q.CorrectChoice,
		PointsAwarded:   points,
		ComboMultiplier: s.comboMultiplier,
		HeartsRemaining: s.heartsRemaining,
		Explanation:     q.Explanation,
		GameOver:        s.heartsRemaining == 0,
	}, nil
}

// resolveAnswerLocked applies one answer outcome. Timeouts funnel through
// the same path as user submissions so heart loss and streak reset can never
// diverge.
func (s *Session) resolveAnswerLocked(ctx context.Context, correct bool) int {
	q := s.activeQueue[s.cursor]
	s.cancelCountdownLocked()

	points := 0
	if correct {
		s.correctStreak++
		s.comboMultiplier = comboForStreak(s.correctStreak)
		points = s.finalPoints(q)
		s.cumulativeScore += points
		s.correctCount++
	} else {
		s.correctStreak = 0
		s.comboMultiplier = 1
		s.heartsRemaining--
		s.wrongQueue = append(s.wrongQueue, q)
		s.wrongCount++
		s.perfectSoFar = false
	}

	s.deps.Progress.UpdateStreak(ctx, correct)
	if s.mode == models.ModeFlashcard {
		s.deps.Progress.RecordAnswer(ctx, correct, points)
	}

	s.log.Debug("answer resolved: correct=%v, points=%d, combo=x%d, hearts=%d",
		correct, points, s.comboMultiplier, s.heartsRemaining)

	s.phase = models.PhaseShowingFeedback
	gen := s.generation
	s.feedbackTask = s.deps.Scheduler.After(s.deps.Config.FeedbackDelay, func() { s.advance(gen) })
	return points
}

// comboForStreak maps the consecutive-correct streak to the score
// multiplier: min(1 + streak/5, 5).
func comboForStreak(streak int) int {
	combo := 1 + streak/comboStreakStep
	if combo > comboMultiplierCap {
		combo = comboMultiplierCap
	}
	return combo
}

// finalPoints applies the session difficulty multiplier and the combo.
// Flashcard sessions carry no difficulty scaling.
func (s *Session) finalPoints(q models.QuestionItem) int {
	base := float64(q.BasePoints)
	if s.mode == models.ModeQuiz {
		base = math.Round(base * s.difficulty.PointsMultiplier())
	}
	return int(base) * s.comboMultiplier
}

// advance is the post-feedback callback: game over on empty hearts,
// otherwise the next question, a batch reload, or the end of content.
func (s *Session) advance(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase != models.PhaseShowingFeedback {
		return
	}

	ctx := context.Background()
	if s.heartsRemaining == 0 {
		s.endLocked(ctx)
		return
	}

	s.cursor++
	if s.cursor < len(s.activeQueue) {
		s.enterQuestionLocked()
		return
	}

	if len(s.reserve) == 0 && len(s.wrongQueue) == 0 {
		s.endLocked(ctx)
		return
	}

	s.phase = models.PhaseLoadingBatch
	s.loadTask = s.deps.Scheduler.After(s.deps.Config.BatchLoadDelay, func() { s.finishLoad(gen) })
}

// finishLoad swaps in the next batch: fresh questions from the reserve with
// the missed ones recycled at the end.
func (s *Session) finishLoad(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase != models.PhaseLoadingBatch {
		return
	}

	batchSize := quizBatchSize
	if s.mode == models.ModeFlashcard {
		batchSize = flashcardBatchSize
	}
	take := batchSize
	if take > len(s.reserve) {
		take = len(s.reserve)
	}

	batch := make([]models.QuestionItem, 0, take+len(s.wrongQueue))
	batch = append(batch, s.reserve[:take]...)
	s.reserve = s.reserve[take:]
	batch = append(batch, s.wrongQueue...)
	s.wrongQueue = nil

	if len(batch) == 0 {
		s.endLocked(context.Background())
		return
	}

	s.activeQueue = batch
	s.shuffleChoicesLocked()
	s.cursor = 0
	s.hintUsedThisQ = -1
	s.log.Debug("next batch loaded: %d questions", len(batch))
	s.enterQuestionLocked()
}

// End finishes the session explicitly.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isOver {
		return apperrors.NewValidationError("state", "session is already over")
	}
	s.endLocked(ctx)
	return nil
}

// endLocked marks the session over and, once per session lifecycle, feeds
// the tallies into progression, achievements and the score board.
func (s *Session) endLocked(ctx context.Context) {
	s.cancelTimersLocked()
	s.generation++
	s.phase = models.PhaseGameOver
	s.isOver = true

	if s.recorded {
		return
	}
	s.recorded = true

	now := s.deps.Now()
	answered := s.correctCount + s.wrongCount
	perfect := s.perfectSoFar && answered > 0

	s.log.Info("session over: score=%d, answered=%d, correct=%d, perfect=%v",
		s.cumulativeScore, answered, s.correctCount, perfect)

	s.deps.Progress.RecordGameSession(ctx, progression.GameSummary{
		Language:          s.language,
		Mode:              s.mode,
		Difficulty:        s.difficulty,
		Score:             s.cumulativeScore,
		QuestionsAnswered: answered,
		CorrectAnswers:    s.correctCount,
		TimePlayedSec:     int(now.Sub(s.startedAt).Seconds()),
		Perfect:           perfect,
	})

	// Achievement XP rewards can push the XP-threshold achievements over
	// their lines, so evaluation runs to a fixed point. Only the first pass
	// counts the session itself.
	evalCtx := achievements.EvalContext{Now: now, SessionEnded: true, Difficulty: s.difficulty}
	for {
		unlocked := s.deps.Achievements.Evaluate(ctx, s.deps.Progress.Statistics(), evalCtx)
		if len(unlocked) == 0 {
			break
		}
		for _, a := range unlocked {
			s.deps.Progress.AwardXP(ctx, a.XPReward)
		}
		evalCtx.SessionEnded = false
	}

	if _, err := s.deps.Scores.Add(ctx, models.ScoreEntry{
		Username:  s.username,
		Score:     s.cumulativeScore,
		Language:  s.language,
		CreatedAt: now,
	}); err != nil {
		s.log.Warn("failed to record score: %v", err)
	}
}

// Restart re-runs the start semantics: hearts restored, score zeroed, a
// fresh batch sampled.
func (s *Session) Restart(ctx context.Context) error {
	return s.start()
}

// RestoreHearts refills hearts and clears the game-over flag without
// touching score or streak: the continue-after-ad recovery path. The
// finished run's tallies stay recorded; continued play is not re-recorded.
func (s *Session) RestoreHearts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOver {
		return apperrors.NewValidationError("state", "hearts can only be restored after game over")
	}

	s.heartsRemaining = s.heartsMax
	s.isOver = false
	s.generation++
	s.log.Info("hearts restored, resuming play")

	// Resume past the question that ended the run.
	s.cursor++
	if s.cursor < len(s.activeQueue) {
		s.enterQuestionLocked()
		return nil
	}
	if len(s.reserve) == 0 && len(s.wrongQueue) == 0 {
		s.phase = models.PhaseGameOver
		s.isOver = true
		return apperrors.NewValidationError("state", "no questions left to resume into")
	}
	s.phase = models.PhaseLoadingBatch
	gen := s.generation
	s.loadTask = s.deps.Scheduler.After(s.deps.Config.BatchLoadDelay, func() { s.finishLoad(gen) })
	return nil
}

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:              s.id,
		Language:        s.language,
		Difficulty:      s.difficulty,
		Mode:            s.mode,
		Phase:           s.phase,
		HeartsRemaining: s.heartsRemaining,
		HeartsMax:       s.heartsMax,
		CorrectStreak:   s.correctStreak,
		ComboMultiplier: s.comboMultiplier,
		CumulativeScore: s.cumulativeScore,
		QuestionsServed: s.questionsServed,
		CorrectAnswers:  s.correctCount,
		WrongAnswers:    s.wrongCount,
		HintsUsed:       s.hintsUsed,
		IsOver:          s.isOver,
	}
	if s.timeLimitSec > 0 && s.phase == models.PhaseAwaitingAnswer {
		remaining := s.timeRemaining
		snap.TimeRemainingSec = &remaining
	}
	return snap
}

func (s *Session) cancelCountdownLocked() {
	if s.countdownTask != nil {
		s.countdownTask.Cancel()
		s.countdownTask = nil
	}
}

func (s *Session) cancelTimersLocked() {
	s.cancelCountdownLocked()
	if s.feedbackTask != nil {
		s.feedbackTask.Cancel()
		s.feedbackTask = nil
	}
	if s.loadTask != nil {
		s.loadTask.Cancel()
		s.loadTask = nil
	}
}
