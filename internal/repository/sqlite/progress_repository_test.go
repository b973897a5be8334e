package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/coderquest/coderquest/internal/db"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/repository"
	"github.com/coderquest/coderquest/internal/repository/sqlite"
	"github.com/coderquest/coderquest/internal/testutil"
)

type ProgressRepositorySuite struct {
	suite.Suite
	db   *db.DB
	repo repository.ProgressRepository
}

func (s *ProgressRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewProgressRepository(s.db)
}

func (s *ProgressRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ProgressRepositorySuite) TestStatisticsAbsentReturnsFreshRecord() {
	stats, err := s.repo.LoadStatistics(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(stats)
	s.Assert().Equal(1, stats.Level)
	s.Assert().Equal(0, stats.TotalXP)
	s.Assert().NotNil(stats.LanguageStats)
}

func (s *ProgressRepositorySuite) TestStatisticsRoundtrip() {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	in := models.NewPlayerStatistics()
	in.TotalXP = 420
	in.Level = 3
	in.CurrentStreak = 7
	in.LongestStreak = 12
	in.TotalGamesPlayed = 4
	in.PerfectGames = 1
	in.DailyGoalStreak = 2
	in.LastPlayedDate = &now
	in.LanguageStats["Python"] = models.LanguageStatistics{
		TotalQuestions: 40,
		CorrectAnswers: 35,
		WrongAnswers:   5,
		TotalPoints:    90,
		HighestScore:   30,
		AverageScore:   22.5,
	}
	s.Require().NoError(s.repo.SaveStatistics(ctx, in))

	out, err := s.repo.LoadStatistics(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(420, out.TotalXP)
	s.Assert().Equal(3, out.Level)
	s.Assert().Equal(7, out.CurrentStreak)
	s.Assert().Equal(2, out.DailyGoalStreak)
	s.Require().Contains(out.LanguageStats, "Python")
	s.Assert().Equal(35, out.LanguageStats["Python"].CorrectAnswers)
	s.Require().NotNil(out.LastPlayedDate)
	s.Assert().True(out.LastPlayedDate.Equal(now))
}

func (s *ProgressRepositorySuite) TestSaveOverwritesPrevious() {
	ctx := context.Background()

	first := models.NewPlayerStatistics()
	first.TotalXP = 100
	s.Require().NoError(s.repo.SaveStatistics(ctx, first))

	second := models.NewPlayerStatistics()
	second.TotalXP = 250
	s.Require().NoError(s.repo.SaveStatistics(ctx, second))

	out, err := s.repo.LoadStatistics(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(250, out.TotalXP)
}

func (s *ProgressRepositorySuite) TestCorruptStatisticsFallsBackToDefaults() {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_blobs (key, value) VALUES (?, ?)`,
		"userStatistics", "{not valid json")
	s.Require().NoError(err)

	stats, err := s.repo.LoadStatistics(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(1, stats.Level)
	s.Assert().Equal(0, stats.TotalXP)
}

func (s *ProgressRepositorySuite) TestAchievementsAbsentReturnsNil() {
	achs, err := s.repo.LoadAchievements(context.Background())
	s.Require().NoError(err)
	s.Assert().Nil(achs)
}

func (s *ProgressRepositorySuite) TestAchievementsRoundtrip() {
	ctx := context.Background()
	unlockedAt := time.Date(2026, 4, 2, 20, 0, 0, 0, time.UTC)

	in := []models.Achievement{
		{
			ID:              "first_game",
			Type:            models.AchievementFirstGame,
			Title:           "First Steps",
			IsUnlocked:      true,
			UnlockedAt:      &unlockedAt,
			RequiredValue:   1,
			CurrentProgress: 1,
			XPReward:        50,
		},
		{
			ID:              "hard_mode_10",
			Type:            models.AchievementHardMode10,
			Title:           "Glutton for Punishment",
			RequiredValue:   10,
			CurrentProgress: 4,
			XPReward:        250,
		},
	}
	s.Require().NoError(s.repo.SaveAchievements(ctx, in))

	out, err := s.repo.LoadAchievements(ctx)
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Assert().True(out[0].IsUnlocked)
	s.Require().NotNil(out[0].UnlockedAt)
	s.Assert().True(out[0].UnlockedAt.Equal(unlockedAt))
	s.Assert().Equal(4, out[1].CurrentProgress)
}

func (s *ProgressRepositorySuite) TestCorruptAchievementsFallBackToNil() {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_blobs (key, value) VALUES (?, ?)`,
		"userAchievements", "[[[")
	s.Require().NoError(err)

	achs, err := s.repo.LoadAchievements(ctx)
	s.Require().NoError(err)
	s.Assert().Nil(achs)
}

func TestProgressRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProgressRepositorySuite))
}
