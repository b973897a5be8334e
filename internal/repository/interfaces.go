package repository

import (
	"context"

	"github.com/coderquest/coderquest/internal/models"
)

// ProgressRepository persists the two progression aggregates as independent
// blobs. Loads are absent- and corruption-tolerant: a missing or unreadable
// aggregate yields freshly constructed defaults, never an error the player
// would see. Only genuine storage failures are returned.
type ProgressRepository interface {
	LoadStatistics(ctx context.Context) (*models.PlayerStatistics, error)
	SaveStatistics(ctx context.Context, stats *models.PlayerStatistics) error
	LoadAchievements(ctx context.Context) ([]models.Achievement, error)
	SaveAchievements(ctx context.Context, achievements []models.Achievement) error
}

// ScoreRepository handles the per-language high-score lists.
type ScoreRepository interface {
	// Add records a finished run and prunes the language's list to the top 3.
	Add(ctx context.Context, entry models.ScoreEntry) (int64, error)
	// Top returns up to 3 entries for a language, best first.
	Top(ctx context.Context, language string) ([]models.ScoreEntry, error)
}
