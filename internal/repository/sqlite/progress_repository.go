package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/coderquest/coderquest/internal/db"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/repository"
)

// Persisted blob keys. Statistics and achievements are independently
// loadable; either may be absent.
const (
	statisticsKey   = "userStatistics"
	achievementsKey = "userAchievements"
)

type progressRepository struct {
	db *db.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *db.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) LoadStatistics(ctx context.Context) (*models.PlayerStatistics, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	raw, found, err := r.loadBlob(ctx, statisticsKey)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Debug("no saved statistics, starting fresh")
		return models.NewPlayerStatistics(), nil
	}

	var stats models.PlayerStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		// Corrupt local statistics are non-critical: start fresh rather
		// than surfacing an error to the player.
		log.Warn("failed to decode saved statistics, starting fresh: %v", err)
		return models.NewPlayerStatistics(), nil
	}
	stats.Normalize()
	log.Debug("statistics loaded: xp=%d, level=%d, games=%d", stats.TotalXP, stats.Level, stats.TotalGamesPlayed)
	return &stats, nil
}

func (r *progressRepository) SaveStatistics(ctx context.Context, stats *models.PlayerStatistics) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving statistics: xp=%d, level=%d", stats.TotalXP, stats.Level)

	raw, err := json.Marshal(stats)
	if err != nil {
		log.Error("failed to encode statistics: %v", err)
		return err
	}
	return r.saveBlob(ctx, statisticsKey, raw)
}

func (r *progressRepository) LoadAchievements(ctx context.Context) ([]models.Achievement, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	raw, found, err := r.loadBlob(ctx, achievementsKey)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Debug("no saved achievements")
		return nil, nil
	}

	var achievements []models.Achievement
	if err := json.Unmarshal(raw, &achievements); err != nil {
		log.Warn("failed to decode saved achievements, reseeding: %v", err)
		return nil, nil
	}
	log.Debug("achievements loaded: %d records", len(achievements))
	return achievements, nil
}

func (r *progressRepository) SaveAchievements(ctx context.Context, achievements []models.Achievement) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving achievements: %d records", len(achievements))

	raw, err := json.Marshal(achievements)
	if err != nil {
		log.Error("failed to encode achievements: %v", err)
		return err
	}
	return r.saveBlob(ctx, achievementsKey, raw)
}

func (r *progressRepository) loadBlob(ctx context.Context, key string) ([]byte, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM progress_blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		log.Error("failed to load blob %s: %v", key, err)
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (r *progressRepository) saveBlob(ctx context.Context, key string, value []byte) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	_, err := r.db.ExecContext(ctx, `
INSERT INTO progress_blobs (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`, key, string(value))
	if err != nil {
		log.Error("failed to save blob %s: %v", key, err)
	}
	return err
}
