package sqlite

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/coderquest/coderquest/internal/db"
	"github.com/coderquest/coderquest/internal/logger"
	"github.com/coderquest/coderquest/internal/models"
	"github.com/coderquest/coderquest/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Each language keeps only its best runs.
const maxScoresPerLanguage = 3

type scoreRepository struct {
	db *db.DB
}

// NewScoreRepository creates a new ScoreRepository implementation
func NewScoreRepository(db *db.DB) repository.ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) Add(ctx context.Context, entry models.ScoreEntry) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("adding score: language=%s, username=%s, score=%d", entry.Language, entry.Username, entry.Score)

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := sqlBuilder.Insert("scores").
		Columns("username", "language", "score", "created_at").
		Values(entry.Username, entry.Language, entry.Score, createdAt).
		ToSql()
	if err != nil {
		log.Error("failed to build insert query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert score: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get score id: %v", err)
		return 0, err
	}

	if err := r.prune(ctx, entry.Language); err != nil {
		return 0, err
	}

	log.Debug("score added: id=%d", id)
	return id, nil
}

// prune drops everything below the language's top entries.
func (r *scoreRepository) prune(ctx context.Context, language string) error {
	log := logger.FromContext(ctx).WithPrefix("score_repo")

	_, err := r.db.ExecContext(ctx, `
DELETE FROM scores
WHERE language = ? AND id NOT IN (
    SELECT id FROM scores
    WHERE language = ?
    ORDER BY score DESC, created_at ASC
    LIMIT ?
)
`, language, language, maxScoresPerLanguage)
	if err != nil {
		log.Error("failed to prune scores for %s: %v", language, err)
	}
	return err
}

func (r *scoreRepository) Top(ctx context.Context, language string) ([]models.ScoreEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("score_repo")
	log.Debug("loading top scores: language=%s", language)

	query, args, err := sqlBuilder.Select("id", "username", "language", "score", "created_at").
		From("scores").
		Where(squirrel.Eq{"language": language}).
		OrderBy("score DESC", "created_at ASC").
		Limit(maxScoresPerLanguage).
		ToSql()
	if err != nil {
		log.Error("failed to build select query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to load scores: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []models.ScoreEntry
	for rows.Next() {
		var e models.ScoreEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Language, &e.Score, &e.CreatedAt); err != nil {
			log.Error("failed to scan score row: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}

	log.Debug("found %d scores", len(entries))
	return entries, rows.Err()
}
