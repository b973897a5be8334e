package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coderquest/coderquest/internal/models"
)

// MockScoreRepository is a mock implementation of repository.ScoreRepository
type MockScoreRepository struct {
	mock.Mock
}

func (m *MockScoreRepository) Add(ctx context.Context, entry models.ScoreEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScoreRepository) Top(ctx context.Context, language string) ([]models.ScoreEntry, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoreEntry), args.Error(1)
}
