package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coderquest/coderquest/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) LoadStatistics(ctx context.Context) (*models.PlayerStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStatistics), args.Error(1)
}

func (m *MockProgressRepository) SaveStatistics(ctx context.Context, stats *models.PlayerStatistics) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockProgressRepository) LoadAchievements(ctx context.Context) ([]models.Achievement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Achievement), args.Error(1)
}

func (m *MockProgressRepository) SaveAchievements(ctx context.Context, achievements []models.Achievement) error {
	args := m.Called(ctx, achievements)
	return args.Error(0)
}
