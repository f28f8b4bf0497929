// Package mocks holds testify mocks shared by the package tests.
package mocks

import (
	"context"
	"time"

	"anonmatch/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

// Profiles
func (m *MockStorage) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) UpsertProfile(ctx context.Context, userID int64, fields models.ProfileFields) (*models.Profile, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) IsPremiumActive(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ActivatePremium(ctx context.Context, userID int64, duration time.Duration) (time.Time, error) {
	args := m.Called(ctx, userID, duration)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockStorage) SetProfileActive(ctx context.Context, userID int64, active bool) error {
	args := m.Called(ctx, userID, active)
	return args.Error(0)
}

func (m *MockStorage) ListActiveProfileIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStorage) ListMatchCandidates(ctx context.Context, requesterID int64, gender string) ([]models.Profile, error) {
	args := m.Called(ctx, requesterID, gender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}

// Sessions and messages
func (m *MockStorage) CreateSession(ctx context.Context, user1ID, user2ID int64) (*models.ChatSession, error) {
	args := m.Called(ctx, user1ID, user2ID)
	if fn, ok := args.Get(0).(func(context.Context, int64, int64) (*models.ChatSession, error)); ok {
		return fn(ctx, user1ID, user2ID)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockStorage) EndSession(ctx context.Context, sessionID uint) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockStorage) GetActiveSessionForUser(ctx context.Context, userID int64) (*models.ChatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockStorage) ListActiveSessions(ctx context.Context) ([]models.ChatSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSession), args.Error(1)
}

func (m *MockStorage) AppendMessage(ctx context.Context, senderID, receiverID int64, text string) (bool, error) {
	args := m.Called(ctx, senderID, receiverID, text)
	return args.Bool(0), args.Error(1)
}

// Subscription plans
func (m *MockStorage) SeedPlans(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubscriptionPlan), args.Error(1)
}

func (m *MockStorage) GetPlan(ctx context.Context, planID uint) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *MockStorage) GetStats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

// Onboarding drafts
func (m *MockStorage) SaveDraft(ctx context.Context, userID int64, draft *models.ProfileDraft) error {
	args := m.Called(ctx, userID, draft)
	return args.Error(0)
}

func (m *MockStorage) GetDraft(ctx context.Context, userID int64) (*models.ProfileDraft, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileDraft), args.Error(1)
}

func (m *MockStorage) ClearDraft(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Events
func (m *MockStorage) PublishEvent(ctx context.Context, event models.SessionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
