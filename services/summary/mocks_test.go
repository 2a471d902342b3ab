package summary

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/hybrid-summarizer/models"
)

// MockLocalSummarizer is a mock implementation of providers.LocalSummarizer
type MockLocalSummarizer struct {
	mock.Mock
}

func (m *MockLocalSummarizer) SummarizeLocal(text string) (string, error) {
	args := m.Called(text)
	return args.String(0), args.Error(1)
}

// MockRemoteSummarizer is a mock implementation of providers.RemoteSummarizer
type MockRemoteSummarizer struct {
	mock.Mock
}

func (m *MockRemoteSummarizer) Name() string {
	return "mock"
}

func (m *MockRemoteSummarizer) SummarizeRemote(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// MockSummaryRepository is a mock implementation of repositories.SummaryRepository
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) Create(ctx context.Context, record *models.SummaryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSummaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SummaryRecord), args.Error(1)
}

func (m *MockSummaryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.SummaryRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SummaryRecord), args.Error(1)
}

// MockDispatcher is a mock implementation of Summarizer
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Summarize(ctx context.Context, req Request) (*Outcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Outcome), args.Error(1)
}
