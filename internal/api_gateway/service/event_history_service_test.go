package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

type MockArchiveRepo struct {
	mock.Mock
}

func (m *MockArchiveRepo) Save(ctx context.Context, event *ledger.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockArchiveRepo) GetByEventID(ctx context.Context, id string) (*ledger.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Event), args.Error(1)
}

func (m *MockArchiveRepo) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*ledger.Event, error) {
	args := m.Called(ctx, groupID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Event), args.Error(1)
}

func (m *MockArchiveRepo) CountByGroup(ctx context.Context, groupID int64) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func TestEventHistoryService_ListGroupEvents(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	events := []*ledger.Event{{ID: "evt_2"}, {ID: "evt_1"}}

	tests := []struct {
		name          string
		page, perPage int
		setupMocks    func(m *MockArchiveRepo)
		expectedLen   int
		expectedTotal int64
		expectedError string
	}{
		{
			name: "second page",
			page: 2, perPage: 2,
			setupMocks: func(m *MockArchiveRepo) {
				m.On("ListByGroup", mock.Anything, int64(7), 2, 2).Return(events, nil).Once()
				m.On("CountByGroup", mock.Anything, int64(7)).Return(int64(4), nil).Once()
			},
			expectedLen:   2,
			expectedTotal: 4,
		},
		{
			name: "defaults for out of range paging",
			page: 0, perPage: 0,
			setupMocks: func(m *MockArchiveRepo) {
				m.On("ListByGroup", mock.Anything, int64(7), 10, 0).Return([]*ledger.Event{}, nil).Once()
				m.On("CountByGroup", mock.Anything, int64(7)).Return(int64(0), nil).Once()
			},
		},
		{
			name: "list failure",
			page: 1, perPage: 10,
			setupMocks: func(m *MockArchiveRepo) {
				m.On("ListByGroup", mock.Anything, int64(7), 10, 0).Return(nil, errors.New("mongo down")).Once()
			},
			expectedError: "failed to list events for group 7",
		},
		{
			name: "count failure",
			page: 1, perPage: 10,
			setupMocks: func(m *MockArchiveRepo) {
				m.On("ListByGroup", mock.Anything, int64(7), 10, 0).Return(events, nil).Once()
				m.On("CountByGroup", mock.Anything, int64(7)).Return(int64(0), errors.New("mongo down")).Once()
			},
			expectedError: "failed to count events for group 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockArchiveRepo{}
			tt.setupMocks(repo)
			svc := NewEventHistoryService(logger, repo)

			got, total, err := svc.ListGroupEvents(context.Background(), 7, tt.page, tt.perPage)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.expectedLen)
				assert.Equal(t, tt.expectedTotal, total)
			}
			repo.AssertExpectations(t)
		})
	}
}
