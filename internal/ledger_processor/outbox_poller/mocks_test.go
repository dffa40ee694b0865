package outbox_poller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByEventID(ctx context.Context, eventID string) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

// MockArchiveRepo for testing
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

// MockEventProducer for testing
type MockEventProducer struct {
	mock.Mock
}

func (m *MockEventProducer) PublishEvent(ctx context.Context, event *ledger.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func committedMessage(id int64, attempts int) *outbox.Message {
	event := ledger.NewEvent(ledger.EventTypeDeposit, "dep-1", ledger.Metadata{"member_id": 3, "amount": "25.00"},
		ledger.IDPtr(9), nil, time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC))
	event.Attach([]ledger.Entry{
		{AccountID: ledger.AccountPoolCash, MemberID: ledger.IDPtr(3), GroupID: ledger.IDPtr(9), Amount: decimal.RequireFromString("25.00")},
		{AccountID: ledger.AccountMemberPrincipal, MemberID: ledger.IDPtr(3), GroupID: ledger.IDPtr(9), Amount: decimal.RequireFromString("-25.00")},
	})
	payload, _ := json.Marshal(event)
	return &outbox.Message{
		ID:        id,
		EventID:   event.ID,
		EventType: event.Type,
		GroupID:   event.GroupID,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  attempts,
		CreatedAt: event.Timestamp,
	}
}
