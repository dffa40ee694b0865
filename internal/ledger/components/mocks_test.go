package components

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/domain/tax"
)

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(ctx context.Context, event *ledger.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventRepo) GetByID(ctx context.Context, id string) (*ledger.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Event), args.Error(1)
}

func (m *MockEventRepo) GetByIdempotencyKey(ctx context.Context, key string) (*ledger.Event, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Event), args.Error(1)
}

func (m *MockEventRepo) Count(ctx context.Context, groupID *int64) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepo) CountForMember(ctx context.Context, memberID, groupID int64, from, to time.Time) (int64, error) {
	args := m.Called(ctx, memberID, groupID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepo) ListGroupIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

type MockPostingRepo struct {
	mock.Mock
}

func (m *MockPostingRepo) CreateBatch(ctx context.Context, postings []ledger.Posting) error {
	return m.Called(ctx, postings).Error(0)
}

func (m *MockPostingRepo) ListByEvent(ctx context.Context, eventID string) ([]ledger.Posting, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).([]ledger.Posting), args.Error(1)
}

func (m *MockPostingRepo) Balance(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPostingRepo) BalancesByMember(ctx context.Context, account ledger.AccountID, groupID int64, before *time.Time) (map[int64]decimal.Decimal, error) {
	args := m.Called(ctx, account, groupID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]decimal.Decimal), args.Error(1)
}

func (m *MockPostingRepo) UnbalancedEvents(ctx context.Context) ([]ledger.EventImbalance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ledger.EventImbalance), args.Error(1)
}

type MockShareRepo struct {
	mock.Mock
}

func (m *MockShareRepo) Upsert(ctx context.Context, s *share.MemberShare) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShareRepo) InsertIfAbsent(ctx context.Context, s *share.MemberShare) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareRepo) ListByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]share.MemberShare, error) {
	args := m.Called(ctx, groupID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]share.MemberShare), args.Error(1)
}

type MockBucketRepo struct {
	mock.Mock
}

func (m *MockBucketRepo) Apply(ctx context.Context, memberID, groupID int64, year int, delta tax.BucketDelta, at time.Time) error {
	return m.Called(ctx, memberID, groupID, year, delta, at).Error(0)
}

func (m *MockBucketRepo) Get(ctx context.Context, memberID, groupID int64, year int) (*tax.Bucket, error) {
	args := m.Called(ctx, memberID, groupID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tax.Bucket), args.Error(1)
}

func (m *MockBucketRepo) ListForMemberYear(ctx context.Context, memberID int64, year int) ([]tax.Bucket, error) {
	args := m.Called(ctx, memberID, year)
	return args.Get(0).([]tax.Bucket), args.Error(1)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepo) GetByEventID(ctx context.Context, eventID string) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetGroup(ctx context.Context, id int64) (*membership.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Group), args.Error(1)
}

func (m *MockDirectory) ListGroups(ctx context.Context) ([]membership.Group, error) {
	args := m.Called(ctx)
	return args.Get(0).([]membership.Group), args.Error(1)
}

func (m *MockDirectory) GetMember(ctx context.Context, id int64) (*membership.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Member), args.Error(1)
}

func (m *MockDirectory) ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDirectory) IsActiveMember(ctx context.Context, memberID, groupID int64) (bool, error) {
	args := m.Called(ctx, memberID, groupID)
	return args.Bool(0), args.Error(1)
}
