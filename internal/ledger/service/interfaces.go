package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/store"
)

// PostingEngine validates a posting set and persists it together with its event.
// Nothing is written when validation fails.
type PostingEngine interface {
	Post(ctx context.Context, repos store.Repositories, event *ledger.Event, entries []ledger.Entry) error
}

// SnapshotEngine maintains the dated share snapshots used for interest allocation
type SnapshotEngine interface {
	// RefreshGroup rewrites today's snapshots for every member of the group after a principal change
	RefreshGroup(ctx context.Context, repos store.Repositories, groupID, memberID int64, now time.Time) error
	// EnsureForDate returns the group's snapshots for date, generating them from
	// end-of-day balances when none exist yet
	EnsureForDate(ctx context.Context, repos store.Repositories, groupID int64, date, now time.Time) ([]share.MemberShare, error)
}

// TaxAggregator keeps year-to-date tax buckets current
type TaxAggregator interface {
	RecordContribution(ctx context.Context, repos store.Repositories, memberID, groupID int64, amount decimal.Decimal, at time.Time) error
	RecordWithdrawal(ctx context.Context, repos store.Repositories, memberID, groupID int64, amount decimal.Decimal, at time.Time) error
	RecordInterest(ctx context.Context, repos store.Repositories, groupID int64, allocations []share.Allocation, accrualDate, at time.Time) error
}

// OutboxRecorder queues a committed event for archiving and publishing
type OutboxRecorder interface {
	Record(ctx context.Context, repos store.Repositories, event *ledger.Event, now time.Time) error
}
