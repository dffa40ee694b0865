package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRepository reads the persisted chart of accounts
type AccountRepository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id AccountID) (*Account, error)
}

// EventRepository appends and reads ledger events. Postings are stored separately.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIdempotencyKey returns nil, nil when no event carries the key
	GetByIdempotencyKey(ctx context.Context, key string) (*Event, error)
	Count(ctx context.Context, groupID *int64) (int64, error)
	// CountForMember counts distinct events in [from, to) with a posting for the member in the group
	CountForMember(ctx context.Context, memberID, groupID int64, from, to time.Time) (int64, error)
	ListGroupIDs(ctx context.Context) ([]int64, error)
}

// BalanceQuery filters postings for a balance sum. Nil filters are not applied.
type BalanceQuery struct {
	AccountIDs []AccountID
	GroupID    *int64
	MemberID   *int64
	// Before restricts to postings whose event timestamp is strictly earlier
	Before *time.Time
}

// EventImbalance is an event whose postings do not sum to zero
type EventImbalance struct {
	EventID string          `json:"event_id"`
	Sum     decimal.Decimal `json:"sum"`
}

// PostingRepository persists posting legs and answers balance queries
type PostingRepository interface {
	CreateBatch(ctx context.Context, postings []Posting) error
	ListByEvent(ctx context.Context, eventID string) ([]Posting, error)
	Balance(ctx context.Context, q BalanceQuery) (decimal.Decimal, error)
	// BalancesByMember sums one account per member of a group
	BalancesByMember(ctx context.Context, account AccountID, groupID int64, before *time.Time) (map[int64]decimal.Decimal, error)
	UnbalancedEvents(ctx context.Context) ([]EventImbalance, error)
}

// ArchiveRepository stores committed events as documents for history queries
type ArchiveRepository interface {
	Save(ctx context.Context, event *Event) error
	GetByEventID(ctx context.Context, id string) (*Event, error)
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*Event, error)
	CountByGroup(ctx context.Context, groupID int64) (int64, error)
}
