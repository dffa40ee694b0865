// Package share models dated member ownership of a group's pool and the
// allocation of pooled interest by those ownership ratios.
package share

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/money"
)

// DateLayout is the canonical rendering of snapshot and accrual dates
const DateLayout = "2006-01-02"

// MemberShare is a member's fractional claim on the pool as of one date
type MemberShare struct {
	ID              string          `json:"id"`
	SnapshotDate    time.Time       `json:"snapshot_date"`
	MemberID        int64           `json:"member_id"`
	GroupID         int64           `json:"group_id"`
	PoolPrincipal   decimal.Decimal `json:"pool_principal"`
	MemberPrincipal decimal.Decimal `json:"member_principal"`
	Share           decimal.Decimal `json:"share"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Allocation is one member's cut of an interest accrual at internal precision
type Allocation struct {
	MemberID int64
	Share    decimal.Decimal
	Amount   decimal.Decimal
}

// Repository persists snapshots keyed by (date, member, group)
type Repository interface {
	// Upsert replaces the figures of an existing snapshot for the same key
	Upsert(ctx context.Context, s *MemberShare) error
	// InsertIfAbsent leaves an existing snapshot untouched and reports whether it wrote
	InsertIfAbsent(ctx context.Context, s *MemberShare) (bool, error)
	ListByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]MemberShare, error)
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeShare returns memberPrincipal/poolPrincipal at share precision, or zero for an empty pool.
func ComputeShare(memberPrincipal, poolPrincipal decimal.Decimal) decimal.Decimal {
	if poolPrincipal.IsZero() {
		return decimal.Zero
	}
	return money.RoundHalfToEven(memberPrincipal.Div(poolPrincipal), money.ShareScale)
}

// NewMemberShare builds a snapshot for date with the share derived from the two principals.
func NewMemberShare(id string, date time.Time, memberID, groupID int64, memberPrincipal, poolPrincipal decimal.Decimal, now time.Time) *MemberShare {
	return &MemberShare{
		ID:              id,
		SnapshotDate:    DateOf(date),
		MemberID:        memberID,
		GroupID:         groupID,
		PoolPrincipal:   poolPrincipal,
		MemberPrincipal: memberPrincipal,
		Share:           ComputeShare(memberPrincipal, poolPrincipal),
		CreatedAt:       now.UTC().Truncate(time.Microsecond),
	}
}

// Allocate splits total across the snapshots by share, rounding each cut to
// internal precision. The remainder is whatever the rounded cuts leave of total,
// so the allocations plus the remainder always equal total exactly.
// Allocations are ordered by member id.
func Allocate(total decimal.Decimal, shares []MemberShare) ([]Allocation, decimal.Decimal) {
	ordered := make([]MemberShare, len(shares))
	copy(ordered, shares)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MemberID < ordered[j].MemberID })

	allocations := make([]Allocation, 0, len(ordered))
	allocated := decimal.Zero
	for _, s := range ordered {
		amount := money.Quantize(total.Mul(s.Share))
		allocated = allocated.Add(amount)
		allocations = append(allocations, Allocation{MemberID: s.MemberID, Share: s.Share, Amount: amount})
	}
	return allocations, total.Sub(allocated)
}
