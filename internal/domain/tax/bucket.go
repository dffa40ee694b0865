package tax

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is the year-to-date rollup for one (member, group, year)
type Bucket struct {
	ID                 string          `json:"id"`
	MemberID           int64           `json:"member_id"`
	GroupID            int64           `json:"group_id"`
	TaxYear            int             `json:"tax_year"`
	TaxableInterest    decimal.Decimal `json:"taxable_interest"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	TotalWithdrawals   decimal.Decimal `json:"total_withdrawals"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// BucketDelta is an increment applied to a bucket. Zero fields leave the figure unchanged.
type BucketDelta struct {
	TaxableInterest decimal.Decimal
	Contributions   decimal.Decimal
	Withdrawals     decimal.Decimal
}

// EmptyBucket is the zero-valued rollup reported when no activity exists yet.
func EmptyBucket(memberID, groupID int64, year int) Bucket {
	return Bucket{
		MemberID:           memberID,
		GroupID:            groupID,
		TaxYear:            year,
		TaxableInterest:    decimal.Zero,
		TotalContributions: decimal.Zero,
		TotalWithdrawals:   decimal.Zero,
	}
}

// BucketRepository maintains buckets incrementally
type BucketRepository interface {
	// Apply adds delta to the bucket, creating it at zero first if missing
	Apply(ctx context.Context, memberID, groupID int64, year int, delta BucketDelta, at time.Time) error
	// Get returns nil, nil when the bucket does not exist
	Get(ctx context.Context, memberID, groupID int64, year int) (*Bucket, error)
	ListForMemberYear(ctx context.Context, memberID int64, year int) ([]Bucket, error)
}
