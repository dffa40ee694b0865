package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/money"
)

type TaxAggregatorImpl struct {
	logger *slog.Logger
}

func NewTaxAggregator(logger *slog.Logger) service.TaxAggregator {
	return &TaxAggregatorImpl{logger: logger}
}

func (a *TaxAggregatorImpl) RecordContribution(ctx context.Context, repos store.Repositories, memberID, groupID int64, amount decimal.Decimal, at time.Time) error {
	year := at.UTC().Year()
	if err := repos.TaxBuckets.Apply(ctx, memberID, groupID, year, tax.BucketDelta{Contributions: amount}, at); err != nil {
		return fmt.Errorf("failed to record contribution for member %d: %w", memberID, err)
	}
	return nil
}

func (a *TaxAggregatorImpl) RecordWithdrawal(ctx context.Context, repos store.Repositories, memberID, groupID int64, amount decimal.Decimal, at time.Time) error {
	year := at.UTC().Year()
	if err := repos.TaxBuckets.Apply(ctx, memberID, groupID, year, tax.BucketDelta{Withdrawals: amount}, at); err != nil {
		return fmt.Errorf("failed to record withdrawal for member %d: %w", memberID, err)
	}
	return nil
}

// RecordInterest books each allocation, rounded to cents, against the accrual date's tax year
func (a *TaxAggregatorImpl) RecordInterest(ctx context.Context, repos store.Repositories, groupID int64, allocations []share.Allocation, accrualDate, at time.Time) error {
	year := accrualDate.UTC().Year()
	for _, alloc := range allocations {
		reportable := money.ToCurrency(alloc.Amount)
		if reportable.IsZero() {
			continue
		}
		delta := tax.BucketDelta{TaxableInterest: reportable}
		if err := repos.TaxBuckets.Apply(ctx, alloc.MemberID, groupID, year, delta, at); err != nil {
			return fmt.Errorf("failed to record interest for member %d: %w", alloc.MemberID, err)
		}
	}
	return nil
}
