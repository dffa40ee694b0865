package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/money"
	"github.com/pooled-savings-ledger/internal/platform/metrics"
)

const (
	OperationDeposit    = "deposit"
	OperationWithdrawal = "withdrawal"
	OperationAccrual    = "interest_accrual"
	OperationCorrection = "correction"
)

// DepositRequest moves cash into the pool on behalf of a member
type DepositRequest struct {
	MemberID       int64
	GroupID        int64
	Amount         decimal.Decimal
	Ref            string
	CreatedBy      *int64
	IdempotencyKey string
}

// WithdrawalRequest returns principal to a member
type WithdrawalRequest struct {
	MemberID       int64
	GroupID        int64
	Amount         decimal.Decimal
	Ref            string
	CreatedBy      *int64
	IdempotencyKey string
}

type AccrualRequest struct {
	GroupID        int64
	AccrualDate    time.Time
	TotalInterest  decimal.Decimal
	Ref            string
	CreatedBy      *int64
	IdempotencyKey string
}

// CorrectionRequest posts an arbitrary balanced entry set. CorrectsEventID is optional
// but must reference an existing event when set.
type CorrectionRequest struct {
	GroupID         *int64
	Entries         []ledger.Entry
	Reason          string
	CorrectsEventID string
	Ref             string
	CreatedBy       *int64
	IdempotencyKey  string
}

// Position is a member's standing in one group
type Position struct {
	MemberID     int64           `json:"member_id"`
	GroupID      int64           `json:"group_id"`
	Principal    decimal.Decimal `json:"principal"`
	Earnings     decimal.Decimal `json:"earnings"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	TaxYear      int             `json:"tax_year"`
	TaxBucket    tax.Bucket      `json:"tax_bucket"`
}

// posting describes the event a write operation wants committed and the derived
// state it has to update in the same transaction
type posting struct {
	event   *ledger.Event
	entries []ledger.Entry
	after   func(ctx context.Context, repos store.Repositories, event *ledger.Event) error
}

type LedgerService struct {
	store     store.Store
	poster    PostingEngine
	snapshots SnapshotEngine
	taxes     TaxAggregator
	outbox    OutboxRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewLedgerService(
	st store.Store,
	poster PostingEngine,
	snapshots SnapshotEngine,
	taxes TaxAggregator,
	outbox OutboxRecorder,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		store:     st,
		poster:    poster,
		snapshots: snapshots,
		taxes:     taxes,
		outbox:    outbox,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for event timestamps and snapshot dates
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ledger.ErrInvalidAmount{Amount: amount, Reason: "must be positive"}
	}
	if !money.FitsScale(amount) {
		return ledger.ErrInvalidAmount{Amount: amount, Reason: "exceeds internal precision"}
	}
	return nil
}

// RecordDeposit credits the pool and the member's principal liability
func (s *LedgerService) RecordDeposit(ctx context.Context, req DepositRequest) (*ledger.Event, error) {
	member, group := ledger.IDPtr(req.MemberID), ledger.IDPtr(req.GroupID)

	return s.commit(ctx, OperationDeposit, []int64{req.GroupID}, req.IdempotencyKey,
		func(ctx context.Context, repos store.Repositories, now time.Time) (*posting, error) {
			if err := requirePositive(req.Amount); err != nil {
				return nil, err
			}
			if _, err := repos.Directory.GetGroup(ctx, req.GroupID); err != nil {
				return nil, err
			}
			active, err := repos.Directory.IsActiveMember(ctx, req.MemberID, req.GroupID)
			if err != nil {
				return nil, err
			}
			if !active {
				return nil, membership.ErrMemberNotInGroup{MemberID: req.MemberID, GroupID: req.GroupID}
			}

			meta := ledger.Metadata{
				"member_id": req.MemberID,
				"group_id":  req.GroupID,
				"amount":    money.FormatExact(req.Amount),
			}
			return &posting{
				event: ledger.NewEvent(ledger.EventTypeDeposit, req.Ref, meta, group, req.CreatedBy, now),
				entries: []ledger.Entry{
					{AccountID: ledger.AccountPoolCash, MemberID: member, GroupID: group, Amount: req.Amount},
					{AccountID: ledger.AccountMemberPrincipal, MemberID: member, GroupID: group, Amount: req.Amount.Neg()},
				},
				after: func(ctx context.Context, repos store.Repositories, event *ledger.Event) error {
					if err := s.snapshots.RefreshGroup(ctx, repos, req.GroupID, req.MemberID, now); err != nil {
						return err
					}
					return s.taxes.RecordContribution(ctx, repos, req.MemberID, req.GroupID, req.Amount, event.Timestamp)
				},
			}, nil
		})
}

// RecordWithdrawal pays principal back out of the pool. The balance check runs under the
// group lock so concurrent withdrawals cannot both pass against a stale balance.
func (s *LedgerService) RecordWithdrawal(ctx context.Context, req WithdrawalRequest) (*ledger.Event, error) {
	member, group := ledger.IDPtr(req.MemberID), ledger.IDPtr(req.GroupID)

	return s.commit(ctx, OperationWithdrawal, []int64{req.GroupID}, req.IdempotencyKey,
		func(ctx context.Context, repos store.Repositories, now time.Time) (*posting, error) {
			if err := requirePositive(req.Amount); err != nil {
				return nil, err
			}
			available, err := memberPrincipal(ctx, repos, req.MemberID, req.GroupID)
			if err != nil {
				return nil, err
			}
			if req.Amount.GreaterThan(available) {
				return nil, ledger.ErrInsufficientFunds{
					MemberID:  req.MemberID,
					GroupID:   req.GroupID,
					Requested: req.Amount,
					Available: available,
				}
			}

			meta := ledger.Metadata{
				"member_id": req.MemberID,
				"group_id":  req.GroupID,
				"amount":    money.FormatExact(req.Amount),
			}
			return &posting{
				event: ledger.NewEvent(ledger.EventTypeWithdrawal, req.Ref, meta, group, req.CreatedBy, now),
				entries: []ledger.Entry{
					{AccountID: ledger.AccountPoolCash, MemberID: member, GroupID: group, Amount: req.Amount.Neg()},
					{AccountID: ledger.AccountMemberPrincipal, MemberID: member, GroupID: group, Amount: req.Amount},
				},
				after: func(ctx context.Context, repos store.Repositories, event *ledger.Event) error {
					if err := s.snapshots.RefreshGroup(ctx, repos, req.GroupID, req.MemberID, now); err != nil {
						return err
					}
					return s.taxes.RecordWithdrawal(ctx, repos, req.MemberID, req.GroupID, req.Amount, event.Timestamp)
				},
			}, nil
		})
}

// AccrueInterest distributes interest by the ownership shares recorded for the day before
// the accrual date. Whatever per-member rounding leaves over goes to the rounding reserve.
func (s *LedgerService) AccrueInterest(ctx context.Context, req AccrualRequest) (*ledger.Event, error) {
	group := ledger.IDPtr(req.GroupID)
	accrualDate := share.DateOf(req.AccrualDate)
	priorDate := accrualDate.AddDate(0, 0, -1)

	return s.commit(ctx, OperationAccrual, []int64{req.GroupID}, req.IdempotencyKey,
		func(ctx context.Context, repos store.Repositories, now time.Time) (*posting, error) {
			if err := requirePositive(req.TotalInterest); err != nil {
				return nil, err
			}
			if _, err := repos.Directory.GetGroup(ctx, req.GroupID); err != nil {
				return nil, err
			}

			shares, err := s.snapshots.EnsureForDate(ctx, repos, req.GroupID, priorDate, now)
			if err != nil {
				return nil, err
			}
			allocations, remainder := share.Allocate(req.TotalInterest, shares)

			entries := make([]ledger.Entry, 0, 2*len(allocations)+2)
			for _, a := range allocations {
				if a.Amount.IsZero() {
					continue
				}
				member := ledger.IDPtr(a.MemberID)
				entries = append(entries,
					ledger.Entry{AccountID: ledger.AccountInterestIncome, MemberID: member, GroupID: group, Amount: a.Amount.Neg()},
					ledger.Entry{AccountID: ledger.AccountMemberEarnings, MemberID: member, GroupID: group, Amount: a.Amount},
				)
			}
			if !remainder.IsZero() {
				entries = append(entries,
					ledger.Entry{AccountID: ledger.AccountInterestIncome, GroupID: group, Amount: remainder.Neg()},
					ledger.Entry{AccountID: ledger.AccountRoundingReserve, GroupID: group, Amount: remainder},
				)
			}

			meta := ledger.Metadata{
				"group_id":       req.GroupID,
				"accrual_date":   accrualDate.Format(share.DateLayout),
				"share_date":     priorDate.Format(share.DateLayout),
				"total_interest": money.FormatExact(req.TotalInterest),
				"member_count":   len(shares),
				"remainder":      money.FormatExact(remainder),
			}
			return &posting{
				event:   ledger.NewEvent(ledger.EventTypeInterestAccrual, req.Ref, meta, group, req.CreatedBy, now),
				entries: entries,
				after: func(ctx context.Context, repos store.Repositories, event *ledger.Event) error {
					return s.taxes.RecordInterest(ctx, repos, req.GroupID, allocations, accrualDate, event.Timestamp)
				},
			}, nil
		})
}

// PostCorrection posts a balanced adjustment as a new correction event. Every group the
// entries touch is locked, and share snapshots follow any change to member principal.
func (s *LedgerService) PostCorrection(ctx context.Context, req CorrectionRequest) (*ledger.Event, error) {
	groups := correctionGroups(req)

	return s.commit(ctx, OperationCorrection, groups, req.IdempotencyKey,
		func(ctx context.Context, repos store.Repositories, now time.Time) (*posting, error) {
			if req.CorrectsEventID != "" {
				if _, err := repos.Events.GetByID(ctx, req.CorrectsEventID); err != nil {
					return nil, err
				}
			}

			meta := ledger.Metadata{"reason": req.Reason}
			if req.CorrectsEventID != "" {
				meta["corrects_event_id"] = req.CorrectsEventID
			}
			return &posting{
				event:   ledger.NewEvent(ledger.EventTypeCorrection, req.Ref, meta, req.GroupID, req.CreatedBy, now),
				entries: req.Entries,
				after: func(ctx context.Context, repos store.Repositories, event *ledger.Event) error {
					touched := make(map[int64]int64)
					for _, e := range req.Entries {
						if e.AccountID == ledger.AccountMemberPrincipal && e.GroupID != nil && e.MemberID != nil {
							touched[*e.GroupID] = *e.MemberID
						}
					}
					for _, g := range groups {
						memberID, ok := touched[g]
						if !ok {
							continue
						}
						if err := s.snapshots.RefreshGroup(ctx, repos, g, memberID, now); err != nil {
							return err
						}
					}
					return nil
				},
			}, nil
		})
}

func correctionGroups(req CorrectionRequest) []int64 {
	seen := make(map[int64]struct{})
	if req.GroupID != nil {
		seen[*req.GroupID] = struct{}{}
	}
	for _, e := range req.Entries {
		if e.GroupID != nil {
			seen[*e.GroupID] = struct{}{}
		}
	}
	groups := make([]int64, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	// fixed order so two corrections over the same groups cannot deadlock
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// commit runs one write operation as a single transaction: lock the groups, honour the
// idempotency key, build and post the event, update derived state, queue the outbox row.
func (s *LedgerService) commit(
	ctx context.Context,
	operation string,
	groups []int64,
	idempotencyKey string,
	build func(ctx context.Context, repos store.Repositories, now time.Time) (*posting, error),
) (*ledger.Event, error) {
	started := time.Now()
	log := logger.FromContext(ctx, s.logger).With("operation", operation)

	var (
		result   *ledger.Event
		replayed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		for _, g := range groups {
			if err := repos.Locker.LockGroup(ctx, g); err != nil {
				return err
			}
		}

		if idempotencyKey != "" {
			existing, err := repos.Events.GetByIdempotencyKey(ctx, idempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				postings, err := repos.Postings.ListByEvent(ctx, existing.ID)
				if err != nil {
					return err
				}
				existing.Postings = postings
				result, replayed = existing, true
				return nil
			}
		}

		now := s.now()
		p, err := build(ctx, repos, now)
		if err != nil {
			return err
		}
		p.event.IdempotencyKey = idempotencyKey

		if err := s.poster.Post(ctx, repos, p.event, p.entries); err != nil {
			return err
		}
		if p.after != nil {
			if err := p.after(ctx, repos, p.event); err != nil {
				return err
			}
		}
		if err := s.outbox.Record(ctx, repos, p.event, now); err != nil {
			return err
		}
		result = p.event
		return nil
	})

	switch {
	case err != nil && IsRejection(err):
		log.Warn("Ledger operation rejected", "error", err)
		metrics.ObserveOperation(operation, metrics.OutcomeRejected, started)
		return nil, err
	case err != nil:
		log.Error("Ledger operation failed", "error", err)
		metrics.ObserveOperation(operation, metrics.OutcomeFailed, started)
		return nil, fmt.Errorf("failed to record %s: %w", operation, err)
	case replayed:
		log.Info("Idempotency key already used, returning original event",
			"event_id", result.ID,
			"idempotency_key", idempotencyKey,
		)
		metrics.ObserveOperation(operation, metrics.OutcomeReplayed, started)
		return result, nil
	}

	metrics.EventsCommitted.WithLabelValues(string(result.Type)).Inc()
	metrics.ObserveOperation(operation, metrics.OutcomeCommitted, started)
	log.Info("Ledger event committed",
		"event_id", result.ID,
		"event_type", result.Type,
		"postings", len(result.Postings),
	)
	return result, nil
}

// GetEvent returns the event with its postings
func (s *LedgerService) GetEvent(ctx context.Context, id string) (*ledger.Event, error) {
	var event *ledger.Event
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		e, err := repos.Events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.Postings, err = repos.Postings.ListByEvent(ctx, id); err != nil {
			return err
		}
		event = e
		return nil
	})
	return event, err
}

func memberPrincipal(ctx context.Context, repos store.Repositories, memberID, groupID int64) (decimal.Decimal, error) {
	sum, err := repos.Postings.Balance(ctx, ledger.BalanceQuery{
		AccountIDs: []ledger.AccountID{ledger.AccountMemberPrincipal},
		GroupID:    ledger.IDPtr(groupID),
		MemberID:   ledger.IDPtr(memberID),
	})
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Abs(), nil
}

func memberEarnings(ctx context.Context, repos store.Repositories, memberID, groupID int64) (decimal.Decimal, error) {
	return repos.Postings.Balance(ctx, ledger.BalanceQuery{
		AccountIDs: []ledger.AccountID{ledger.AccountMemberEarnings},
		GroupID:    ledger.IDPtr(groupID),
		MemberID:   ledger.IDPtr(memberID),
	})
}

func accountBalance(ctx context.Context, repos store.Repositories, account ledger.AccountID, groupID int64) (decimal.Decimal, error) {
	return repos.Postings.Balance(ctx, ledger.BalanceQuery{
		AccountIDs: []ledger.AccountID{account},
		GroupID:    ledger.IDPtr(groupID),
	})
}

// GetMemberPrincipal is the absolute value of the member's principal postings in the group
func (s *LedgerService) GetMemberPrincipal(ctx context.Context, memberID, groupID int64) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = memberPrincipal(ctx, repos, memberID, groupID)
		return err
	})
	return out, err
}

func (s *LedgerService) GetMemberEarnings(ctx context.Context, memberID, groupID int64) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = memberEarnings(ctx, repos, memberID, groupID)
		return err
	})
	return out, err
}

func (s *LedgerService) GetPoolBalance(ctx context.Context, groupID int64) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = accountBalance(ctx, repos, ledger.AccountPoolCash, groupID)
		return err
	})
	return out, err
}

// GetMemberPosition combines balances with the current year's tax bucket. A member with
// no activity this year gets a zero bucket.
func (s *LedgerService) GetMemberPosition(ctx context.Context, memberID, groupID int64) (*Position, error) {
	year := s.now().UTC().Year()
	var pos *Position
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		p, err := position(ctx, repos, memberID, groupID, year)
		pos = p
		return err
	})
	return pos, err
}

func position(ctx context.Context, repos store.Repositories, memberID, groupID int64, year int) (*Position, error) {
	principal, err := memberPrincipal(ctx, repos, memberID, groupID)
	if err != nil {
		return nil, err
	}
	earnings, err := memberEarnings(ctx, repos, memberID, groupID)
	if err != nil {
		return nil, err
	}
	bucket, err := repos.TaxBuckets.Get(ctx, memberID, groupID, year)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		empty := tax.EmptyBucket(memberID, groupID, year)
		bucket = &empty
	}
	return &Position{
		MemberID:     memberID,
		GroupID:      groupID,
		Principal:    principal,
		Earnings:     earnings,
		TotalBalance: principal.Add(earnings),
		TaxYear:      year,
		TaxBucket:    *bucket,
	}, nil
}
