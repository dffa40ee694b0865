package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/platform/metrics"
)

const (
	CheckEventBalance   = "event_balance"
	CheckPoolBalance    = "pool_balance"
	CheckChartOfAccount = "chart_of_accounts"
)

type EventBalance struct {
	EventID  string          `json:"event_id"`
	Balanced bool            `json:"balanced"`
	Sum      decimal.Decimal `json:"sum"`
	Postings int             `json:"postings"`
}

// PoolCheck compares what the group holds with what it owes.
// Holdings are pool cash plus interest accrued but not yet received as cash.
// Obligations are member principal, allocated earnings and the rounding reserve.
type PoolCheck struct {
	GroupID         int64           `json:"group_id"`
	Balanced        bool            `json:"balanced"`
	PoolCash        decimal.Decimal `json:"pool_cash"`
	AccruedInterest decimal.Decimal `json:"accrued_interest"`
	MemberPrincipal decimal.Decimal `json:"member_principal"`
	MemberEarnings  decimal.Decimal `json:"member_earnings"`
	MemberTotal     decimal.Decimal `json:"member_total"`
	RoundingReserve decimal.Decimal `json:"rounding_reserve"`
	Difference      decimal.Decimal `json:"difference"`
	EventCount      int64           `json:"event_count"`
}

type ReconciliationReport struct {
	GroupID          *int64                  `json:"group_id,omitempty"`
	EventsChecked    int64                   `json:"events_checked"`
	UnbalancedEvents []ledger.EventImbalance `json:"unbalanced_events"`
	GroupChecks      []PoolCheck             `json:"group_checks"`
	Violations       []string                `json:"violations"`
	Passed           bool                    `json:"passed"`
	CheckedAt        time.Time               `json:"checked_at"`
}

// ReconciliationService audits committed history. It never writes.
type ReconciliationService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewReconciliationService(st store.Store, logger *slog.Logger) *ReconciliationService {
	return &ReconciliationService{store: st, logger: logger, now: time.Now}
}

func (s *ReconciliationService) VerifyEventBalance(ctx context.Context, eventID string) (*EventBalance, error) {
	var out *EventBalance
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Events.GetByID(ctx, eventID); err != nil {
			return err
		}
		postings, err := repos.Postings.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		sum := ledger.SumPostings(postings)
		out = &EventBalance{EventID: eventID, Balanced: sum.IsZero(), Sum: sum, Postings: len(postings)}
		return nil
	})
	return out, err
}

// VerifyAllEventsBalance lists every event whose postings do not sum to zero
func (s *ReconciliationService) VerifyAllEventsBalance(ctx context.Context) ([]ledger.EventImbalance, error) {
	var out []ledger.EventImbalance
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = repos.Postings.UnbalancedEvents(ctx)
		return err
	})
	return out, err
}

func (s *ReconciliationService) VerifyPoolEqualsMembers(ctx context.Context, groupID int64) (*PoolCheck, error) {
	var out *PoolCheck
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		out, err = poolCheck(ctx, repos, groupID)
		return err
	})
	return out, err
}

func poolCheck(ctx context.Context, repos store.Repositories, groupID int64) (*PoolCheck, error) {
	balances := make(map[ledger.AccountID]decimal.Decimal, 5)
	for _, account := range []ledger.AccountID{
		ledger.AccountPoolCash,
		ledger.AccountInterestIncome,
		ledger.AccountMemberPrincipal,
		ledger.AccountMemberEarnings,
		ledger.AccountRoundingReserve,
	} {
		b, err := accountBalance(ctx, repos, account, groupID)
		if err != nil {
			return nil, err
		}
		balances[account] = b
	}
	events, err := repos.Events.Count(ctx, ledger.IDPtr(groupID))
	if err != nil {
		return nil, err
	}

	principal := balances[ledger.AccountMemberPrincipal].Abs()
	earnings := balances[ledger.AccountMemberEarnings]
	accrued := balances[ledger.AccountInterestIncome].Neg()
	holdings := balances[ledger.AccountPoolCash].Add(accrued)
	obligations := principal.Add(earnings).Add(balances[ledger.AccountRoundingReserve])
	diff := holdings.Sub(obligations)

	return &PoolCheck{
		GroupID:         groupID,
		Balanced:        diff.IsZero(),
		PoolCash:        balances[ledger.AccountPoolCash],
		AccruedInterest: accrued,
		MemberPrincipal: principal,
		MemberEarnings:  earnings,
		MemberTotal:     principal.Add(earnings),
		RoundingReserve: balances[ledger.AccountRoundingReserve],
		Difference:      diff,
		EventCount:      events,
	}, nil
}

// RunFullReconciliation checks a single group, or every known group when groupID is nil,
// inside one consistent read.
func (s *ReconciliationService) RunFullReconciliation(ctx context.Context, groupID *int64) (*ReconciliationReport, error) {
	log := logger.FromContext(ctx, s.logger)
	report := &ReconciliationReport{
		GroupID:          groupID,
		UnbalancedEvents: []ledger.EventImbalance{},
		GroupChecks:      []PoolCheck{},
		Violations:       []string{},
		CheckedAt:        s.now().UTC(),
	}

	var chartViolations int
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		if report.EventsChecked, err = repos.Events.Count(ctx, groupID); err != nil {
			return err
		}
		unbalanced, err := repos.Postings.UnbalancedEvents(ctx)
		if err != nil {
			return err
		}
		report.UnbalancedEvents = append(report.UnbalancedEvents, unbalanced...)

		violations, err := auditChart(ctx, repos)
		if err != nil {
			return err
		}
		report.Violations = append(report.Violations, violations...)
		chartViolations = len(violations)

		groups, err := groupsToCheck(ctx, repos, groupID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			check, err := poolCheck(ctx, repos, g)
			if err != nil {
				return err
			}
			report.GroupChecks = append(report.GroupChecks, *check)
			if !check.Balanced {
				report.Violations = append(report.Violations,
					fmt.Sprintf("group %d: holdings differ from obligations by %s", g, check.Difference.String()))
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Reconciliation failed", "error", err)
		return nil, fmt.Errorf("failed to run reconciliation: %w", err)
	}

	report.Passed = len(report.UnbalancedEvents) == 0 && len(report.Violations) == 0
	s.record(report, chartViolations)

	if report.Passed {
		log.Info("Reconciliation passed", "events_checked", report.EventsChecked, "groups", len(report.GroupChecks))
	} else {
		log.Warn("Reconciliation found problems",
			"unbalanced_events", len(report.UnbalancedEvents),
			"violations", len(report.Violations),
		)
	}
	return report, nil
}

func (s *ReconciliationService) record(report *ReconciliationReport, chartViolations int) {
	if len(report.UnbalancedEvents) > 0 {
		metrics.ReconciliationFailures.WithLabelValues(CheckEventBalance).Inc()
	}
	for _, c := range report.GroupChecks {
		if !c.Balanced {
			metrics.ReconciliationFailures.WithLabelValues(CheckPoolBalance).Inc()
			break
		}
	}
	if chartViolations > 0 {
		metrics.ReconciliationFailures.WithLabelValues(CheckChartOfAccount).Inc()
	}
}

func groupsToCheck(ctx context.Context, repos store.Repositories, groupID *int64) ([]int64, error) {
	if groupID != nil {
		return []int64{*groupID}, nil
	}
	seen := make(map[int64]struct{})
	registered, err := repos.Directory.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range registered {
		seen[g.ID] = struct{}{}
	}
	posted, err := repos.Events.ListGroupIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range posted {
		seen[id] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// auditChart compares the persisted accounts with the fixed chart
func auditChart(ctx context.Context, repos store.Repositories) ([]string, error) {
	persisted, err := repos.Accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[ledger.AccountID]ledger.Account, len(persisted))
	for _, a := range persisted {
		byID[a.ID] = a
	}

	var violations []string
	for _, want := range ledger.ChartOfAccounts() {
		got, ok := byID[want.ID]
		if !ok {
			violations = append(violations, fmt.Sprintf("account %s is missing", want.ID))
			continue
		}
		if got.Type != want.Type {
			violations = append(violations, fmt.Sprintf("account %s has type %s, expected %s", want.ID, got.Type, want.Type))
		}
		delete(byID, want.ID)
	}
	extra := make([]string, 0, len(byID))
	for id := range byID {
		extra = append(extra, string(id))
	}
	sort.Strings(extra)
	for _, id := range extra {
		violations = append(violations, fmt.Sprintf("account %s is not part of the chart", id))
	}
	return violations, nil
}
