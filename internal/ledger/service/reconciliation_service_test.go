package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
)

func TestReconciliation_DetectsTampering(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	clean := f.deposit(t, 1, "50.00")
	ev := f.deposit(t, 1, "100.00")

	_, err := f.db.ExecContext(ctx,
		`UPDATE ledger_postings SET amount = '100.01' WHERE event_id = ? AND account_id = 'pool_cash'`, ev.ID)
	require.NoError(t, err)

	unbalanced, err := f.svc.Reconciliation.VerifyAllEventsBalance(ctx)
	require.NoError(t, err)
	require.Len(t, unbalanced, 1)
	assert.Equal(t, ev.ID, unbalanced[0].EventID)
	assert.True(t, unbalanced[0].Sum.Equal(dec("0.01")))

	t.Run("SingleEvent", func(t *testing.T) {
		res, err := f.svc.Reconciliation.VerifyEventBalance(ctx, ev.ID)
		require.NoError(t, err)
		assert.False(t, res.Balanced)
		assert.True(t, res.Sum.Equal(dec("0.01")))

		res, err = f.svc.Reconciliation.VerifyEventBalance(ctx, clean.ID)
		require.NoError(t, err)
		assert.True(t, res.Balanced)
		assert.Equal(t, 2, res.Postings)
	})

	t.Run("FullRun", func(t *testing.T) {
		report, err := f.svc.Reconciliation.RunFullReconciliation(ctx, nil)
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.Len(t, report.UnbalancedEvents, 1)
		require.Len(t, report.GroupChecks, 1)
		assert.False(t, report.GroupChecks[0].Balanced)
		assert.True(t, report.GroupChecks[0].Difference.Equal(dec("0.01")))
		assert.Len(t, report.Violations, 1)
	})
}

func TestReconciliation_UnknownEvent(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Reconciliation.VerifyEventBalance(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, ledger.ErrEventNotFound{})
}

func TestReconciliation_PoolEqualsMembers(t *testing.T) {
	f := newFixture(t, 1, 2)
	ctx := context.Background()

	f.deposit(t, 1, "120.00")
	f.deposit(t, 2, "80.00")
	f.clock.Set(day(2))
	f.accrue(t, day(2), "7.77")
	f.withdraw(t, 2, "30.00")

	check, err := f.svc.Reconciliation.VerifyPoolEqualsMembers(ctx, groupID)
	require.NoError(t, err)
	assert.True(t, check.Balanced, "difference %s", check.Difference)
	assert.True(t, check.PoolCash.Equal(dec("170.00")))
	assert.True(t, check.MemberPrincipal.Equal(dec("170.00")))
	assert.True(t, check.AccruedInterest.Equal(dec("7.77")))
	assert.True(t, check.MemberTotal.Equal(check.MemberPrincipal.Add(check.MemberEarnings)))
	assert.Equal(t, int64(4), check.EventCount)
}

func TestReconciliation_ScopedToGroup(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	require.NoError(t, f.store.Directory().SaveGroup(ctx, membership.Group{ID: 2, Name: "Hillside"}))
	require.NoError(t, f.store.Directory().SetMembership(ctx, 2, 1, true))

	f.deposit(t, 1, "10.00")

	all, err := f.svc.Reconciliation.RunFullReconciliation(ctx, nil)
	require.NoError(t, err)
	assert.True(t, all.Passed)
	assert.Len(t, all.GroupChecks, 2)

	other := int64(2)
	scoped, err := f.svc.Reconciliation.RunFullReconciliation(ctx, &other)
	require.NoError(t, err)
	assert.True(t, scoped.Passed)
	assert.Zero(t, scoped.EventsChecked)
	require.Len(t, scoped.GroupChecks, 1)
	assert.Equal(t, int64(2), scoped.GroupChecks[0].GroupID)
}

func TestReconciliation_ChartAudit(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.db.ExecContext(ctx, `UPDATE ledger_accounts SET type = 'asset' WHERE id = 'fee_income'`)
	require.NoError(t, err)

	report, err := f.svc.Reconciliation.RunFullReconciliation(ctx, nil)
	require.NoError(t, err)
	assert.False(t, report.Passed)
	require.Len(t, report.Violations, 1)
	assert.Contains(t, report.Violations[0], "fee_income")
	assert.Empty(t, report.UnbalancedEvents)
}
