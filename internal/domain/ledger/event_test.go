package ledger

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartOfAccounts(t *testing.T) {
	accounts := ChartOfAccounts()
	require.Len(t, accounts, 7)

	expected := map[AccountID]AccountType{
		AccountPoolCash:         AccountTypeAsset,
		AccountMemberPrincipal:  AccountTypeLiability,
		AccountMemberEarnings:   AccountTypeLiability,
		AccountInterestIncome:   AccountTypeIncome,
		AccountFeeIncome:        AccountTypeIncome,
		AccountRoundingReserve:  AccountTypeLiability,
		AccountOperatingExpense: AccountTypeExpense,
	}
	for _, a := range accounts {
		assert.Equal(t, expected[a.ID], a.Type, "account %s", a.ID)
		assert.True(t, a.IsActive)
	}

	t.Run("CopyIsIndependent", func(t *testing.T) {
		accounts[0].Name = "changed"
		again := ChartOfAccounts()
		assert.Equal(t, "Pool Cash", again[0].Name)
	})

	t.Run("Lookup", func(t *testing.T) {
		a, ok := LookupAccount(AccountRoundingReserve)
		assert.True(t, ok)
		assert.Equal(t, AccountTypeLiability, a.Type)
		_, ok = LookupAccount("petty_cash")
		assert.False(t, ok)
	})
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 3, 2, 10, 11, 12, 123456789, time.FixedZone("X", 3600))
	ev := NewEvent(EventTypeDeposit, "ref-1", nil, IDPtr(7), nil, now)

	assert.True(t, strings.HasPrefix(ev.ID, "evt_"))
	assert.Len(t, ev.ID, len("evt_")+12)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.Equal(t, 123456000, ev.Timestamp.Nanosecond())
	assert.NotNil(t, ev.Meta)
	assert.Equal(t, int64(7), *ev.GroupID)
	assert.Nil(t, ev.CreatedBy)
}

func TestEventType_IsValid(t *testing.T) {
	for _, et := range []EventType{EventTypeDeposit, EventTypeWithdrawal, EventTypeInterestAccrual,
		EventTypeCorrection, EventTypePayout, EventTypeFee, EventTypeTransfer} {
		assert.True(t, et.IsValid(), string(et))
	}
	assert.False(t, EventType("refund").IsValid())
}

func TestValidateEntries(t *testing.T) {
	amt := decimal.RequireFromString

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, ValidateEntries(nil), ErrEmptyPostingSet)
	})

	t.Run("Balanced", func(t *testing.T) {
		err := ValidateEntries([]Entry{
			{AccountID: AccountPoolCash, Amount: amt("100.00")},
			{AccountID: AccountMemberPrincipal, Amount: amt("-100.00")},
		})
		assert.NoError(t, err)
	})

	t.Run("Imbalanced", func(t *testing.T) {
		err := ValidateEntries([]Entry{
			{AccountID: AccountPoolCash, Amount: amt("100.00")},
			{AccountID: AccountMemberPrincipal, Amount: amt("-99.999999")},
		})
		var imbalance ErrLedgerImbalance
		require.True(t, errors.As(err, &imbalance))
		assert.True(t, imbalance.Sum.Equal(amt("0.000001")))
		assert.ErrorIs(t, err, ErrLedgerImbalance{})
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		err := ValidateEntries([]Entry{
			{AccountID: "petty_cash", Amount: amt("1")},
			{AccountID: AccountPoolCash, Amount: amt("-1")},
		})
		assert.ErrorIs(t, err, ErrUnknownAccount{})
	})

	t.Run("TooPrecise", func(t *testing.T) {
		err := ValidateEntries([]Entry{
			{AccountID: AccountPoolCash, Amount: amt("0.0000001")},
			{AccountID: AccountMemberPrincipal, Amount: amt("-0.0000001")},
		})
		assert.ErrorIs(t, err, ErrInvalidAmount{})
	})
}

func TestValidateEntries_RandomSets(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	accounts := ChartOfAccounts()

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(6)
		entries := make([]Entry, 0, n+1)
		total := decimal.Zero
		for j := 0; j < n; j++ {
			a := decimal.New(rng.Int63n(2_000_000_000)-1_000_000_000, -6)
			total = total.Add(a)
			entries = append(entries, Entry{AccountID: accounts[rng.Intn(len(accounts))].ID, Amount: a})
		}
		balanced := append(entries, Entry{AccountID: AccountRoundingReserve, Amount: total.Neg()})
		require.NoError(t, ValidateEntries(balanced), "iteration %d", i)

		skewed := append([]Entry{}, balanced...)
		skewed[0].Amount = skewed[0].Amount.Add(decimal.New(1+rng.Int63n(1000), -6))
		assert.ErrorIs(t, ValidateEntries(skewed), ErrLedgerImbalance{}, "iteration %d", i)
	}
}

func TestEvent_Attach(t *testing.T) {
	ev := NewEvent(EventTypeDeposit, "", nil, nil, nil, time.Now())
	ev.Attach([]Entry{
		{AccountID: AccountPoolCash, MemberID: IDPtr(1), GroupID: IDPtr(2), Amount: decimal.NewFromInt(5)},
		{AccountID: AccountMemberPrincipal, MemberID: IDPtr(1), GroupID: IDPtr(2), Amount: decimal.NewFromInt(-5)},
	})
	require.Len(t, ev.Postings, 2)
	for _, p := range ev.Postings {
		assert.Equal(t, ev.ID, p.EventID)
		assert.True(t, strings.HasPrefix(p.ID, "post_"))
	}
	assert.True(t, SumPostings(ev.Postings).IsZero())
}

func TestErrors(t *testing.T) {
	err := ErrInsufficientFunds{MemberID: 1, GroupID: 2, Requested: decimal.NewFromInt(50), Available: decimal.NewFromInt(10)}
	assert.Equal(t, "insufficient funds for member 1 in group 2: requested 50, available 10", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientFunds{})

	nf := ErrEventNotFound{ID: "evt_1"}
	assert.ErrorIs(t, nf, ErrEventNotFound{})
	assert.ErrorIs(t, nf, ErrEventNotFound{ID: "evt_1"})
	assert.NotErrorIs(t, nf, ErrEventNotFound{ID: "evt_2"})
}
