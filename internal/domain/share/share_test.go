package share

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeShare(t *testing.T) {
	t.Run("EmptyPool", func(t *testing.T) {
		assert.True(t, ComputeShare(d("100"), decimal.Zero).IsZero())
	})

	t.Run("Tenth", func(t *testing.T) {
		assert.Equal(t, "0.1", ComputeShare(d("1000"), d("10000")).String())
	})

	t.Run("Thirds", func(t *testing.T) {
		assert.Equal(t, "0.3333333333", ComputeShare(d("1"), d("3")).String())
	})
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2025, 3, 2, 23, 30, 0, 0, time.FixedZone("X", -3600))
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), DateOf(ts))
}

func TestAllocate(t *testing.T) {
	t.Run("SingleMemberTakesAll", func(t *testing.T) {
		allocs, rem := Allocate(d("10.00"), []MemberShare{{MemberID: 1, Share: d("1")}})
		require.Len(t, allocs, 1)
		assert.True(t, allocs[0].Amount.Equal(d("10")))
		assert.True(t, rem.IsZero())
	})

	t.Run("Proportionality", func(t *testing.T) {
		for _, total := range []string{"10.00", "123.45", "0.01", "99999.99"} {
			allocs, _ := Allocate(d(total), []MemberShare{
				{MemberID: 2, Share: d("0.4")},
				{MemberID: 1, Share: d("0.1")},
				{MemberID: 3, Share: d("0.5")},
			})
			require.Len(t, allocs, 3)
			assert.Equal(t, int64(1), allocs[0].MemberID)
			assert.Equal(t, int64(2), allocs[1].MemberID)
			assert.True(t, allocs[1].Amount.Equal(allocs[0].Amount.Mul(decimal.NewFromInt(4))), "total %s", total)
		}
	})

	t.Run("ThirdsLeaveRemainder", func(t *testing.T) {
		third := ComputeShare(d("1"), d("3"))
		allocs, rem := Allocate(d("10.00"), []MemberShare{
			{MemberID: 1, Share: third}, {MemberID: 2, Share: third}, {MemberID: 3, Share: third},
		})
		for _, a := range allocs {
			assert.Equal(t, "3.333333", a.Amount.String())
		}
		assert.Equal(t, "0.000001", rem.String())
	})

	t.Run("Conservation", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 500; i++ {
			n := 1 + rng.Intn(25)
			principals := make([]decimal.Decimal, n)
			pool := decimal.Zero
			for j := range principals {
				principals[j] = decimal.New(1+rng.Int63n(10_000_000), -2)
				pool = pool.Add(principals[j])
			}
			shares := make([]MemberShare, n)
			for j := range shares {
				shares[j] = MemberShare{MemberID: int64(j + 1), Share: ComputeShare(principals[j], pool)}
			}
			total := decimal.New(1+rng.Int63n(100_000_000), -2)

			allocs, rem := Allocate(total, shares)
			sum := decimal.Zero
			for _, a := range allocs {
				sum = sum.Add(a.Amount)
			}
			require.True(t, sum.Add(rem).Equal(total), "iteration %d", i)
			bound := decimal.RequireFromString("0.01").Mul(decimal.NewFromInt(int64(n)))
			require.True(t, rem.Abs().LessThan(bound), "iteration %d remainder %s", i, rem)
		}
	})

	t.Run("InputOrderUntouched", func(t *testing.T) {
		in := []MemberShare{{MemberID: 9, Share: d("0.5")}, {MemberID: 3, Share: d("0.5")}}
		Allocate(d("1"), in)
		assert.Equal(t, int64(9), in[0].MemberID)
	})
}

func TestNewMemberShare(t *testing.T) {
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	s := NewMemberShare("share_x", now, 1, 2, d("250"), d("1000"), now)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), s.SnapshotDate)
	assert.Equal(t, "0.25", s.Share.String())
}
