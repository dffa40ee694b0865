package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/money"
)

type harness struct {
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{dbPath: filepath.Join(t.TempDir(), "ledger.db")}
}

func (h *harness) run(args ...string) (map[string]any, error) {
	var out bytes.Buffer
	err := Run(context.Background(), append([]string{"--db", h.dbPath, "--log-level", "error"}, args...), &out, io.Discard)
	if out.Len() == 0 {
		return nil, err
	}
	var decoded map[string]any
	if jsonErr := json.Unmarshal(out.Bytes(), &decoded); jsonErr != nil {
		return nil, jsonErr
	}
	return decoded, err
}

func (h *harness) mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := h.run(args...)
	require.NoError(t, err, args)
	return out
}

func TestLocalModeLedgerFlow(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "group", "add", "1", "Riverside Circle")
	h.mustRun(t, "member", "add", "1", "Ada", "--group", "1")
	h.mustRun(t, "member", "add", "2", "Grace", "--group", "1", "--email", "grace@example.org")

	first := h.mustRun(t, "deposit", "--group", "1", "--member", "1", "--amount", "300.00", "--idempotency-key", "dep-1")
	assert.Equal(t, "deposit", first["event_type"])
	h.mustRun(t, "deposit", "--group", "1", "--member", "2", "--amount", "100.00")

	t.Run("ReplayedKey", func(t *testing.T) {
		again := h.mustRun(t, "deposit", "--group", "1", "--member", "1", "--amount", "300.00", "--idempotency-key", "dep-1")
		assert.Equal(t, first["id"], again["id"])
	})

	t.Run("Overdraw", func(t *testing.T) {
		_, err := h.run("withdraw", "--group", "1", "--member", "2", "--amount", "100.01")
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds{})
	})

	t.Run("BadAmount", func(t *testing.T) {
		_, err := h.run("deposit", "--group", "1", "--member", "1", "--amount", "1.0000001")
		assert.Error(t, err)
	})

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(share.DateLayout)
	accrual := h.mustRun(t, "accrue", "--group", "1", "--date", tomorrow, "--interest", "4.00")
	assert.Equal(t, "interest_accrual", accrual["event_type"])

	pos := h.mustRun(t, "position", "--group", "1", "--member", "1")
	assert.Equal(t, "300.00", pos["principal"])
	assert.Equal(t, "3.00", pos["earnings"])
	assert.Equal(t, "303.00", pos["total_balance"])

	pool := h.mustRun(t, "pool", "--group", "1")
	assert.Equal(t, "400.00", pool["pool_balance"])

	t.Run("DepartedMemberCanWithdraw", func(t *testing.T) {
		h.mustRun(t, "member", "leave", "2", "--group", "1")
		_, err := h.run("deposit", "--group", "1", "--member", "2", "--amount", "1.00")
		assert.ErrorIs(t, err, membership.ErrMemberNotInGroup{})

		out := h.mustRun(t, "withdraw", "--group", "1", "--member", "2", "--amount", "100.00")
		assert.Equal(t, "withdrawal", out["event_type"])
	})

	t.Run("Correction", func(t *testing.T) {
		out := h.mustRun(t, "correct", "--group", "1", "--reason", "deposit keyed short",
			"--corrects", first["id"].(string),
			"--entry", "pool_cash=0.50", "--entry", "member_principal@1=-0.50")
		assert.Equal(t, "correction", out["event_type"])
		assert.Len(t, out["postings"], 2)

		_, err := h.run("correct", "--group", "1", "--reason", "typo", "--entry", "pool_cash=1.00")
		assert.ErrorIs(t, err, ledger.ErrLedgerImbalance{})
	})

	t.Run("Reconcile", func(t *testing.T) {
		report := h.mustRun(t, "reconcile")
		assert.Equal(t, true, report["passed"])

		balance := h.mustRun(t, "reconcile", "--event", first["id"].(string))
		assert.Equal(t, true, balance["balanced"])
	})

	t.Run("EventLookup", func(t *testing.T) {
		out := h.mustRun(t, "event", first["id"].(string))
		assert.Equal(t, first["id"], out["id"])

		_, err := h.run("event", "evt_missing")
		assert.ErrorIs(t, err, ledger.ErrEventNotFound{})
	})
}

func TestLocalModeReports(t *testing.T) {
	h := newHarness(t)
	year := time.Now().UTC().Year()

	h.mustRun(t, "group", "add", "1", "Riverside Circle")
	h.mustRun(t, "member", "add", "7", "Ada", "--group", "1")
	h.mustRun(t, "deposit", "--group", "1", "--member", "7", "--amount", "50.00")

	statement := h.mustRun(t, "report", "statement", "--member", "7", "--group", "1", "--year", strconv.Itoa(year))
	id := statement["id"].(string)
	assert.Equal(t, "draft", statement["status"])
	assert.Equal(t, true, statement["checksum_valid"])

	final := h.mustRun(t, "report", "finalize", id)
	assert.Equal(t, "final", final["status"])
	assert.Equal(t, statement["checksum"], final["checksum"])

	_, err := h.run("report", "finalize", id)
	assert.ErrorIs(t, err, tax.ErrAlreadyFinalized{})

	shown := h.mustRun(t, "report", "show", id)
	assert.Equal(t, "final", shown["status"])
	assert.Equal(t, true, shown["checksum_valid"])

	t.Run("1099WithPayerProfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "payer.toml")
		require.NoError(t, os.WriteFile(path, []byte("name = \"Override Bank\"\ntin = \"98-7654321\"\naddress = \"2 Side St\"\n"), 0o600))

		out := h.mustRun(t, "report", "1099", "--member", "7", "--year", strconv.Itoa(year), "--payer", path)
		payload := out["payload"].(map[string]any)
		assert.Equal(t, "Override Bank", payload["payer"].(map[string]any)["name"])
		assert.Equal(t, "0.00", payload["box_1_interest"])
		assert.Equal(t, false, payload["filing_required"])
	})

	t.Run("Summary", func(t *testing.T) {
		out := h.mustRun(t, "report", "summary", "--member", "7", "--year", strconv.Itoa(year))
		totals := out["payload"].(map[string]any)["totals"].(map[string]any)
		assert.Equal(t, "50.00", totals["total_contributions"])
	})
}

func TestParseEntry(t *testing.T) {
	group := ledger.IDPtr(1)

	tests := []struct {
		name     string
		raw      string
		expected ledger.Entry
		wantErr  bool
	}{
		{
			name:     "GroupLevel",
			raw:      "pool_cash=-1.25",
			expected: ledger.Entry{AccountID: ledger.AccountPoolCash, GroupID: group, Amount: money.MustParse("-1.25")},
		},
		{
			name: "MemberLevel",
			raw:  "member_principal@7=10",
			expected: ledger.Entry{AccountID: ledger.AccountMemberPrincipal, MemberID: ledger.IDPtr(7), GroupID: group,
				Amount: money.MustParse("10")},
		},
		{name: "MissingAmount", raw: "pool_cash", wantErr: true},
		{name: "BadMember", raw: "member_principal@x=1", wantErr: true},
		{name: "BadAmount", raw: "pool_cash=1.0000001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := parseEntry(tt.raw, group)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.AccountID, entry.AccountID)
			assert.Equal(t, tt.expected.MemberID, entry.MemberID)
			assert.Equal(t, tt.expected.GroupID, entry.GroupID)
			assert.True(t, tt.expected.Amount.Equal(entry.Amount))
		})
	}
}

func TestLoadPayer(t *testing.T) {
	write := func(t *testing.T, body string) string {
		path := filepath.Join(t.TempDir(), "payer.toml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("Valid", func(t *testing.T) {
		payer, err := loadPayer(write(t, "name = \"Co-op\"\ntin = \"1\"\naddress = \"x\"\n"))
		require.NoError(t, err)
		assert.Equal(t, tax.PayerInfo{Name: "Co-op", TIN: "1", Address: "x"}, payer)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := loadPayer(write(t, "name = \"Co-op\"\nein = \"1\"\n"))
		assert.ErrorContains(t, err, "ein")
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := loadPayer(write(t, "tin = \"1\"\n"))
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := loadPayer(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}
