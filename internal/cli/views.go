package cli

import (
	"time"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/money"
)

type postingView struct {
	AccountID string `json:"account_id"`
	MemberID  *int64 `json:"member_id,omitempty"`
	GroupID   *int64 `json:"group_id,omitempty"`
	Amount    string `json:"amount"`
}

type eventView struct {
	ID             string          `json:"id"`
	Type           string          `json:"event_type"`
	Timestamp      string          `json:"timestamp"`
	Ref            string          `json:"ref,omitempty"`
	GroupID        *int64          `json:"group_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Meta           ledger.Metadata `json:"meta,omitempty"`
	Postings       []postingView   `json:"postings"`
}

func newEventView(e *ledger.Event) eventView {
	v := eventView{
		ID:             e.ID,
		Type:           string(e.Type),
		Timestamp:      e.Timestamp.UTC().Format(time.RFC3339Nano),
		Ref:            e.Ref,
		GroupID:        e.GroupID,
		IdempotencyKey: e.IdempotencyKey,
		Meta:           e.Meta,
		Postings:       make([]postingView, 0, len(e.Postings)),
	}
	for _, p := range e.Postings {
		v.Postings = append(v.Postings, postingView{
			AccountID: string(p.AccountID),
			MemberID:  p.MemberID,
			GroupID:   p.GroupID,
			Amount:    money.FormatExact(p.Amount),
		})
	}
	return v
}

type positionView struct {
	MemberID           int64  `json:"member_id"`
	GroupID            int64  `json:"group_id"`
	Principal          string `json:"principal"`
	Earnings           string `json:"earnings"`
	TotalBalance       string `json:"total_balance"`
	TaxYear            int    `json:"tax_year"`
	TaxableInterest    string `json:"taxable_interest"`
	TotalContributions string `json:"total_contributions"`
	TotalWithdrawals   string `json:"total_withdrawals"`
}

func newPositionView(p *service.Position) positionView {
	return positionView{
		MemberID:           p.MemberID,
		GroupID:            p.GroupID,
		Principal:          money.Format(p.Principal),
		Earnings:           money.Format(p.Earnings),
		TotalBalance:       money.Format(p.TotalBalance),
		TaxYear:            p.TaxYear,
		TaxableInterest:    money.Format(p.TaxBucket.TaxableInterest),
		TotalContributions: money.Format(p.TaxBucket.TotalContributions),
		TotalWithdrawals:   money.Format(p.TaxBucket.TotalWithdrawals),
	}
}

type reportView struct {
	*tax.Report
	ChecksumValid bool `json:"checksum_valid"`
}

func newReportView(r *tax.Report) reportView {
	ok, err := r.VerifyChecksum()
	return reportView{Report: r, ChecksumValid: err == nil && ok}
}
