package handler

import (
	"time"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	ledgersvc "github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/money"
)

// MemberAmountRequest is the body of deposits and withdrawals. Amounts are decimal strings.
type MemberAmountRequest struct {
	MemberID       int64  `json:"member_id" binding:"required,gt=0"`
	Amount         string `json:"amount" binding:"required"`
	Ref            string `json:"ref"`
	CreatedBy      *int64 `json:"created_by"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AccrualRequest struct {
	AccrualDate    string `json:"accrual_date" binding:"required"`
	TotalInterest  string `json:"total_interest" binding:"required"`
	Ref            string `json:"ref"`
	CreatedBy      *int64 `json:"created_by"`
	IdempotencyKey string `json:"idempotency_key"`
}

type EntryRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	MemberID  *int64 `json:"member_id"`
	GroupID   *int64 `json:"group_id"`
	Amount    string `json:"amount" binding:"required"`
}

type CorrectionRequest struct {
	GroupID         *int64         `json:"group_id"`
	Reason          string         `json:"reason" binding:"required"`
	CorrectsEventID string         `json:"corrects_event_id"`
	Entries         []EntryRequest `json:"entries" binding:"required,min=1,dive"`
	Ref             string         `json:"ref"`
	CreatedBy       *int64         `json:"created_by"`
	IdempotencyKey  string         `json:"idempotency_key"`
}

type StatementRequest struct {
	MemberID int64 `json:"member_id" binding:"required,gt=0"`
	GroupID  int64 `json:"group_id" binding:"required,gt=0"`
	TaxYear  int   `json:"tax_year" binding:"required,min=1900,max=9999"`
}

// Form1099Request overrides the configured payer when Payer is set
type Form1099Request struct {
	MemberID int64          `json:"member_id" binding:"required,gt=0"`
	TaxYear  int            `json:"tax_year" binding:"required,min=1900,max=9999"`
	Payer    *tax.PayerInfo `json:"payer"`
}

type SummaryRequest struct {
	MemberID int64 `json:"member_id" binding:"required,gt=0"`
	TaxYear  int   `json:"tax_year" binding:"required,min=1900,max=9999"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

type PostingResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	MemberID  *int64 `json:"member_id,omitempty"`
	GroupID   *int64 `json:"group_id,omitempty"`
	Amount    string `json:"amount"`
}

type EventResponse struct {
	ID             string            `json:"id"`
	Type           string            `json:"event_type"`
	Timestamp      string            `json:"timestamp"`
	Ref            string            `json:"ref,omitempty"`
	GroupID        *int64            `json:"group_id,omitempty"`
	CreatedBy      *int64            `json:"created_by,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Meta           map[string]any    `json:"meta,omitempty"`
	Postings       []PostingResponse `json:"postings"`
}

type BucketResponse struct {
	TaxableInterest    string `json:"taxable_interest"`
	TotalContributions string `json:"total_contributions"`
	TotalWithdrawals   string `json:"total_withdrawals"`
}

type PositionResponse struct {
	MemberID     int64          `json:"member_id"`
	GroupID      int64          `json:"group_id"`
	Principal    string         `json:"principal"`
	Earnings     string         `json:"earnings"`
	TotalBalance string         `json:"total_balance"`
	TaxYear      int            `json:"tax_year"`
	TaxBucket    BucketResponse `json:"tax_bucket"`
}

type PoolResponse struct {
	GroupID     int64  `json:"group_id"`
	PoolBalance string `json:"pool_balance"`
}

type ReportResponse struct {
	ID            string         `json:"id"`
	MemberID      int64          `json:"member_id"`
	GroupID       *int64         `json:"group_id,omitempty"`
	TaxYear       int            `json:"tax_year"`
	Type          string         `json:"report_type"`
	Status        string         `json:"status"`
	Payload       map[string]any `json:"payload"`
	Checksum      string         `json:"checksum"`
	ChecksumValid bool           `json:"checksum_valid"`
	CreatedAt     string         `json:"created_at"`
	FinalizedAt   string         `json:"finalized_at,omitempty"`
}

// Posting amounts keep the full working precision so a client can re-sum an event to zero.
func mapEventToResponse(event *ledger.Event) EventResponse {
	response := EventResponse{
		ID:             event.ID,
		Type:           string(event.Type),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		Ref:            event.Ref,
		GroupID:        event.GroupID,
		CreatedBy:      event.CreatedBy,
		IdempotencyKey: event.IdempotencyKey,
		Meta:           event.Meta,
		Postings:       make([]PostingResponse, 0, len(event.Postings)),
	}
	for _, p := range event.Postings {
		response.Postings = append(response.Postings, PostingResponse{
			ID:        p.ID,
			AccountID: string(p.AccountID),
			MemberID:  p.MemberID,
			GroupID:   p.GroupID,
			Amount:    money.FormatExact(p.Amount),
		})
	}
	return response
}

// Positions are member facing and rendered at currency precision.
func mapPositionToResponse(pos *ledgersvc.Position) PositionResponse {
	return PositionResponse{
		MemberID:     pos.MemberID,
		GroupID:      pos.GroupID,
		Principal:    money.Format(pos.Principal),
		Earnings:     money.Format(pos.Earnings),
		TotalBalance: money.Format(pos.TotalBalance),
		TaxYear:      pos.TaxYear,
		TaxBucket: BucketResponse{
			TaxableInterest:    money.Format(pos.TaxBucket.TaxableInterest),
			TotalContributions: money.Format(pos.TaxBucket.TotalContributions),
			TotalWithdrawals:   money.Format(pos.TaxBucket.TotalWithdrawals),
		},
	}
}

// A payload that no longer matches its checksum is still served, flagged as invalid.
func mapReportToResponse(r *tax.Report) ReportResponse {
	valid, err := r.VerifyChecksum()
	response := ReportResponse{
		ID:            r.ID,
		MemberID:      r.MemberID,
		GroupID:       r.GroupID,
		TaxYear:       r.TaxYear,
		Type:          string(r.Type),
		Status:        string(r.Status),
		Payload:       r.Payload,
		Checksum:      r.Checksum,
		ChecksumValid: err == nil && valid,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.FinalizedAt != nil {
		response.FinalizedAt = r.FinalizedAt.UTC().Format(time.RFC3339)
	}
	return response
}
