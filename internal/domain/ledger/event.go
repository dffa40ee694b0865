package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/money"
)

// EventType classifies what happened
type EventType string

const (
	EventTypeDeposit         EventType = "deposit"
	EventTypeWithdrawal      EventType = "withdrawal"
	EventTypeInterestAccrual EventType = "interest_accrual"
	EventTypeCorrection      EventType = "correction"
	EventTypePayout          EventType = "payout"
	EventTypeFee             EventType = "fee"
	EventTypeTransfer        EventType = "transfer"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeDeposit, EventTypeWithdrawal, EventTypeInterestAccrual,
		EventTypeCorrection, EventTypePayout, EventTypeFee, EventTypeTransfer:
		return true
	}
	return false
}

// Metadata carries event context whose keys vary by event type:
//
//	deposit, withdrawal: member_id, group_id, amount
//	interest_accrual:    group_id, accrual_date, snapshot_date, total_interest, members, remainder
//	correction:          reason, corrects_event_id
type Metadata map[string]any

// Event is an immutable ledger fact owning a balanced set of postings
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"event_type"`
	Ref            string    `json:"ref,omitempty"`
	Meta           Metadata  `json:"meta,omitempty"`
	GroupID        *int64    `json:"group_id,omitempty"`
	CreatedBy      *int64    `json:"created_by,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Postings       []Posting `json:"postings,omitempty"`
}

// Posting is one signed leg of an event
type Posting struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	AccountID AccountID       `json:"account_id"`
	MemberID  *int64          `json:"member_id,omitempty"`
	GroupID   *int64          `json:"group_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// Entry is a proposed posting before it is attached to an event
type Entry struct {
	AccountID AccountID
	MemberID  *int64
	Amount    decimal.Decimal
	GroupID   *int64
}

// NewID returns a short random identifier with the given prefix, e.g. "evt_1a2b3c4d5e6f".
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// IDPtr is a convenience for the optional member, group and creator references.
func IDPtr(v int64) *int64 {
	return &v
}

// NewEvent builds an unsaved event. Timestamps are kept in UTC at microsecond
// resolution so they survive a database round trip unchanged.
func NewEvent(eventType EventType, ref string, meta Metadata, groupID, createdBy *int64, now time.Time) *Event {
	if meta == nil {
		meta = Metadata{}
	}
	return &Event{
		ID:        NewID("evt_"),
		Timestamp: now.UTC().Truncate(time.Microsecond),
		Type:      eventType,
		Ref:       ref,
		Meta:      meta,
		GroupID:   groupID,
		CreatedBy: createdBy,
	}
}

// Sum adds up entry amounts exactly.
func Sum(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// SumPostings adds up posting amounts exactly.
func SumPostings(postings []Posting) decimal.Decimal {
	total := decimal.Zero
	for _, p := range postings {
		total = total.Add(p.Amount)
	}
	return total
}

// ValidateEntries checks a proposed posting set before anything is written.
func ValidateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyPostingSet
	}
	for _, e := range entries {
		if _, ok := LookupAccount(e.AccountID); !ok {
			return ErrUnknownAccount{ID: e.AccountID}
		}
		if !money.FitsScale(e.Amount) {
			return ErrInvalidAmount{Amount: e.Amount, Reason: "exceeds internal precision"}
		}
	}
	if sum := Sum(entries); !sum.IsZero() {
		return ErrLedgerImbalance{Sum: sum}
	}
	return nil
}

// Attach turns validated entries into postings owned by the event.
func (e *Event) Attach(entries []Entry) {
	e.Postings = make([]Posting, 0, len(entries))
	for _, en := range entries {
		e.Postings = append(e.Postings, Posting{
			ID:        NewID("post_"),
			EventID:   e.ID,
			AccountID: en.AccountID,
			MemberID:  en.MemberID,
			GroupID:   en.GroupID,
			Amount:    en.Amount,
		})
	}
}
