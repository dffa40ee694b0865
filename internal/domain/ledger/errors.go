package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrEmptyPostingSet indicates an event proposed without any entries
var ErrEmptyPostingSet = errors.New("posting set cannot be empty")

// ErrInvalidAmount indicates a zero, negative or over-precise amount
type ErrInvalidAmount struct {
	Amount decimal.Decimal
	Reason string
}

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount.String(), e.Reason)
}

// Is matches any ErrInvalidAmount
func (e ErrInvalidAmount) Is(target error) bool {
	_, ok := target.(ErrInvalidAmount)
	return ok
}

// ErrLedgerImbalance indicates a posting set that does not sum to zero
type ErrLedgerImbalance struct {
	Sum decimal.Decimal
}

func (e ErrLedgerImbalance) Error() string {
	return "ledger imbalance: postings sum to " + e.Sum.String()
}

// Is matches any ErrLedgerImbalance
func (e ErrLedgerImbalance) Is(target error) bool {
	_, ok := target.(ErrLedgerImbalance)
	return ok
}

// ErrInsufficientFunds indicates a withdrawal above the member's principal
type ErrInsufficientFunds struct {
	MemberID  int64
	GroupID   int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds for member %d in group %d: requested %s, available %s",
		e.MemberID, e.GroupID, e.Requested.String(), e.Available.String())
}

// Is matches any ErrInsufficientFunds
func (e ErrInsufficientFunds) Is(target error) bool {
	_, ok := target.(ErrInsufficientFunds)
	return ok
}

// ErrEventNotFound indicates missing ledger event
type ErrEventNotFound struct {
	ID string
}

func (e ErrEventNotFound) Error() string {
	return "ledger event not found: " + e.ID
}

// Is implements the errors.Is interface for ErrEventNotFound
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	// An empty target ID matches any ErrEventNotFound
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}

// ErrUnknownAccount indicates a posting against an account outside the chart
type ErrUnknownAccount struct {
	ID AccountID
}

func (e ErrUnknownAccount) Error() string {
	return "unknown account: " + string(e.ID)
}

// Is matches any ErrUnknownAccount
func (e ErrUnknownAccount) Is(target error) bool {
	_, ok := target.(ErrUnknownAccount)
	return ok
}
