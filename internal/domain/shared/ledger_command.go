package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCommandType = errors.New("invalid command type")
	ErrMissingGroup       = errors.New("group_id is required")
	ErrMissingMember      = errors.New("member_id is required")
)

// LedgerCommand is a Kafka message asking the ledger to record an operation
type LedgerCommand struct {
	CommandID     uuid.UUID   `json:"command_id"`
	Type          CommandType `json:"type"`
	GroupID       int64       `json:"group_id"`
	MemberID      int64       `json:"member_id,omitempty"`
	Amount        string      `json:"amount"` // exact decimal string, e.g. "100.00"
	AccrualDate   string      `json:"accrual_date,omitempty"`
	Ref           string      `json:"ref,omitempty"`
	CreatedBy     *int64      `json:"created_by,omitempty"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Validate checks the fields required by the command type
func (c *LedgerCommand) Validate() error {
	if !c.Type.IsValid() {
		return ErrInvalidCommandType
	}
	if c.GroupID <= 0 {
		return ErrMissingGroup
	}
	if c.Type != CommandTypeInterestAccrual && c.MemberID <= 0 {
		return ErrMissingMember
	}
	return nil
}
