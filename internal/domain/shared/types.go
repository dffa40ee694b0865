package shared

// CommandType defines ledger operations accepted from the command topic
type CommandType string

const (
	CommandTypeDeposit         CommandType = "DEPOSIT"
	CommandTypeWithdrawal      CommandType = "WITHDRAWAL"
	CommandTypeInterestAccrual CommandType = "INTEREST_ACCRUAL"
)

func (t CommandType) IsValid() bool {
	switch t {
	case CommandTypeDeposit, CommandTypeWithdrawal, CommandTypeInterestAccrual:
		return true
	}
	return false
}

// CommandOutcome labels how a command ended, for logs and metrics
type CommandOutcome string

const (
	CommandOutcomeApplied  CommandOutcome = "APPLIED"
	CommandOutcomeRejected CommandOutcome = "REJECTED"
	CommandOutcomeFailed   CommandOutcome = "FAILED"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
