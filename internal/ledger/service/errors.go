package service

import (
	"errors"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/tax"
)

// IsRejection reports whether err is a domain rejection rather than an infrastructure failure.
// Rejections are final: retrying the same request yields the same answer.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ledger.ErrEmptyPostingSet),
		errors.Is(err, ledger.ErrInvalidAmount{}),
		errors.Is(err, ledger.ErrLedgerImbalance{}),
		errors.Is(err, ledger.ErrInsufficientFunds{}),
		errors.Is(err, ledger.ErrEventNotFound{}),
		errors.Is(err, ledger.ErrUnknownAccount{}),
		errors.Is(err, membership.ErrGroupNotFound{}),
		errors.Is(err, membership.ErrMemberNotFound{}),
		errors.Is(err, membership.ErrMemberNotInGroup{}),
		errors.Is(err, tax.ErrAlreadyFinalized{}),
		errors.Is(err, tax.ErrReportNotFound{}):
		return true
	}
	return false
}
