// Package store defines the unit of work the ledger services run inside.
package store

import (
	"context"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/tax"
)

// Locker serializes writers of one group for the rest of the current transaction
type Locker interface {
	LockGroup(ctx context.Context, groupID int64) error
}

// Repositories is the set of repositories bound to one transaction or connection
type Repositories struct {
	Accounts   ledger.AccountRepository
	Events     ledger.EventRepository
	Postings   ledger.PostingRepository
	Shares     share.Repository
	TaxBuckets tax.BucketRepository
	Reports    tax.ReportRepository
	Outbox     outbox.Repository
	Directory  membership.Directory
	Locker     Locker
}

// Store hands out repositories and runs atomic units of work
type Store interface {
	// Repositories returns repositories bound to autocommit connections
	Repositories() Repositories
	// WithinTx runs fn in a read-write transaction, committing only if fn returns nil
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// ReadOnly runs fn against a consistent committed snapshot
	ReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
