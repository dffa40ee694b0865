package components

import (
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/service"
)

// CreateServices wires the ledger services over a store
func CreateServices(st store.Store, payer tax.PayerInfo, logger *slog.Logger) *service.Services {
	poster := NewPostingEngine(logger.With("component", "posting_engine"))
	snapshots := NewSnapshotEngine(logger.With("component", "snapshot_engine"))
	taxes := NewTaxAggregator(logger.With("component", "tax_aggregator"))
	recorder := NewOutboxRecorder(logger.With("component", "outbox_recorder"))

	return &service.Services{
		Ledger: service.NewLedgerService(
			st,
			poster,
			snapshots,
			taxes,
			recorder,
			logger.With("component", "ledger_service"),
		),
		Reconciliation: service.NewReconciliationService(st, logger.With("component", "reconciliation_service")),
		Reports:        service.NewTaxReportService(st, payer, logger.With("component", "tax_report_service")),
	}
}
