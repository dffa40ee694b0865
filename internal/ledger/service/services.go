package service

import "time"

// Services bundles the ledger's entry points for the API, the processor and the CLI
type Services struct {
	Ledger         *LedgerService
	Reconciliation *ReconciliationService
	Reports        *TaxReportService
}

// WithClock points every service at the same time source
func (s *Services) WithClock(now func() time.Time) *Services {
	s.Ledger.WithClock(now)
	s.Reconciliation.now = now
	s.Reports.WithClock(now)
	return s
}
