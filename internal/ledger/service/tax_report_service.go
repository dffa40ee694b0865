package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/money"
	"github.com/pooled-savings-ledger/internal/platform/metrics"
)

// FilingThreshold is the box 1 amount from which a 1099-INT must be filed
var FilingThreshold = money.MustParse("10.00")

// TaxReportService builds checksummed report payloads and manages their draft to final lifecycle
type TaxReportService struct {
	store  store.Store
	payer  tax.PayerInfo
	logger *slog.Logger
	now    func() time.Time
}

func NewTaxReportService(st store.Store, payer tax.PayerInfo, logger *slog.Logger) *TaxReportService {
	return &TaxReportService{store: st, payer: payer, logger: logger, now: time.Now}
}

func (s *TaxReportService) WithClock(now func() time.Time) *TaxReportService {
	s.now = now
	return s
}

func bucketPayload(b tax.Bucket) map[string]any {
	return map[string]any{
		"taxable_interest":    money.Format(b.TaxableInterest),
		"total_contributions": money.Format(b.TotalContributions),
		"total_withdrawals":   money.Format(b.TotalWithdrawals),
	}
}

// GenerateStatement captures the member's current position, the year's tax bucket and the
// number of events that touched the member during the year.
func (s *TaxReportService) GenerateStatement(ctx context.Context, memberID, groupID int64, year int) (*tax.Report, error) {
	return s.generate(ctx, tax.ReportTypeStatement, func(ctx context.Context, repos store.Repositories, now time.Time) (*tax.Report, error) {
		pos, err := position(ctx, repos, memberID, groupID, year)
		if err != nil {
			return nil, err
		}
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		count, err := repos.Events.CountForMember(ctx, memberID, groupID, from, from.AddDate(1, 0, 0))
		if err != nil {
			return nil, err
		}

		payload := tax.Payload{
			"report_type": string(tax.ReportTypeStatement),
			"member_id":   memberID,
			"group_id":    groupID,
			"tax_year":    year,
			"position": map[string]any{
				"principal":     money.Format(pos.Principal),
				"earnings":      money.Format(pos.Earnings),
				"total_balance": money.Format(pos.TotalBalance),
			},
			"tax_bucket":        bucketPayload(pos.TaxBucket),
			"transaction_count": count,
		}
		return tax.NewReport(ledger.NewID(tax.ReportTypeStatement.IDPrefix()), memberID, ledger.IDPtr(groupID), year,
			tax.ReportTypeStatement, payload, now)
	})
}

// Generate1099INT reports the member's taxable interest across every group. A zero-value
// payer falls back to the configured payer.
func (s *TaxReportService) Generate1099INT(ctx context.Context, memberID int64, year int, payer tax.PayerInfo) (*tax.Report, error) {
	if payer == (tax.PayerInfo{}) {
		payer = s.payer
	}
	return s.generate(ctx, tax.ReportType1099INT, func(ctx context.Context, repos store.Repositories, now time.Time) (*tax.Report, error) {
		member, err := repos.Directory.GetMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
		buckets, err := repos.TaxBuckets.ListForMemberYear(ctx, memberID, year)
		if err != nil {
			return nil, err
		}
		interest := decimal.Zero
		for _, b := range buckets {
			interest = interest.Add(b.TaxableInterest)
		}
		box1 := money.ToCurrency(interest)

		payload := tax.Payload{
			"form_type": string(tax.ReportType1099INT),
			"tax_year":  year,
			"payer": map[string]any{
				"name":    payer.Name,
				"tin":     payer.TIN,
				"address": payer.Address,
			},
			"recipient": map[string]any{
				"member_id": member.ID,
				"name":      member.Name,
			},
			"box_1_interest":  money.Format(box1),
			"filing_required": box1.GreaterThanOrEqual(FilingThreshold),
		}
		return tax.NewReport(ledger.NewID(tax.ReportType1099INT.IDPrefix()), memberID, nil, year,
			tax.ReportType1099INT, payload, now)
	})
}

// GenerateSummary breaks the member's tax year down by group
func (s *TaxReportService) GenerateSummary(ctx context.Context, memberID int64, year int) (*tax.Report, error) {
	return s.generate(ctx, tax.ReportTypeSummary, func(ctx context.Context, repos store.Repositories, now time.Time) (*tax.Report, error) {
		buckets, err := repos.TaxBuckets.ListForMemberYear(ctx, memberID, year)
		if err != nil {
			return nil, err
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].GroupID < buckets[j].GroupID })

		totals := tax.EmptyBucket(memberID, 0, year)
		groups := make([]any, 0, len(buckets))
		for _, b := range buckets {
			totals.TaxableInterest = totals.TaxableInterest.Add(b.TaxableInterest)
			totals.TotalContributions = totals.TotalContributions.Add(b.TotalContributions)
			totals.TotalWithdrawals = totals.TotalWithdrawals.Add(b.TotalWithdrawals)

			entry := bucketPayload(b)
			entry["group_id"] = b.GroupID
			groups = append(groups, entry)
		}

		payload := tax.Payload{
			"report_type": string(tax.ReportTypeSummary),
			"member_id":   memberID,
			"tax_year":    year,
			"groups":      groups,
			"totals":      bucketPayload(totals),
		}
		return tax.NewReport(ledger.NewID(tax.ReportTypeSummary.IDPrefix()), memberID, nil, year,
			tax.ReportTypeSummary, payload, now)
	})
}

func (s *TaxReportService) generate(
	ctx context.Context,
	reportType tax.ReportType,
	build func(ctx context.Context, repos store.Repositories, now time.Time) (*tax.Report, error),
) (*tax.Report, error) {
	log := logger.FromContext(ctx, s.logger).With("report_type", reportType)

	var report *tax.Report
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		r, err := build(ctx, repos, s.now())
		if err != nil {
			return err
		}
		if err := repos.Reports.Create(ctx, r); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			log.Warn("Report generation rejected", "error", err)
			return nil, err
		}
		log.Error("Report generation failed", "error", err)
		return nil, fmt.Errorf("failed to generate %s report: %w", reportType, err)
	}

	metrics.ReportsGenerated.WithLabelValues(string(reportType)).Inc()
	log.Info("Report generated", "report_id", report.ID, "member_id", report.MemberID, "checksum", report.Checksum)
	return report, nil
}

// FinalizeReport moves a draft to final. The payload and checksum are left untouched.
func (s *TaxReportService) FinalizeReport(ctx context.Context, id string) (*tax.Report, error) {
	log := logger.FromContext(ctx, s.logger).With("report_id", id)

	var report *tax.Report
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		r, err := repos.Reports.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Finalize(s.now()); err != nil {
			return err
		}
		ok, err := repos.Reports.MarkFinal(ctx, id, *r.FinalizedAt)
		if err != nil {
			return err
		}
		if !ok {
			return tax.ErrAlreadyFinalized{ReportID: id, Status: tax.ReportStatusFinal}
		}
		report = r
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			log.Warn("Report finalization rejected", "error", err)
			return nil, err
		}
		return nil, fmt.Errorf("failed to finalize report: %w", err)
	}

	log.Info("Report finalized")
	return report, nil
}

func (s *TaxReportService) GetReport(ctx context.Context, id string) (*tax.Report, error) {
	var report *tax.Report
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		report, err = repos.Reports.GetByID(ctx, id)
		return err
	})
	return report, err
}

func (s *TaxReportService) ListReports(ctx context.Context, memberID int64, year int) ([]*tax.Report, error) {
	var reports []*tax.Report
	err := s.store.ReadOnly(ctx, func(ctx context.Context, repos store.Repositories) error {
		var err error
		reports, err = repos.Reports.ListForMember(ctx, memberID, year)
		return err
	})
	return reports, err
}
