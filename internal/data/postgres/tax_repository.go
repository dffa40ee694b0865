package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// TaxBucketRepository keeps year-to-date rollups current with one upsert per change
type TaxBucketRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

const bucketSelect = `
	SELECT id, member_id, group_id, tax_year, taxable_interest::text,
		total_contributions::text, total_withdrawals::text, updated_at
	FROM tax_buckets`

func scanBucket(row pgx.Row) (*tax.Bucket, error) {
	var (
		b                           tax.Bucket
		interest, contrib, withdraw string
	)
	if err := row.Scan(&b.ID, &b.MemberID, &b.GroupID, &b.TaxYear, &interest, &contrib, &withdraw, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.TaxableInterest, err = decimal.NewFromString(interest); err != nil {
		return nil, err
	}
	if b.TotalContributions, err = decimal.NewFromString(contrib); err != nil {
		return nil, err
	}
	if b.TotalWithdrawals, err = decimal.NewFromString(withdraw); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *TaxBucketRepository) Apply(ctx context.Context, memberID, groupID int64, year int, delta tax.BucketDelta, at time.Time) error {
	query := `
		INSERT INTO tax_buckets (id, member_id, group_id, tax_year, taxable_interest, total_contributions, total_withdrawals, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (member_id, group_id, tax_year) DO UPDATE SET
			taxable_interest = tax_buckets.taxable_interest + EXCLUDED.taxable_interest,
			total_contributions = tax_buckets.total_contributions + EXCLUDED.total_contributions,
			total_withdrawals = tax_buckets.total_withdrawals + EXCLUDED.total_withdrawals,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.querier.Exec(ctx, query,
		ledger.NewID("tax_"), memberID, groupID, year,
		delta.TaxableInterest, delta.Contributions, delta.Withdrawals, at,
	)
	if err != nil {
		r.logger.Error("Failed to apply tax bucket delta",
			"member_id", memberID,
			"group_id", groupID,
			"tax_year", year,
			"error", err,
		)
		return fmt.Errorf("failed to apply tax bucket delta: %w", err)
	}
	return nil
}

func (r *TaxBucketRepository) Get(ctx context.Context, memberID, groupID int64, year int) (*tax.Bucket, error) {
	query := bucketSelect + `
	WHERE member_id = $1 AND group_id = $2 AND tax_year = $3`

	b, err := scanBucket(r.querier.QueryRow(ctx, query, memberID, groupID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tax bucket: %w", err)
	}
	return b, nil
}

func (r *TaxBucketRepository) ListForMemberYear(ctx context.Context, memberID int64, year int) ([]tax.Bucket, error) {
	query := bucketSelect + `
	WHERE member_id = $1 AND tax_year = $2
	ORDER BY group_id`

	rows, err := r.querier.Query(ctx, query, memberID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax buckets: %w", err)
	}
	defer rows.Close()

	var out []tax.Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax bucket: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// TaxReportRepository stores generated reports. Only the status transition is ever updated.
type TaxReportRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

const reportSelect = `
	SELECT id, member_id, group_id, tax_year, report_type, status, payload, checksum,
		document_path, created_at, finalized_at
	FROM tax_reports`

func (r *TaxReportRepository) Create(ctx context.Context, rep *tax.Report) error {
	payload, err := json.Marshal(rep.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode report payload: %w", err)
	}

	query := `
		INSERT INTO tax_reports (id, member_id, group_id, tax_year, report_type, status, payload, checksum, document_path, created_at, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.querier.Exec(ctx, query,
		rep.ID, rep.MemberID, rep.GroupID, rep.TaxYear, rep.Type, rep.Status,
		payload, rep.Checksum, rep.DocumentPath, rep.CreatedAt, rep.FinalizedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert tax report", "report_id", rep.ID, "error", err)
		return fmt.Errorf("failed to create tax report: %w", err)
	}
	return nil
}

func scanReport(row pgx.Row) (*tax.Report, error) {
	var (
		rep     tax.Report
		payload []byte
	)
	if err := row.Scan(&rep.ID, &rep.MemberID, &rep.GroupID, &rep.TaxYear, &rep.Type, &rep.Status,
		&payload, &rep.Checksum, &rep.DocumentPath, &rep.CreatedAt, &rep.FinalizedAt); err != nil {
		return nil, err
	}
	var err error
	if rep.Payload, err = tax.DecodePayload(payload); err != nil {
		return nil, err
	}
	rep.CreatedAt = rep.CreatedAt.UTC()
	return &rep, nil
}

func (r *TaxReportRepository) GetByID(ctx context.Context, id string) (*tax.Report, error) {
	rep, err := scanReport(r.querier.QueryRow(ctx, reportSelect+`
	WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tax.ErrReportNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get tax report: %w", err)
	}
	return rep, nil
}

func (r *TaxReportRepository) MarkFinal(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE tax_reports
		SET status = $1, finalized_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.querier.Exec(ctx, query, tax.ReportStatusFinal, at, id, tax.ReportStatusDraft)
	if err != nil {
		return false, fmt.Errorf("failed to finalize tax report: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TaxReportRepository) ListForMember(ctx context.Context, memberID int64, year int) ([]*tax.Report, error) {
	query := reportSelect + `
	WHERE member_id = $1 AND tax_year = $2
	ORDER BY created_at, id`

	rows, err := r.querier.Query(ctx, query, memberID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax reports: %w", err)
	}
	defer rows.Close()

	var out []*tax.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
