package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/tax"
)

type TaxBucketRepository struct {
	querier Querier
	logger  *slog.Logger
}

const bucketColumns = `id, member_id, group_id, tax_year, taxable_interest, total_contributions, total_withdrawals, updated_at`

func scanBucket(row interface{ Scan(...any) error }) (*tax.Bucket, error) {
	var (
		b                                  tax.Bucket
		interest, contrib, withdraw, stamp string
	)
	if err := row.Scan(&b.ID, &b.MemberID, &b.GroupID, &b.TaxYear, &interest, &contrib, &withdraw, &stamp); err != nil {
		return nil, err
	}
	var err error
	if b.TaxableInterest, err = parseAmount(interest); err != nil {
		return nil, err
	}
	if b.TotalContributions, err = parseAmount(contrib); err != nil {
		return nil, err
	}
	if b.TotalWithdrawals, err = parseAmount(withdraw); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(stamp); err != nil {
		return nil, err
	}
	return &b, nil
}

// Apply reads and rewrites the bucket; the surrounding transaction holds the write lock.
func (r *TaxBucketRepository) Apply(ctx context.Context, memberID, groupID int64, year int, delta tax.BucketDelta, at time.Time) error {
	current, err := r.Get(ctx, memberID, groupID, year)
	if err != nil {
		return err
	}
	if current == nil {
		_, err = r.querier.ExecContext(ctx,
			`INSERT INTO tax_buckets (`+bucketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ledger.NewID("tax_"), memberID, groupID, year,
			delta.TaxableInterest.String(), delta.Contributions.String(), delta.Withdrawals.String(), formatTime(at),
		)
		if err != nil {
			return fmt.Errorf("failed to create tax bucket: %w", err)
		}
		return nil
	}

	_, err = r.querier.ExecContext(ctx,
		`UPDATE tax_buckets SET taxable_interest = ?, total_contributions = ?, total_withdrawals = ?, updated_at = ? WHERE id = ?`,
		current.TaxableInterest.Add(delta.TaxableInterest).String(),
		current.TotalContributions.Add(delta.Contributions).String(),
		current.TotalWithdrawals.Add(delta.Withdrawals).String(),
		formatTime(at), current.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tax bucket: %w", err)
	}
	return nil
}

func (r *TaxBucketRepository) Get(ctx context.Context, memberID, groupID int64, year int) (*tax.Bucket, error) {
	b, err := scanBucket(r.querier.QueryRowContext(ctx,
		`SELECT `+bucketColumns+` FROM tax_buckets WHERE member_id = ? AND group_id = ? AND tax_year = ?`,
		memberID, groupID, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tax bucket: %w", err)
	}
	return b, nil
}

func (r *TaxBucketRepository) ListForMemberYear(ctx context.Context, memberID int64, year int) ([]tax.Bucket, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT `+bucketColumns+` FROM tax_buckets WHERE member_id = ? AND tax_year = ? ORDER BY group_id`,
		memberID, year)
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

type TaxReportRepository struct {
	querier Querier
	logger  *slog.Logger
}

const reportColumns = `id, member_id, group_id, tax_year, report_type, status, payload, checksum, document_path, created_at, finalized_at`

func (r *TaxReportRepository) Create(ctx context.Context, rep *tax.Report) error {
	payload, err := json.Marshal(rep.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode report payload: %w", err)
	}
	var finalized sql.NullString
	if rep.FinalizedAt != nil {
		finalized = sql.NullString{String: formatTime(*rep.FinalizedAt), Valid: true}
	}
	_, err = r.querier.ExecContext(ctx,
		`INSERT INTO tax_reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.MemberID, nullInt(rep.GroupID), rep.TaxYear, rep.Type, rep.Status,
		string(payload), rep.Checksum, rep.DocumentPath, formatTime(rep.CreatedAt), finalized,
	)
	if err != nil {
		r.logger.Error("Failed to insert tax report", "report_id", rep.ID, "error", err)
		return fmt.Errorf("failed to create tax report: %w", err)
	}
	return nil
}

func scanReport(row interface{ Scan(...any) error }) (*tax.Report, error) {
	var (
		rep              tax.Report
		groupID          sql.NullInt64
		payload, created string
		finalized        sql.NullString
	)
	if err := row.Scan(&rep.ID, &rep.MemberID, &groupID, &rep.TaxYear, &rep.Type, &rep.Status,
		&payload, &rep.Checksum, &rep.DocumentPath, &created, &finalized); err != nil {
		return nil, err
	}
	var err error
	rep.GroupID = intPtr(groupID)
	if rep.Payload, err = tax.DecodePayload([]byte(payload)); err != nil {
		return nil, err
	}
	if rep.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rep.FinalizedAt, err = parseNullTime(finalized); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *TaxReportRepository) GetByID(ctx context.Context, id string) (*tax.Report, error) {
	rep, err := scanReport(r.querier.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM tax_reports WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tax.ErrReportNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get tax report: %w", err)
	}
	return rep, nil
}

func (r *TaxReportRepository) MarkFinal(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.querier.ExecContext(ctx,
		`UPDATE tax_reports SET status = ?, finalized_at = ? WHERE id = ? AND status = ?`,
		tax.ReportStatusFinal, formatTime(at), id, tax.ReportStatusDraft)
	if err != nil {
		return false, fmt.Errorf("failed to finalize tax report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *TaxReportRepository) ListForMember(ctx context.Context, memberID int64, year int) ([]*tax.Report, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM tax_reports WHERE member_id = ? AND tax_year = ? ORDER BY created_at, id`,
		memberID, year)
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
