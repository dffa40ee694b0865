// Package tax holds the year-to-date tax rollups and the checksummed
// reports generated from them.
package tax

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType names the generated document kind
type ReportType string

const (
	ReportTypeStatement ReportType = "statement"
	ReportType1099INT   ReportType = "1099-INT"
	ReportTypeSummary   ReportType = "summary"
)

// IDPrefix is the identifier prefix used for reports of this type
func (t ReportType) IDPrefix() string {
	switch t {
	case ReportType1099INT:
		return "1099_"
	case ReportTypeSummary:
		return "sum_"
	default:
		return "rpt_"
	}
}

// ReportStatus is the lifecycle state of a report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusFinal     ReportStatus = "final"
	ReportStatusCorrected ReportStatus = "corrected"
)

// Payload is the self-describing snapshot of computed figures
type Payload map[string]any

// PayerInfo identifies the organisation issuing a 1099-INT
type PayerInfo struct {
	Name    string `json:"name" toml:"name"`
	TIN     string `json:"tin" toml:"tin"`
	Address string `json:"address" toml:"address"`
}

// Report is a generated tax document, immutable once final
type Report struct {
	ID           string       `json:"id"`
	MemberID     int64        `json:"member_id"`
	GroupID      *int64       `json:"group_id,omitempty"`
	TaxYear      int          `json:"tax_year"`
	Type         ReportType   `json:"report_type"`
	Status       ReportStatus `json:"status"`
	Payload      Payload      `json:"payload"`
	Checksum     string       `json:"checksum"`
	DocumentPath string       `json:"document_path,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinalizedAt  *time.Time   `json:"finalized_at,omitempty"`
}

// ReportRepository persists reports
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id string) (*Report, error)
	// MarkFinal moves a draft to final and reports false if the report was not a draft
	MarkFinal(ctx context.Context, id string, at time.Time) (bool, error)
	ListForMember(ctx context.Context, memberID int64, year int) ([]*Report, error)
}

// Checksum is the hex SHA-256 of the payload's canonical JSON encoding.
// encoding/json writes map keys in sorted order, so equal payloads hash equally.
func Checksum(payload Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// DecodePayload reads a stored payload, keeping numbers in their literal form
// so that re-encoding reproduces the checksummed bytes.
func DecodePayload(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return p, nil
}

// NewReport creates a draft report and stamps its checksum.
func NewReport(id string, memberID int64, groupID *int64, year int, reportType ReportType, payload Payload, now time.Time) (*Report, error) {
	checksum, err := Checksum(payload)
	if err != nil {
		return nil, err
	}
	return &Report{
		ID:        id,
		MemberID:  memberID,
		GroupID:   groupID,
		TaxYear:   year,
		Type:      reportType,
		Status:    ReportStatusDraft,
		Payload:   payload,
		Checksum:  checksum,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}, nil
}

// VerifyChecksum recomputes the payload hash and compares it to the stored one.
func (r *Report) VerifyChecksum() (bool, error) {
	sum, err := Checksum(r.Payload)
	if err != nil {
		return false, err
	}
	return sum == r.Checksum, nil
}

// Finalize transitions a draft to final. Payload and checksum are untouched.
func (r *Report) Finalize(now time.Time) error {
	if r.Status != ReportStatusDraft {
		return ErrAlreadyFinalized{ReportID: r.ID, Status: r.Status}
	}
	at := now.UTC().Truncate(time.Microsecond)
	r.Status = ReportStatusFinal
	r.FinalizedAt = &at
	return nil
}
