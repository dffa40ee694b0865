package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/membership"
)

// DirectoryRepository reads, and in local mode writes, the membership tables
type DirectoryRepository struct {
	querier Querier
	logger  *slog.Logger
}

var _ membership.Directory = (*DirectoryRepository)(nil)

func (r *DirectoryRepository) GetGroup(ctx context.Context, id int64) (*membership.Group, error) {
	var g membership.Group
	err := r.querier.QueryRowContext(ctx, `SELECT id, name FROM savings_groups WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, membership.ErrGroupNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

func (r *DirectoryRepository) ListGroups(ctx context.Context) ([]membership.Group, error) {
	rows, err := r.querier.QueryContext(ctx, `SELECT id, name FROM savings_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []membership.Group
	for rows.Next() {
		var g membership.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *DirectoryRepository) GetMember(ctx context.Context, id int64) (*membership.Member, error) {
	var m membership.Member
	err := r.querier.QueryRowContext(ctx, `SELECT id, name, email FROM members WHERE id = ?`, id).Scan(&m.ID, &m.Name, &m.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, membership.ErrMemberNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (r *DirectoryRepository) ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT member_id FROM group_memberships WHERE group_id = ? AND is_active = 1 ORDER BY member_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *DirectoryRepository) IsActiveMember(ctx context.Context, memberID, groupID int64) (bool, error) {
	var n int
	err := r.querier.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_memberships WHERE member_id = ? AND group_id = ? AND is_active = 1`,
		memberID, groupID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// SaveGroup inserts or renames a group
func (r *DirectoryRepository) SaveGroup(ctx context.Context, g membership.Group) error {
	_, err := r.querier.ExecContext(ctx,
		`INSERT INTO savings_groups (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = excluded.name`, g.ID, g.Name)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

// SaveMember inserts or updates a member
func (r *DirectoryRepository) SaveMember(ctx context.Context, m membership.Member) error {
	_, err := r.querier.ExecContext(ctx,
		`INSERT INTO members (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`, m.ID, m.Name, m.Email)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// SetMembership adds a member to a group or toggles an existing membership
func (r *DirectoryRepository) SetMembership(ctx context.Context, groupID, memberID int64, active bool) error {
	_, err := r.querier.ExecContext(ctx,
		`INSERT INTO group_memberships (group_id, member_id, is_active) VALUES (?, ?, ?)
		ON CONFLICT (group_id, member_id) DO UPDATE SET is_active = excluded.is_active`, groupID, memberID, active)
	if err != nil {
		return fmt.Errorf("failed to set membership: %w", err)
	}
	return nil
}
