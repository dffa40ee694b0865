package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// DirectoryRepository reads the membership tables owned by the group service
type DirectoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ membership.Directory = (*DirectoryRepository)(nil)

func (r *DirectoryRepository) GetGroup(ctx context.Context, id int64) (*membership.Group, error) {
	var g membership.Group
	err := r.querier.QueryRow(ctx, `SELECT id, name FROM savings_groups WHERE id = $1`, id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, membership.ErrGroupNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

func (r *DirectoryRepository) ListGroups(ctx context.Context) ([]membership.Group, error) {
	rows, err := r.querier.Query(ctx, `SELECT id, name FROM savings_groups ORDER BY id`)
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
	err := r.querier.QueryRow(ctx, `SELECT id, name, email FROM members WHERE id = $1`, id).Scan(&m.ID, &m.Name, &m.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, membership.ErrMemberNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (r *DirectoryRepository) ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	query := `
		SELECT member_id
		FROM group_memberships
		WHERE group_id = $1 AND is_active
		ORDER BY member_id
	`
	rows, err := r.querier.Query(ctx, query, groupID)
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
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_memberships
			WHERE member_id = $1 AND group_id = $2 AND is_active
		)
	`
	var ok bool
	if err := r.querier.QueryRow(ctx, query, memberID, groupID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}
