// Package membership describes the read-only view the ledger has of the
// group registry and membership system it collaborates with.
package membership

import (
	"context"
	"strconv"
)

// Group is a savings group
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Member is a person who can hold principal in groups
type Member struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Directory answers existence and membership questions
type Directory interface {
	GetGroup(ctx context.Context, id int64) (*Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	IsActiveMember(ctx context.Context, memberID, groupID int64) (bool, error)
}

// ErrGroupNotFound indicates missing group
type ErrGroupNotFound struct {
	ID int64
}

func (e ErrGroupNotFound) Error() string {
	return "group not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrGroupNotFound
func (e ErrGroupNotFound) Is(target error) bool {
	_, ok := target.(ErrGroupNotFound)
	return ok
}

// ErrMemberNotFound indicates missing member
type ErrMemberNotFound struct {
	ID int64
}

func (e ErrMemberNotFound) Error() string {
	return "member not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrMemberNotFound
func (e ErrMemberNotFound) Is(target error) bool {
	_, ok := target.(ErrMemberNotFound)
	return ok
}

// ErrMemberNotInGroup indicates a member without an active membership in the group
type ErrMemberNotInGroup struct {
	MemberID int64
	GroupID  int64
}

func (e ErrMemberNotInGroup) Error() string {
	return "member " + strconv.FormatInt(e.MemberID, 10) + " is not an active member of group " + strconv.FormatInt(e.GroupID, 10)
}

// Is matches any ErrMemberNotInGroup
func (e ErrMemberNotInGroup) Is(target error) bool {
	_, ok := target.(ErrMemberNotInGroup)
	return ok
}
