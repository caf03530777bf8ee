// Package mongostore adapts the feature repositories to the authorization
// engine's EntityStore, translating persistence models into the engine's
// read-only views and repository sentinels into authz.ErrNotFound.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go-taskhub/internal/authz"
	"go-taskhub/internal/features/member"
	"go-taskhub/internal/features/permgroup"
	"go-taskhub/internal/features/policy"
	"go-taskhub/internal/features/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	roles    role.RoleRepository
	groups   permgroup.GroupRepository
	policies policy.PolicyRepository
	members  member.MemberRepository
}

func NewStore(
	roles role.RoleRepository,
	groups permgroup.GroupRepository,
	policies policy.PolicyRepository,
	members member.MemberRepository,
) *Store {
	return &Store{roles: roles, groups: groups, policies: policies, members: members}
}

var _ authz.EntityStore = (*Store)(nil)

func (s *Store) GetRole(ctx context.Context, id primitive.ObjectID) (*authz.Role, error) {
	r, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return nil, fmt.Errorf("role %s: %w", id.Hex(), authz.ErrNotFound)
		}
		return nil, err
	}
	return &authz.Role{
		ID:                 r.ID,
		WorkspaceID:        r.WorkspaceID,
		Name:               r.Name,
		ParentRoleID:       r.ParentRoleID,
		PermissionGroupIDs: r.PermissionGroupIDs,
		PolicyIDs:          r.PolicyIDs,
		IsSystem:           r.IsSystem,
		IsSuperAdmin:       r.IsSuperAdmin,
		Disabled:           r.Disabled,
		Version:            r.Version,
	}, nil
}

func (s *Store) GetPermissionGroup(ctx context.Context, id primitive.ObjectID) (*authz.PermissionGroup, error) {
	g, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, permgroup.ErrNotFound) {
			return nil, fmt.Errorf("permission group %s: %w", id.Hex(), authz.ErrNotFound)
		}
		return nil, err
	}
	return &authz.PermissionGroup{
		ID:          g.ID,
		Name:        g.Name,
		Permissions: g.Permissions,
		Version:     g.Version,
	}, nil
}

func (s *Store) GetPolicy(ctx context.Context, id primitive.ObjectID) (*authz.Policy, error) {
	p, err := s.policies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			return nil, fmt.Errorf("policy %s: %w", id.Hex(), authz.ErrNotFound)
		}
		return nil, err
	}
	return &authz.Policy{
		ID:        p.ID,
		Name:      p.Name,
		Effect:    p.Effect,
		Resource:  p.Resource,
		Action:    p.Action,
		Condition: p.Condition,
		Version:   p.Version,
	}, nil
}

func (s *Store) GetWorkspaceMember(ctx context.Context, userID, workspaceID primitive.ObjectID) (*authz.Member, error) {
	m, err := s.members.FindByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return nil, fmt.Errorf("member %s/%s: %w", userID.Hex(), workspaceID.Hex(), authz.ErrNotFound)
		}
		return nil, err
	}
	assignments := make([]authz.RoleAssignment, 0, len(m.Assignments))
	for _, a := range m.Assignments {
		assignments = append(assignments, authz.RoleAssignment{RoleID: a.RoleID, ExpiresAt: a.ExpiresAt})
	}
	return &authz.Member{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Assignments: assignments,
		IsActive:    m.IsActive,
		Metadata:    m.Metadata,
		Version:     m.Version,
	}, nil
}
