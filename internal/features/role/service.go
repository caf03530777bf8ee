package role

import (
	"context"
	"fmt"
	"time"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/config"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/versionfeed"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRefChecker reports whether any workspace membership still references
// a role. Implemented by the member repository; injected as an interface to
// avoid a package cycle.
type MemberRefChecker interface {
	CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error)
}

type RoleService interface {
	CreateRole(ctx context.Context, role *Role) (*Role, error)
	GetRoleByID(ctx context.Context, id string) (*Role, error)
	ListRoles(ctx context.Context, workspaceID string) ([]Role, error)
	UpdateRole(ctx context.Context, id string, name, description string) (*Role, error)
	SetParent(ctx context.Context, id string, parentID *string) (*Role, error)
	SetPermissionGroups(ctx context.Context, id string, groupIDs []string) (*Role, error)
	SetPolicies(ctx context.Context, id string, policyIDs []string) (*Role, error)
	DisableRole(ctx context.Context, id string, disabled bool) (*Role, error)
	DeleteRole(ctx context.Context, id string) error
}

type RoleServiceImpl struct {
	Repo         RoleRepository
	MemberRefs   MemberRefChecker
	AuditService audit.AuditService
	Feed         versionfeed.Publisher
	maxDepth     int
}

func NewRoleService(
	repo RoleRepository,
	memberRefs MemberRefChecker,
	auditService audit.AuditService,
	feed versionfeed.Publisher,
	cfg *config.Config,
) RoleService {
	return &RoleServiceImpl{
		Repo:         repo,
		MemberRefs:   memberRefs,
		AuditService: auditService,
		Feed:         feed,
		maxDepth:     cfg.MaxRoleDepth,
	}
}

func (s *RoleServiceImpl) CreateRole(ctx context.Context, role *Role) (*Role, error) {
	if role.Name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	role.ID = primitive.NewObjectID()
	role.Version = 1
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	if role.PermissionGroupIDs == nil {
		role.PermissionGroupIDs = []primitive.ObjectID{}
	}
	if role.PolicyIDs == nil {
		role.PolicyIDs = []primitive.ObjectID{}
	}

	if role.ParentRoleID != nil {
		if err := s.checkNoCycle(ctx, role.ID, *role.ParentRoleID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Create(ctx, role); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "role", role.ID.Hex(), map[string]common_models.Change{
		"name": {New: role.Name},
	})

	return role, nil
}

func (s *RoleServiceImpl) GetRoleByID(ctx context.Context, id string) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}
	return s.Repo.FindByID(ctx, oid)
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context, workspaceID string) ([]Role, error) {
	if workspaceID == "" {
		return s.Repo.List(ctx, nil)
	}
	oid, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace ID: %w", err)
	}
	return s.Repo.List(ctx, &oid)
}

func (s *RoleServiceImpl) UpdateRole(ctx context.Context, id string, name, description string) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", id, map[string]common_models.Change{
		"name": {New: name},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

// SetParent re-parents a role. System roles cannot be re-parented, and any
// parent chain that would lead back to the role itself is rejected up front
// so the stored forest stays acyclic.
func (s *RoleServiceImpl) SetParent(ctx context.Context, id string, parentID *string) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	role, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, fmt.Errorf("cannot re-parent a system role")
	}

	var parentOID *primitive.ObjectID
	if parentID != nil {
		p, err := primitive.ObjectIDFromHex(*parentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent role ID: %w", err)
		}
		if p == oid {
			return nil, fmt.Errorf("role cannot be its own parent")
		}
		if err := s.checkNoCycle(ctx, oid, p); err != nil {
			return nil, err
		}
		parentOID = &p
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{"parent_role_id": parentOID})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", id, map[string]common_models.Change{
		"parent_role_id": {Old: role.ParentRoleID, New: parentOID},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *RoleServiceImpl) SetPermissionGroups(ctx context.Context, id string, groupIDs []string) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	oids, err := parseObjectIDs(groupIDs)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{"permission_group_ids": oids})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", id, map[string]common_models.Change{
		"permission_group_ids": {New: groupIDs},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *RoleServiceImpl) SetPolicies(ctx context.Context, id string, policyIDs []string) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	oids, err := parseObjectIDs(policyIDs)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{"policy_ids": oids})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", id, map[string]common_models.Change{
		"policy_ids": {New: policyIDs},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *RoleServiceImpl) DisableRole(ctx context.Context, id string, disabled bool) (*Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{"disabled": disabled})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "role", id, map[string]common_models.Change{
		"disabled": {New: disabled},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

// DeleteRole hard-deletes a role. System roles, roles with children and
// roles still referenced by a membership are protected; callers should
// soft-disable instead.
func (s *RoleServiceImpl) DeleteRole(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid role ID: %w", err)
	}

	role, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("cannot delete system role")
	}

	children, err := s.Repo.CountChildren(ctx, oid)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("cannot delete role with %d child roles; re-parent them first", children)
	}

	refs, err := s.MemberRefs.CountByRole(ctx, oid)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("role is assigned to %d members; disable it instead", refs)
	}

	if err := s.Repo.Delete(ctx, oid); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "role", id, map[string]common_models.Change{
		"name": {Old: role.Name},
	})

	s.Feed.VersionBumped(ctx, versionfeed.Event{
		WorkspaceID: hexOrEmpty(role.WorkspaceID),
		Kind:        "role",
		EntityID:    id,
		Version:     role.Version + 1,
	})

	return nil
}

// checkNoCycle walks the prospective parent chain and rejects the change if
// it reaches roleID or runs past the depth guard.
func (s *RoleServiceImpl) checkNoCycle(ctx context.Context, roleID, parentID primitive.ObjectID) error {
	cur := parentID
	for depth := 0; depth < s.maxDepth; depth++ {
		if cur == roleID {
			return fmt.Errorf("parent chain would create a cycle through role %s", roleID.Hex())
		}
		parent, err := s.Repo.FindByID(ctx, cur)
		if err != nil {
			return err
		}
		if parent.ParentRoleID == nil {
			return nil
		}
		cur = *parent.ParentRoleID
	}
	return fmt.Errorf("parent chain exceeds maximum depth %d", s.maxDepth)
}

func (s *RoleServiceImpl) publishBump(ctx context.Context, role *Role) {
	s.Feed.VersionBumped(ctx, versionfeed.Event{
		WorkspaceID: hexOrEmpty(role.WorkspaceID),
		Kind:        "role",
		EntityID:    role.ID.Hex(),
		Version:     role.Version,
	})
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("invalid object ID %q: %w", h, err)
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
