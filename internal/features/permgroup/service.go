package permgroup

import (
	"context"
	"fmt"
	"time"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/versionfeed"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupService interface {
	CreateGroup(ctx context.Context, group *PermissionGroup) (*PermissionGroup, error)
	GetGroupByID(ctx context.Context, id string) (*PermissionGroup, error)
	ListGroups(ctx context.Context) ([]PermissionGroup, error)
	SetPermissions(ctx context.Context, id string, permissions []string) (*PermissionGroup, error)
	DeleteGroup(ctx context.Context, id string) error
}

type GroupServiceImpl struct {
	Repo         GroupRepository
	AuditService audit.AuditService
	Feed         versionfeed.Publisher
}

func NewGroupService(repo GroupRepository, auditService audit.AuditService, feed versionfeed.Publisher) GroupService {
	return &GroupServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Feed:         feed,
	}
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, group *PermissionGroup) (*PermissionGroup, error) {
	if group.Name == "" {
		return nil, fmt.Errorf("permission group name is required")
	}

	group.ID = primitive.NewObjectID()
	group.Version = 1
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	if group.Permissions == nil {
		group.Permissions = []string{}
	}

	if err := s.Repo.Create(ctx, group); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "permission_group", group.ID.Hex(), map[string]common_models.Change{
		"name": {New: group.Name},
	})

	return group, nil
}

func (s *GroupServiceImpl) GetGroupByID(ctx context.Context, id string) (*PermissionGroup, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid permission group ID: %w", err)
	}
	return s.Repo.FindByID(ctx, oid)
}

func (s *GroupServiceImpl) ListGroups(ctx context.Context) ([]PermissionGroup, error) {
	return s.Repo.List(ctx)
}

func (s *GroupServiceImpl) SetPermissions(ctx context.Context, id string, permissions []string) (*PermissionGroup, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid permission group ID: %w", err)
	}

	old, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdatePermissions(ctx, oid, permissions)
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "permission_group", id, map[string]common_models.Change{
		"permissions": {Old: old.Permissions, New: updated.Permissions},
	})

	s.Feed.VersionBumped(ctx, versionfeed.Event{
		Kind:     "permission_group",
		EntityID: id,
		Version:  updated.Version,
	})

	return updated, nil
}

func (s *GroupServiceImpl) DeleteGroup(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid permission group ID: %w", err)
	}

	group, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, oid); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "permission_group", id, map[string]common_models.Change{
		"name": {Old: group.Name},
	})

	s.Feed.VersionBumped(ctx, versionfeed.Event{
		Kind:     "permission_group",
		EntityID: id,
		Version:  group.Version + 1,
	})

	return nil
}
