package member

import (
	"context"
	"fmt"
	"time"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/versionfeed"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemberService interface {
	InviteMember(ctx context.Context, workspaceID, userID string, metadata map[string]interface{}) (*WorkspaceMember, error)
	GetMember(ctx context.Context, workspaceID, userID string) (*WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID string) ([]WorkspaceMember, error)
	// AssignRole adds a role assignment, optionally time-limited for
	// temporary elevation.
	AssignRole(ctx context.Context, workspaceID, userID, roleID string, expiresAt *time.Time) (*WorkspaceMember, error)
	RevokeRole(ctx context.Context, workspaceID, userID, roleID string) (*WorkspaceMember, error)
	SetActive(ctx context.Context, workspaceID, userID string, active bool) (*WorkspaceMember, error)
	SetMetadata(ctx context.Context, workspaceID, userID string, metadata map[string]interface{}) (*WorkspaceMember, error)
}

type MemberServiceImpl struct {
	Repo         MemberRepository
	AuditService audit.AuditService
	Feed         versionfeed.Publisher
}

func NewMemberService(repo MemberRepository, auditService audit.AuditService, feed versionfeed.Publisher) MemberService {
	return &MemberServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Feed:         feed,
	}
}

func (s *MemberServiceImpl) InviteMember(ctx context.Context, workspaceID, userID string, metadata map[string]interface{}) (*WorkspaceMember, error) {
	wsOID, userOID, err := parseIDs(workspaceID, userID)
	if err != nil {
		return nil, err
	}

	m := &WorkspaceMember{
		ID:          primitive.NewObjectID(),
		WorkspaceID: wsOID,
		UserID:      userOID,
		Assignments: []RoleAssignment{},
		IsActive:    true,
		Metadata:    metadata,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "member", m.ID.Hex(), map[string]common_models.Change{
		"user_id":      {New: userID},
		"workspace_id": {New: workspaceID},
	})

	return m, nil
}

func (s *MemberServiceImpl) GetMember(ctx context.Context, workspaceID, userID string) (*WorkspaceMember, error) {
	wsOID, userOID, err := parseIDs(workspaceID, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.FindByUserAndWorkspace(ctx, userOID, wsOID)
}

func (s *MemberServiceImpl) ListMembers(ctx context.Context, workspaceID string) ([]WorkspaceMember, error) {
	wsOID, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace ID: %w", err)
	}
	return s.Repo.ListByWorkspace(ctx, wsOID)
}

func (s *MemberServiceImpl) AssignRole(ctx context.Context, workspaceID, userID, roleID string, expiresAt *time.Time) (*WorkspaceMember, error) {
	m, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	roleOID, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	assignments := make([]RoleAssignment, 0, len(m.Assignments)+1)
	for _, a := range m.Assignments {
		if a.RoleID == roleOID {
			continue // re-assignment replaces the previous expiry
		}
		assignments = append(assignments, a)
	}
	assignments = append(assignments, RoleAssignment{
		RoleID:     roleOID,
		AssignedAt: time.Now(),
		ExpiresAt:  expiresAt,
	})

	updated, err := s.Repo.Update(ctx, m.ID, bson.M{"assignments": assignments})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAssign, "member", m.ID.Hex(), map[string]common_models.Change{
		"role_id":    {New: roleID},
		"expires_at": {New: expiresAt},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *MemberServiceImpl) RevokeRole(ctx context.Context, workspaceID, userID, roleID string) (*WorkspaceMember, error) {
	m, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	roleOID, err := primitive.ObjectIDFromHex(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role ID: %w", err)
	}

	assignments := make([]RoleAssignment, 0, len(m.Assignments))
	for _, a := range m.Assignments {
		if a.RoleID != roleOID {
			assignments = append(assignments, a)
		}
	}

	updated, err := s.Repo.Update(ctx, m.ID, bson.M{"assignments": assignments})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRevoke, "member", m.ID.Hex(), map[string]common_models.Change{
		"role_id": {Old: roleID},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *MemberServiceImpl) SetActive(ctx context.Context, workspaceID, userID string, active bool) (*WorkspaceMember, error) {
	m, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, m.ID, bson.M{"is_active": active})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "member", m.ID.Hex(), map[string]common_models.Change{
		"is_active": {Old: m.IsActive, New: active},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *MemberServiceImpl) SetMetadata(ctx context.Context, workspaceID, userID string, metadata map[string]interface{}) (*WorkspaceMember, error) {
	m, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, m.ID, bson.M{"metadata": metadata})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "member", m.ID.Hex(), map[string]common_models.Change{
		"metadata": {Old: m.Metadata, New: metadata},
	})

	s.publishBump(ctx, updated)
	return updated, nil
}

func (s *MemberServiceImpl) publishBump(ctx context.Context, m *WorkspaceMember) {
	s.Feed.VersionBumped(ctx, versionfeed.Event{
		WorkspaceID: m.WorkspaceID.Hex(),
		Kind:        "member",
		EntityID:    m.ID.Hex(),
		Version:     m.Version,
	})
}

func parseIDs(workspaceID, userID string) (wsOID, userOID primitive.ObjectID, err error) {
	wsOID, err = primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return wsOID, userOID, fmt.Errorf("invalid workspace ID: %w", err)
	}
	userOID, err = primitive.ObjectIDFromHex(userID)
	if err != nil {
		return wsOID, userOID, fmt.Errorf("invalid user ID: %w", err)
	}
	return wsOID, userOID, nil
}
