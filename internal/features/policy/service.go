package policy

import (
	"context"
	"fmt"
	"time"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/features/audit"
	"go-taskhub/internal/versionfeed"
	"go-taskhub/pkg/condition"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PolicyService interface {
	CreatePolicy(ctx context.Context, p *Policy) (*Policy, error)
	GetPolicyByID(ctx context.Context, id string) (*Policy, error)
	ListPolicies(ctx context.Context, workspaceID string) ([]Policy, error)
	UpdatePolicy(ctx context.Context, id string, p *Policy) (*Policy, error)
	DeletePolicy(ctx context.Context, id string) error
}

type PolicyServiceImpl struct {
	Repo         PolicyRepository
	AuditService audit.AuditService
	Feed         versionfeed.Publisher
}

func NewPolicyService(repo PolicyRepository, auditService audit.AuditService, feed versionfeed.Publisher) PolicyService {
	return &PolicyServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Feed:         feed,
	}
}

func validatePolicy(p *Policy) error {
	if p.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	if p.Effect != common_models.EffectAllow && p.Effect != common_models.EffectDeny {
		return fmt.Errorf("policy effect must be %q or %q", common_models.EffectAllow, common_models.EffectDeny)
	}
	if p.Resource == "" || p.Action == "" {
		return fmt.Errorf("policy resource and action are required")
	}
	// Reject malformed conditions at write time; the evaluator would only
	// skip them with a warning later.
	if err := condition.Validate(p.Condition); err != nil {
		return fmt.Errorf("invalid condition: %w", err)
	}
	return nil
}

func (s *PolicyServiceImpl) CreatePolicy(ctx context.Context, p *Policy) (*Policy, error) {
	if err := validatePolicy(p); err != nil {
		return nil, err
	}

	p.ID = primitive.NewObjectID()
	p.Version = 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "policy", p.ID.Hex(), map[string]common_models.Change{
		"name":   {New: p.Name},
		"effect": {New: p.Effect},
	})

	return p, nil
}

func (s *PolicyServiceImpl) GetPolicyByID(ctx context.Context, id string) (*Policy, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid policy ID: %w", err)
	}
	return s.Repo.FindByID(ctx, oid)
}

func (s *PolicyServiceImpl) ListPolicies(ctx context.Context, workspaceID string) ([]Policy, error) {
	if workspaceID == "" {
		return s.Repo.List(ctx, nil)
	}
	oid, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace ID: %w", err)
	}
	return s.Repo.List(ctx, &oid)
}

func (s *PolicyServiceImpl) UpdatePolicy(ctx context.Context, id string, p *Policy) (*Policy, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid policy ID: %w", err)
	}

	if err := validatePolicy(p); err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, oid, bson.M{
		"name":      p.Name,
		"effect":    p.Effect,
		"resource":  p.Resource,
		"action":    p.Action,
		"condition": p.Condition,
	})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "policy", id, map[string]common_models.Change{
		"effect":   {New: updated.Effect},
		"resource": {New: updated.Resource},
		"action":   {New: updated.Action},
	})

	s.Feed.VersionBumped(ctx, versionfeed.Event{
		WorkspaceID: hexOrEmpty(updated.WorkspaceID),
		Kind:        "policy",
		EntityID:    id,
		Version:     updated.Version,
	})

	return updated, nil
}

func (s *PolicyServiceImpl) DeletePolicy(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid policy ID: %w", err)
	}

	p, err := s.Repo.FindByID(ctx, oid)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, oid); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "policy", id, map[string]common_models.Change{
		"name": {Old: p.Name},
	})

	s.Feed.VersionBumped(ctx, versionfeed.Event{
		WorkspaceID: hexOrEmpty(p.WorkspaceID),
		Kind:        "policy",
		EntityID:    id,
		Version:     p.Version + 1,
	})

	return nil
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
