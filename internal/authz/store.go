package authz

import (
	"context"
	"time"

	common_models "go-taskhub/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The engine works against its own read-only entity views rather than the
// feature packages' persistence models. This keeps the resolution algorithm
// independent of the storage engine and lets cycle detection and
// version-vector computation run against in-memory fixtures.

// Role is the engine's view of a role.
type Role struct {
	ID                 primitive.ObjectID
	WorkspaceID        *primitive.ObjectID
	Name               string
	ParentRoleID       *primitive.ObjectID
	PermissionGroupIDs []primitive.ObjectID
	PolicyIDs          []primitive.ObjectID
	IsSystem           bool
	IsSuperAdmin       bool
	Disabled           bool
	Version            int64
}

// PermissionGroup is the engine's view of a permission bundle.
type PermissionGroup struct {
	ID          primitive.ObjectID
	Name        string
	Permissions []string
	Version     int64
}

// Policy is the engine's view of an attribute-based rule.
type Policy struct {
	ID        primitive.ObjectID
	Name      string
	Effect    common_models.Effect
	Resource  string
	Action    string
	Condition *common_models.ConditionGroup
	Version   int64
}

// RoleAssignment binds a role to a membership, optionally until ExpiresAt.
type RoleAssignment struct {
	RoleID    primitive.ObjectID
	ExpiresAt *time.Time
}

// Member is the engine's view of a workspace membership.
type Member struct {
	ID          primitive.ObjectID
	WorkspaceID primitive.ObjectID
	UserID      primitive.ObjectID
	Assignments []RoleAssignment
	IsActive    bool
	Metadata    map[string]interface{}
	Version     int64
}

// EntityStore is the engine's only suspension point: everything after the
// fetches is pure computation. Implementations must be safe for concurrent
// readers and return ErrNotFound (possibly wrapped) for missing entities.
type EntityStore interface {
	GetRole(ctx context.Context, id primitive.ObjectID) (*Role, error)
	GetPermissionGroup(ctx context.Context, id primitive.ObjectID) (*PermissionGroup, error)
	GetPolicy(ctx context.Context, id primitive.ObjectID) (*Policy, error)
	GetWorkspaceMember(ctx context.Context, userID, workspaceID primitive.ObjectID) (*Member, error)
}
