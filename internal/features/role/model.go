package role

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role grants permissions through attached permission groups and policies,
// and inherits both from its parent chain. WorkspaceID nil marks a
// global/system role. Version increments on every mutation to the role or
// its direct attachments; the decision cache keys off it.
type Role struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	WorkspaceID        *primitive.ObjectID  `json:"workspace_id,omitempty" bson:"workspace_id,omitempty"`
	Name               string               `json:"name" bson:"name"`
	Description        string               `json:"description,omitempty" bson:"description,omitempty"`
	ParentRoleID       *primitive.ObjectID  `json:"parent_role_id,omitempty" bson:"parent_role_id,omitempty"`
	PermissionGroupIDs []primitive.ObjectID `json:"permission_group_ids" bson:"permission_group_ids"`
	PolicyIDs          []primitive.ObjectID `json:"policy_ids" bson:"policy_ids"`
	// IsSystem roles cannot be deleted or re-parented.
	IsSystem bool `json:"is_system" bson:"is_system"`
	// IsSuperAdmin short-circuits aggregation to "all permissions". It is an
	// explicit, auditable flag — never inferred from the role name.
	IsSuperAdmin bool `json:"is_super_admin" bson:"is_super_admin"`
	// Disabled roles contribute nothing; roles referenced by active members
	// are soft-disabled instead of deleted.
	Disabled  bool      `json:"disabled" bson:"disabled"`
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
