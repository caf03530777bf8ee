package member

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAssignment binds a role to a membership, optionally until ExpiresAt.
// Expired assignments contribute nothing; expiry is enforced at resolution
// time, never by a background sweep (the sweep is hygiene only).
type RoleAssignment struct {
	RoleID     primitive.ObjectID `json:"role_id" bson:"role_id"`
	AssignedAt time.Time          `json:"assigned_at" bson:"assigned_at"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// WorkspaceMember is the join entity between a user and a workspace; the
// (workspace, user) pair is unique. It owns the role assignments for that
// membership and carries free-form metadata consumed by policy conditions
// (department, title, ...). Inactive members resolve to zero permissions.
type WorkspaceMember struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	WorkspaceID primitive.ObjectID     `json:"workspace_id" bson:"workspace_id"`
	UserID      primitive.ObjectID     `json:"user_id" bson:"user_id"`
	Assignments []RoleAssignment       `json:"assignments" bson:"assignments"`
	IsActive    bool                   `json:"is_active" bson:"is_active"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Version     int64                  `json:"version" bson:"version"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" bson:"updated_at"`
}
