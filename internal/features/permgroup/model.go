package permgroup

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PermissionGroup is a named bundle of flat permission keys shared across
// roles. Identity is immutable; the permission set is mutable and every
// mutation bumps Version so decision-cache keys derived from it change.
type PermissionGroup struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Permissions []string           `json:"permissions" bson:"permissions"` // flat keys, e.g. "canCreateProject"
	Version     int64              `json:"version" bson:"version"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}
