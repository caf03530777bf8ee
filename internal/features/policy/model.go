package policy

import (
	"time"

	common_models "go-taskhub/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy is an attribute-based rule evaluated against a request context.
// Resource and Action match exactly or via the "*" wildcard; Condition is a
// predicate over dotted attribute paths. WorkspaceID nil means the policy is
// global.
type Policy struct {
	ID          primitive.ObjectID            `json:"id" bson:"_id,omitempty"`
	WorkspaceID *primitive.ObjectID           `json:"workspace_id,omitempty" bson:"workspace_id,omitempty"`
	Name        string                        `json:"name" bson:"name"`
	Effect      common_models.Effect          `json:"effect" bson:"effect"`
	Resource    string                        `json:"resource" bson:"resource"`
	Action      string                        `json:"action" bson:"action"`
	Condition   *common_models.ConditionGroup `json:"condition,omitempty" bson:"condition,omitempty"`
	Version     int64                         `json:"version" bson:"version"`
	CreatedAt   time.Time                     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at" bson:"updated_at"`
}
