package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	WorkspaceIDKey ContextKey = "workspace_id"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionAssign AuditAction = "ASSIGN"
	AuditActionRevoke AuditAction = "REVOKE"
	AuditActionCron   AuditAction = "CRON"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	Action      AuditAction        `bson:"action" json:"action"`
	Entity      string             `bson:"entity" json:"entity"`       // entity kind (role, policy, ...)
	RecordID    string             `bson:"record_id" json:"record_id"` // ID of the record being modified
	ActorID     string             `bson:"actor_id" json:"actor_id"`   // User ID who performed the action
	Changes     map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	WorkspaceID  string    `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}

// Effect is a policy outcome when the policy applies.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Condition DSL (shared between the policy feature and the evaluator)

type RuleType string

const (
	RuleTypeStatic   RuleType = "static"
	RuleTypeVariable RuleType = "variable"
)

type ConditionRule struct {
	Field    string      `json:"field" bson:"field"`       // dotted attribute path, e.g. "subject.department"
	Operator string      `json:"operator" bson:"operator"` // eq, ne, in, nin
	Value    interface{} `json:"value" bson:"value"`
	Type     RuleType    `json:"type" bson:"type"` // static literal, or "$path" lookup when variable
}

type ConditionGroup struct {
	Operator string           `json:"operator" bson:"operator"` // "AND" | "OR"
	Rules    []ConditionRule  `json:"rules" bson:"rules"`
	Groups   []ConditionGroup `json:"groups" bson:"groups"`
}
