package authz

import (
	"testing"

	common_models "go-taskhub/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/stretchr/testify/require"
)

func allowPolicy(resource, action string) Policy {
	return Policy{ID: primitive.NewObjectID(), Name: "allow", Effect: common_models.EffectAllow, Resource: resource, Action: action, Version: 1}
}

func denyPolicy(resource, action string) Policy {
	return Policy{ID: primitive.NewObjectID(), Name: "deny", Effect: common_models.EffectDeny, Resource: resource, Action: action, Version: 1}
}

func TestEvaluateDenyOverridesAllow(t *testing.T) {
	e := NewPolicyEvaluator(zap.NewNop())
	in := CheckInput{Resource: "task", Action: "delete"}

	policies := []Policy{allowPolicy("task", "delete"), denyPolicy("task", "delete"), allowPolicy("task", "*")}
	require.Equal(t, DecisionDeny, e.Evaluate(policies, in))

	// Order independent: deny first, allows after.
	policies = []Policy{denyPolicy("task", "delete"), allowPolicy("task", "delete")}
	require.Equal(t, DecisionDeny, e.Evaluate(policies, in))
}

func TestEvaluateWildcards(t *testing.T) {
	e := NewPolicyEvaluator(zap.NewNop())

	require.Equal(t, DecisionAllow, e.Evaluate([]Policy{allowPolicy("*", "read")}, CheckInput{Resource: "project", Action: "read"}))
	require.Equal(t, DecisionAllow, e.Evaluate([]Policy{allowPolicy("task", "*")}, CheckInput{Resource: "task", Action: "archive"}))
	require.Equal(t, DecisionNotApplicable, e.Evaluate([]Policy{allowPolicy("task", "read")}, CheckInput{Resource: "project", Action: "read"}))
}

func TestEvaluateConditions(t *testing.T) {
	e := NewPolicyEvaluator(zap.NewNop())

	owned := allowPolicy("task", "update")
	owned.Condition = &common_models.ConditionGroup{Rules: []common_models.ConditionRule{
		{Field: "resource.owner_id", Operator: "eq", Value: "$subject.user_id", Type: common_models.RuleTypeVariable},
	}}

	in := CheckInput{
		Resource:      "task",
		Action:        "update",
		SubjectAttrs:  map[string]interface{}{"user_id": "u-1"},
		ResourceAttrs: map[string]interface{}{"owner_id": "u-1"},
	}
	require.Equal(t, DecisionAllow, e.Evaluate([]Policy{owned}, in))

	in.ResourceAttrs = map[string]interface{}{"owner_id": "u-2"}
	require.Equal(t, DecisionNotApplicable, e.Evaluate([]Policy{owned}, in))

	// Unknown attribute: the condition fails closed, policy does not match.
	in.ResourceAttrs = nil
	require.Equal(t, DecisionNotApplicable, e.Evaluate([]Policy{owned}, in))
}

func TestEvaluateMalformedConditionSkipsOnlyThatPolicy(t *testing.T) {
	e := NewPolicyEvaluator(zap.NewNop())

	broken := denyPolicy("task", "delete")
	broken.Condition = &common_models.ConditionGroup{Rules: []common_models.ConditionRule{
		{Field: "subject.department", Operator: "matches", Value: "eng.*", Type: common_models.RuleTypeStatic},
	}}
	healthy := allowPolicy("task", "delete")

	in := CheckInput{Resource: "task", Action: "delete"}
	require.Equal(t, DecisionAllow, e.Evaluate([]Policy{broken, healthy}, in))
}

func TestEvaluateEmptyPolicySet(t *testing.T) {
	e := NewPolicyEvaluator(zap.NewNop())
	require.Equal(t, DecisionNotApplicable, e.Evaluate(nil, CheckInput{Resource: "task", Action: "read"}))
}
