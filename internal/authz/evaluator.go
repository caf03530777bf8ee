package authz

import (
	common_models "go-taskhub/internal/common/models"
	"go-taskhub/pkg/condition"

	"go.uber.org/zap"
)

// Decision is the outcome of evaluating a policy set against a request.
type Decision int

const (
	// DecisionNotApplicable means no policy matched; the permission set
	// alone decides.
	DecisionNotApplicable Decision = iota
	DecisionAllow
	DecisionDeny
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	default:
		return "not_applicable"
	}
}

// CheckInput is one authorization question: may the subject perform Action
// on Resource, given these attributes.
type CheckInput struct {
	Resource      string
	Action        string
	SubjectAttrs  map[string]interface{}
	ResourceAttrs map[string]interface{}
	EnvAttrs      map[string]interface{}
}

// PolicyEvaluator applies ordered policy lists with deny-overrides-allow
// combining. It is stateless; one instance serves all requests.
type PolicyEvaluator struct {
	log *zap.Logger
}

func NewPolicyEvaluator(log *zap.Logger) *PolicyEvaluator {
	return &PolicyEvaluator{log: log}
}

// Evaluate runs every applicable policy. A single matching deny wins over
// any number of allows. A policy whose condition references attributes
// absent from the input does not match (fail closed). A structurally
// malformed condition disables only that one policy; the rest of the set
// still evaluates.
func (e *PolicyEvaluator) Evaluate(policies []Policy, in CheckInput) Decision {
	attrs := map[string]interface{}{
		"subject":  in.SubjectAttrs,
		"resource": in.ResourceAttrs,
		"env":      in.EnvAttrs,
		"action":   in.Action,
	}

	decision := DecisionNotApplicable
	for i := range policies {
		p := &policies[i]
		if !segmentMatches(p.Resource, in.Resource) || !segmentMatches(p.Action, in.Action) {
			continue
		}

		matched := true
		if p.Condition != nil {
			ev := condition.NewEvaluator(attrs)
			ok, err := ev.Evaluate(p.Condition)
			if err != nil {
				e.log.Warn("skipping policy with malformed condition",
					zap.String("policyId", p.ID.Hex()),
					zap.String("policy", p.Name),
					zap.Error(err))
				continue
			}
			matched = ok
		}
		if !matched {
			continue
		}

		if p.Effect == common_models.EffectDeny {
			return DecisionDeny
		}
		decision = DecisionAllow
	}
	return decision
}

// segmentMatches compares a policy's resource/action segment against the
// request's. "*" on the policy side matches anything.
func segmentMatches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
