package condition

import (
	"fmt"
	"strings"

	"go-taskhub/internal/common/models"
)

// Evaluator evaluates a condition group against a flat attribute context.
// Context keys are the top-level namespaces ("subject", "resource", "action");
// rule fields address into them with dotted paths ("subject.department").
type Evaluator struct {
	Context map[string]interface{}
}

func NewEvaluator(ctx map[string]interface{}) *Evaluator {
	return &Evaluator{Context: ctx}
}

// Evaluate returns the truth value of the group. A nil or empty group is
// vacuously true (the policy applies unconditionally). An error means the
// condition itself is malformed (unknown operator, non-list value for a
// membership operator); missing attributes are NOT errors — they evaluate
// the rule to false.
func (e *Evaluator) Evaluate(group *models.ConditionGroup) (bool, error) {
	if group == nil {
		return true, nil
	}

	var results []bool

	for _, rule := range group.Rules {
		ok, err := e.evaluateRule(rule)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}

	for i := range group.Groups {
		ok, err := e.Evaluate(&group.Groups[i])
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}

	if len(results) == 0 {
		return true, nil
	}

	if strings.ToUpper(group.Operator) == "OR" {
		for _, ok := range results {
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	// AND is the default
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Evaluator) evaluateRule(rule models.ConditionRule) (bool, error) {
	left, found := e.lookup(rule.Field)

	right, rightFound, err := e.resolveValue(rule.Value, rule.Type)
	if err != nil {
		return false, err
	}

	switch rule.Operator {
	case "eq":
		// Unknown attribute paths fail closed
		if !found || !rightFound {
			return false, nil
		}
		return valuesEqual(left, right), nil
	case "ne":
		if !found || !rightFound {
			return false, nil
		}
		return !valuesEqual(left, right), nil
	case "in":
		if !found || !rightFound {
			return false, nil
		}
		list, ok := right.([]interface{})
		if !ok {
			return false, fmt.Errorf("in operator requires a list value")
		}
		for _, item := range list {
			if valuesEqual(left, item) {
				return true, nil
			}
		}
		return false, nil
	case "nin":
		if !found || !rightFound {
			return false, nil
		}
		list, ok := right.([]interface{})
		if !ok {
			return false, fmt.Errorf("nin operator requires a list value")
		}
		for _, item := range list {
			if valuesEqual(left, item) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown operator: %s", rule.Operator)
	}
}

func (e *Evaluator) resolveValue(val interface{}, ruleType models.RuleType) (interface{}, bool, error) {
	if ruleType != models.RuleTypeVariable {
		return val, true, nil
	}

	strVal, ok := val.(string)
	if !ok {
		return nil, false, fmt.Errorf("variable value must be a string path, got %T", val)
	}

	key := strings.TrimPrefix(strVal, "$")
	resolved, found := e.lookup(key)
	return resolved, found, nil
}

// lookup walks a dotted path through nested maps.
func (e *Evaluator) lookup(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = e.Context

	for _, part := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// valuesEqual compares attribute values after normalising numerics; BSON
// decoding and JSON unmarshalling disagree on int32/int64/float64.
func valuesEqual(a, b interface{}) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Validate checks a condition group for structural faults without evaluating
// it. Used by the policy service at write time so malformed conditions are
// caught before they silently disable a policy at decision time.
func Validate(group *models.ConditionGroup) error {
	if group == nil {
		return nil
	}

	switch strings.ToUpper(group.Operator) {
	case "", "AND", "OR":
	default:
		return fmt.Errorf("unknown group operator: %s", group.Operator)
	}

	for _, rule := range group.Rules {
		switch rule.Operator {
		case "eq", "ne", "in", "nin":
		default:
			return fmt.Errorf("unknown operator: %s", rule.Operator)
		}
		if rule.Field == "" {
			return fmt.Errorf("rule field is required")
		}
		if rule.Type == models.RuleTypeVariable {
			if _, ok := rule.Value.(string); !ok {
				return fmt.Errorf("variable value must be a string path")
			}
		}
	}

	for i := range group.Groups {
		if err := Validate(&group.Groups[i]); err != nil {
			return err
		}
	}
	return nil
}
