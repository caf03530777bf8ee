package condition

import (
	"testing"

	"go-taskhub/internal/common/models"

	"github.com/stretchr/testify/require"
)

func attrs() map[string]interface{} {
	return map[string]interface{}{
		"subject": map[string]interface{}{
			"department": "engineering",
			"user_id":    "u-1",
			"level":      int32(4),
		},
		"resource": map[string]interface{}{
			"owner_id":       "u-1",
			"project_status": "active",
		},
	}
}

func TestEvaluateNilGroupIsTrue(t *testing.T) {
	ev := NewEvaluator(attrs())
	ok, err := ev.Evaluate(nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name  string
		group models.ConditionGroup
		want  bool
	}{
		{
			name: "eq static match",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.department", Operator: "eq", Value: "engineering", Type: models.RuleTypeStatic},
			}},
			want: true,
		},
		{
			name: "eq static mismatch",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.department", Operator: "eq", Value: "sales", Type: models.RuleTypeStatic},
			}},
			want: false,
		},
		{
			name: "eq variable ownership",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "resource.owner_id", Operator: "eq", Value: "$subject.user_id", Type: models.RuleTypeVariable},
			}},
			want: true,
		},
		{
			name: "ne",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "resource.project_status", Operator: "ne", Value: "archived", Type: models.RuleTypeStatic},
			}},
			want: true,
		},
		{
			name: "in",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.department", Operator: "in", Value: []interface{}{"engineering", "design"}, Type: models.RuleTypeStatic},
			}},
			want: true,
		},
		{
			name: "nin",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.department", Operator: "nin", Value: []interface{}{"sales"}, Type: models.RuleTypeStatic},
			}},
			want: true,
		},
		{
			name: "numeric normalisation across int widths",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.level", Operator: "eq", Value: float64(4), Type: models.RuleTypeStatic},
			}},
			want: true,
		},
		{
			name: "missing attribute fails closed",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.clearance", Operator: "eq", Value: "secret", Type: models.RuleTypeStatic},
			}},
			want: false,
		},
		{
			name: "missing attribute fails closed even for ne",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.clearance", Operator: "ne", Value: "secret", Type: models.RuleTypeStatic},
			}},
			want: false,
		},
		{
			name: "AND default needs all rules",
			group: models.ConditionGroup{Rules: []models.ConditionRule{
				{Field: "subject.department", Operator: "eq", Value: "engineering", Type: models.RuleTypeStatic},
				{Field: "resource.project_status", Operator: "eq", Value: "archived", Type: models.RuleTypeStatic},
			}},
			want: false,
		},
		{
			name: "OR needs one rule",
			group: models.ConditionGroup{
				Operator: "OR",
				Rules: []models.ConditionRule{
					{Field: "subject.department", Operator: "eq", Value: "sales", Type: models.RuleTypeStatic},
					{Field: "resource.project_status", Operator: "eq", Value: "active", Type: models.RuleTypeStatic},
				},
			},
			want: true,
		},
		{
			name: "nested groups",
			group: models.ConditionGroup{
				Operator: "AND",
				Rules: []models.ConditionRule{
					{Field: "subject.department", Operator: "eq", Value: "engineering", Type: models.RuleTypeStatic},
				},
				Groups: []models.ConditionGroup{
					{
						Operator: "OR",
						Rules: []models.ConditionRule{
							{Field: "resource.project_status", Operator: "eq", Value: "active", Type: models.RuleTypeStatic},
							{Field: "resource.project_status", Operator: "eq", Value: "planning", Type: models.RuleTypeStatic},
						},
					},
				},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator(attrs())
			got, err := ev.Evaluate(&tt.group)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateMalformedConditions(t *testing.T) {
	ev := NewEvaluator(attrs())

	_, err := ev.Evaluate(&models.ConditionGroup{Rules: []models.ConditionRule{
		{Field: "subject.department", Operator: "matches", Value: "eng.*", Type: models.RuleTypeStatic},
	}})
	require.Error(t, err)

	_, err = ev.Evaluate(&models.ConditionGroup{Rules: []models.ConditionRule{
		{Field: "subject.department", Operator: "in", Value: "engineering", Type: models.RuleTypeStatic},
	}})
	require.Error(t, err)

	_, err = ev.Evaluate(&models.ConditionGroup{Rules: []models.ConditionRule{
		{Field: "resource.owner_id", Operator: "eq", Value: 42, Type: models.RuleTypeVariable},
	}})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(nil))

	require.NoError(t, Validate(&models.ConditionGroup{
		Operator: "or",
		Rules: []models.ConditionRule{
			{Field: "subject.department", Operator: "eq", Value: "x", Type: models.RuleTypeStatic},
		},
	}))

	require.Error(t, Validate(&models.ConditionGroup{Operator: "XOR"}))
	require.Error(t, Validate(&models.ConditionGroup{Rules: []models.ConditionRule{
		{Field: "", Operator: "eq", Value: "x"},
	}}))
	require.Error(t, Validate(&models.ConditionGroup{Rules: []models.ConditionRule{
		{Field: "a", Operator: "like", Value: "x"},
	}}))
	require.Error(t, Validate(&models.ConditionGroup{Groups: []models.ConditionGroup{
		{Rules: []models.ConditionRule{{Field: "a", Operator: "eq", Value: 1, Type: models.RuleTypeVariable}}},
	}}))
}
