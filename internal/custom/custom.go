// Package custom provides the evaluators behind the "custom" rule condition.
// Each dialect interprets RuleCondition.Value differently:
//
//	key   Value names a customData entry; the condition holds when it is truthy
//	expr  Value is a boolean expression over customData (see package condition)
//	cel   Value is a CEL expression over the data, amount and quantity variables
package custom

import (
	"fmt"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

// Dialect selects how custom condition values are interpreted.
type Dialect string

const (
	DialectKey  Dialect = "key"
	DialectExpr Dialect = "expr"
	DialectCEL  Dialect = "cel"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{DialectKey, DialectExpr, DialectCEL}

// Evaluator is a rules.CustomEvaluator that can also vet a condition value
// ahead of time, so a bad expression is rejected when the policy loads.
type Evaluator interface {
	rules.CustomEvaluator
	Check(value any) error
}

// New returns the evaluator for d. The empty dialect means key.
func New(d Dialect) (Evaluator, error) {
	switch d {
	case DialectKey, "":
		return KeyEvaluator{}, nil
	case DialectExpr:
		return NewExprEvaluator(), nil
	case DialectCEL:
		return NewCELEvaluator(0)
	}
	return nil, fmt.Errorf("unknown custom dialect %q", d)
}

// KeyEvaluator wraps rules.LookupCustom.
type KeyEvaluator struct{}

func (KeyEvaluator) EvaluateCustom(cond rules.RuleCondition, data map[string]any) (bool, error) {
	return rules.LookupCustom.EvaluateCustom(cond, data)
}

func (KeyEvaluator) Check(value any) error {
	if s, ok := value.(string); !ok || s == "" {
		return fmt.Errorf("custom condition value must be a non-empty customData key")
	}
	return nil
}

func expression(value any) (string, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("custom condition value must be a non-empty expression, got %T", value)
	}
	return s, nil
}
