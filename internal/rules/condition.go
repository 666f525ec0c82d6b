package rules

import "fmt"

// CustomEvaluator decides custom conditions. data is the context's CustomData
// and is never nil. An error is treated as a failed condition.
type CustomEvaluator interface {
	EvaluateCustom(cond RuleCondition, data map[string]any) (bool, error)
}

// CustomFunc adapts a plain function to CustomEvaluator.
type CustomFunc func(cond RuleCondition, data map[string]any) (bool, error)

func (f CustomFunc) EvaluateCustom(cond RuleCondition, data map[string]any) (bool, error) {
	return f(cond, data)
}

// LookupCustom is the built-in custom evaluator: Value names a CustomData key
// and the condition holds when that entry is present and truthy.
var LookupCustom CustomEvaluator = CustomFunc(lookupCustom)

func lookupCustom(cond RuleCondition, data map[string]any) (bool, error) {
	key, ok := cond.Value.(string)
	if !ok || key == "" {
		return false, fmt.Errorf("custom condition value must be a customData key, got %T", cond.Value)
	}
	v, ok := data[key]
	if !ok {
		return false, nil
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if f, ok := toFloat64(v); ok {
		return f != 0
	}
	return true
}

// EvaluateCondition reports whether cond holds for ctx using the built-in
// custom evaluator.
func EvaluateCondition(cond RuleCondition, ctx RuleEvaluationContext) bool {
	return evaluateCondition(cond, ctx, LookupCustom)
}

func evaluateCondition(cond RuleCondition, ctx RuleEvaluationContext, custom CustomEvaluator) bool {
	switch cond.Type {
	case ConditionAmountGreaterThan:
		return greaterThan(ctx.Amount, cond.Value)
	case ConditionAmountLessThan:
		return lessThan(ctx.Amount, cond.Value)
	case ConditionAmountBetween:
		return between(ctx.Amount, cond.Value, cond.ValueTo)
	case ConditionQuantityGreaterThan:
		return greaterThan(ctx.Quantity, cond.Value)
	case ConditionQuantityLessThan:
		return lessThan(ctx.Quantity, cond.Value)

	case ConditionCategoryIn:
		return intersects(ctx.Categories, cond.Value)
	case ConditionCategoryNotIn:
		return !intersects(ctx.Categories, cond.Value)
	case ConditionUserRoleIn:
		return intersects(scalar(ctx.UserRole), cond.Value)
	case ConditionUserRoleNotIn:
		return !intersects(scalar(ctx.UserRole), cond.Value)
	case ConditionDepartmentIn:
		return intersects(scalar(ctx.Department), cond.Value)
	case ConditionDepartmentNotIn:
		return !intersects(scalar(ctx.Department), cond.Value)
	case ConditionCostCenterIn:
		return intersects(scalar(ctx.CostCenter), cond.Value)
	case ConditionCostCenterNotIn:
		return !intersects(scalar(ctx.CostCenter), cond.Value)
	case ConditionVendorIn:
		return intersects(scalar(ctx.VendorID), cond.Value)
	case ConditionVendorNotIn:
		return !intersects(scalar(ctx.VendorID), cond.Value)

	case ConditionCustom:
		if ctx.CustomData == nil || custom == nil {
			return false
		}
		ok, err := custom.EvaluateCustom(cond, ctx.CustomData)
		return err == nil && ok
	}
	return false
}

func greaterThan(field *float64, value any) bool {
	v, ok := toFloat64(value)
	if field == nil || !ok {
		return false
	}
	return *field > v
}

func lessThan(field *float64, value any) bool {
	v, ok := toFloat64(value)
	if field == nil || !ok {
		return false
	}
	return *field < v
}

func between(field *float64, from, to any) bool {
	lo, lok := toFloat64(from)
	hi, hok := toFloat64(to)
	if field == nil || !lok || !hok {
		return false
	}
	return lo <= *field && *field <= hi
}

// scalar lifts a single optional context field into a list; empty means absent.
func scalar(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// intersects reports whether any of have appears in the condition's value
// list. An absent context field never intersects.
func intersects(have []string, value any) bool {
	if len(have) == 0 {
		return false
	}
	want := toStrings(value)
	if len(want) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	for _, h := range have {
		if _, ok := set[h]; ok {
			return true
		}
	}
	return false
}

// toStrings accepts a single string, a []string, or a decoded []any.
func toStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch s := e.(type) {
			case string:
				out = append(out, s)
			case nil:
			default:
				out = append(out, fmt.Sprintf("%v", s))
			}
		}
		return out
	}
	return nil
}

// toFloat64 coerces a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}

// NumericValue exposes the numeric coercion used by comparison conditions.
func NumericValue(v any) (float64, bool) { return toFloat64(v) }
