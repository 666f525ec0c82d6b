package condition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFieldNotFound is returned when a comparison references a field the
// context does not carry.
var ErrFieldNotFound = errors.New("field not found")

// Resolver provides data for expression evaluation.
type Resolver interface {
	Resolve(path []string) (any, bool)
}

// MapContext resolves dotted paths against nested maps. A leading
// "customData" or "data" segment is optional, so customData.tier and tier
// name the same entry.
type MapContext map[string]any

// Resolve implements Resolver.
func (m MapContext) Resolve(path []string) (any, bool) {
	if len(path) > 1 && (path[0] == "customData" || path[0] == "data") {
		if _, shadowed := m[path[0]]; !shadowed {
			path = path[1:]
		}
	}
	var cur any = map[string]any(m)
	for _, seg := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Evaluate walks the AST and returns true/false or an error.
func Evaluate(expr Expr, ctx Resolver) (bool, error) {
	switch e := expr.(type) {
	case *BinaryExpr:
		return evalBinary(e, ctx)
	case *NotExpr:
		v, err := Evaluate(e.Expr, ctx)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *ComparisonExpr:
		return evalComparison(e, ctx)
	case *PresenceExpr:
		v, ok := ctx.Resolve(e.Field.Path)
		if !ok {
			return false, nil
		}
		return truthy(v), nil
	default:
		return false, fmt.Errorf("unknown expr type %T", expr)
	}
}

func evalBinary(e *BinaryExpr, ctx Resolver) (bool, error) {
	left, err := Evaluate(e.Left, ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(e.Op) {
	case "AND":
		if !left {
			return false, nil // short-circuit
		}
		return Evaluate(e.Right, ctx)
	case "OR":
		if left {
			return true, nil // short-circuit
		}
		return Evaluate(e.Right, ctx)
	default:
		return false, fmt.Errorf("unknown binary op %q", e.Op)
	}
}

func evalComparison(e *ComparisonExpr, ctx Resolver) (bool, error) {
	left, err := resolveOperand(e.Left, ctx)
	if err != nil {
		return false, err
	}
	if e.pattern != nil {
		return matchRegexp(e.pattern, left)
	}
	right, err := resolveOperand(e.Right, ctx)
	if err != nil {
		return false, err
	}
	return compare(e.Op, left, right)
}

func resolveOperand(op Operand, ctx Resolver) (any, error) {
	switch o := op.(type) {
	case *LiteralOperand:
		return o.Value, nil
	case *ListOperand:
		return o.Values, nil
	case *FieldOperand:
		val, ok := ctx.Resolve(o.Path)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, strings.Join(o.Path, "."))
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unknown operand type %T", op)
	}
}

// truthy reports whether v counts as set: non-nil, not false, not zero,
// not an empty string or list.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	}
	if f, ok := toFloat64(v); ok {
		return f != 0
	}
	return true
}
