package custom

import (
	"sync"

	"github.com/gyaneshwarpardhi/spendguard/internal/condition"
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

// ExprEvaluator evaluates custom conditions written in the condition
// expression language. Parsed ASTs are cached per expression string.
type ExprEvaluator struct {
	cache sync.Map // string -> condition.Expr
}

// NewExprEvaluator returns an evaluator with an empty cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

func (e *ExprEvaluator) compile(value any) (condition.Expr, error) {
	src, err := expression(value)
	if err != nil {
		return nil, err
	}
	if cached, ok := e.cache.Load(src); ok {
		return cached.(condition.Expr), nil
	}
	ast, err := condition.Parse(src)
	if err != nil {
		return nil, err
	}
	e.cache.Store(src, ast)
	return ast, nil
}

// EvaluateCustom implements rules.CustomEvaluator.
func (e *ExprEvaluator) EvaluateCustom(cond rules.RuleCondition, data map[string]any) (bool, error) {
	ast, err := e.compile(cond.Value)
	if err != nil {
		return false, err
	}
	return condition.Evaluate(ast, condition.MapContext(data))
}

// Check parses value and primes the cache.
func (e *ExprEvaluator) Check(value any) error {
	_, err := e.compile(value)
	return err
}
