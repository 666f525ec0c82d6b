package custom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

const (
	// maxExpressionLength bounds CEL sources accepted from policy files.
	maxExpressionLength = 1024

	// maxCostBudget is the CEL runtime cost limit per evaluation.
	maxCostBudget = 100_000

	// interruptCheckFreq is how often, in comprehension iterations,
	// cancellation is checked.
	interruptCheckFreq = 100

	defaultCELTimeout = time.Second
)

// CELEvaluator evaluates custom conditions written in CEL. The environment
// declares:
//
//	data      map(string, dyn)  the request's customData
//	amount    double            data["amount"] when numeric, else 0
//	quantity  double            data["quantity"] when numeric, else 0
type CELEvaluator struct {
	env     *cel.Env
	timeout time.Duration

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELEvaluator builds the CEL environment. timeout <= 0 selects one second.
func NewCELEvaluator(timeout time.Duration) (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("data", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("quantity", cel.DoubleType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultCELTimeout
	}
	return &CELEvaluator{env: env, timeout: timeout, programs: make(map[string]cel.Program)}, nil
}

func (e *CELEvaluator) program(value any) (cel.Program, error) {
	src, err := expression(value)
	if err != nil {
		return nil, err
	}
	if len(src) > maxExpressionLength {
		return nil, fmt.Errorf("expression too long: %d characters (max %d)", len(src), maxExpressionLength)
	}

	e.mu.RLock()
	prg, ok := e.programs[src]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}
	prg, err = e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	e.mu.Lock()
	e.programs[src] = prg
	e.mu.Unlock()
	return prg, nil
}

// EvaluateCustom implements rules.CustomEvaluator.
func (e *CELEvaluator) EvaluateCustom(cond rules.RuleCondition, data map[string]any) (bool, error) {
	prg, err := e.program(cond.Value)
	if err != nil {
		return false, err
	}
	if data == nil {
		data = map[string]any{}
	}
	activation := map[string]any{
		"data":     data,
		"amount":   number(data["amount"]),
		"quantity": number(data["quantity"]),
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	out, _, err := prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", out.Value())
	}
	return b, nil
}

// Check compiles value and caches the program.
func (e *CELEvaluator) Check(value any) error {
	_, err := e.program(value)
	return err
}

func number(v any) float64 {
	if f, ok := rules.NumericValue(v); ok {
		return f
	}
	return 0
}
