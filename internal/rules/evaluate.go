package rules

import "sort"

const noteInactive = "rule inactive; not evaluated"

// EvaluateRule reports whether every condition of rule holds for ctx and
// collects the ones that did not. A rule without conditions always matches.
func EvaluateRule(rule ApprovalRule, ctx RuleEvaluationContext) (bool, []RuleCondition) {
	return evaluateRule(rule, ctx, LookupCustom)
}

func evaluateRule(rule ApprovalRule, ctx RuleEvaluationContext, custom CustomEvaluator) (bool, []RuleCondition) {
	failed := []RuleCondition{}
	for _, c := range rule.Conditions {
		if !evaluateCondition(c, ctx, custom) {
			failed = append(failed, c)
		}
	}
	return len(failed) == 0, failed
}

// EvaluateRules evaluates rules against ctx with the built-in custom evaluator.
func EvaluateRules(rules []ApprovalRule, ctx RuleEvaluationContext) RuleEvaluationResult {
	return evaluateRules(rules, ctx, LookupCustom)
}

// evaluateRules orders rules by priority, evaluates every active rule so the
// audit trail is complete, and picks the first active match. Inactive rules
// are listed as skipped.
func evaluateRules(rules []ApprovalRule, ctx RuleEvaluationContext, custom CustomEvaluator) RuleEvaluationResult {
	ordered := SortByPriority(rules)
	res := RuleEvaluationResult{Evaluations: make([]RuleEvaluation, 0, len(ordered))}

	for i := range ordered {
		rule := ordered[i]
		if !rule.IsActive {
			res.Evaluations = append(res.Evaluations, RuleEvaluation{
				Rule:             rule,
				FailedConditions: []RuleCondition{},
				Skipped:          true,
				Note:             noteInactive,
			})
			continue
		}
		matched, failed := evaluateRule(rule, ctx, custom)
		res.Evaluations = append(res.Evaluations, RuleEvaluation{
			Rule:             rule,
			Matched:          matched,
			FailedConditions: failed,
		})
		if matched && !res.Matched {
			res.Matched = true
			res.MatchedRule = &ordered[i]
			action := rule.Action
			res.Action = &action
		}
	}
	return res
}

// SortByPriority returns a copy of rules ordered by ascending priority.
// The sort is stable, so equal priorities keep their input order.
func SortByPriority(rules []ApprovalRule) []ApprovalRule {
	out := make([]ApprovalRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Engine evaluates a fixed rule set. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	rules  []ApprovalRule
	custom CustomEvaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithCustomEvaluator replaces the built-in custom condition evaluator.
func WithCustomEvaluator(c CustomEvaluator) Option {
	return func(e *Engine) {
		if c != nil {
			e.custom = c
		}
	}
}

// NewEngine copies rules into a new Engine, pre-sorted by priority.
func NewEngine(rules []ApprovalRule, opts ...Option) *Engine {
	e := &Engine{rules: SortByPriority(rules), custom: LookupCustom}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rules returns a copy of the engine's rules in evaluation order.
func (e *Engine) Rules() []ApprovalRule {
	out := make([]ApprovalRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs the engine's rule set against ctx.
func (e *Engine) Evaluate(ctx RuleEvaluationContext) RuleEvaluationResult {
	return evaluateRules(e.rules, ctx, e.custom)
}

// EvaluateRule evaluates a single rule with the engine's custom evaluator.
func (e *Engine) EvaluateRule(rule ApprovalRule, ctx RuleEvaluationContext) (bool, []RuleCondition) {
	return evaluateRule(rule, ctx, e.custom)
}

// EvaluateCondition evaluates a single condition with the engine's custom evaluator.
func (e *Engine) EvaluateCondition(cond RuleCondition, ctx RuleEvaluationContext) bool {
	return evaluateCondition(cond, ctx, e.custom)
}
