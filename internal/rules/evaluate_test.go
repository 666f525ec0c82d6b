package rules_test

import (
	"testing"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

func multiApprovalRule() rules.ApprovalRule {
	return rules.ApprovalRule{
		ID:         "r1",
		Name:       "large orders",
		Conditions: []rules.RuleCondition{{Type: rules.ConditionAmountGreaterThan, Value: 1000.0}},
		Action:     rules.RuleAction{Type: rules.ActionRequireMultiApproval, RequiredApprovals: 2},
		Priority:   1,
		IsActive:   true,
	}
}

func TestEvaluateRules_MatchAboveThreshold(t *testing.T) {
	res := rules.EvaluateRules([]rules.ApprovalRule{multiApprovalRule()}, rules.RuleEvaluationContext{Amount: rules.Float(1500)})
	if !res.Matched {
		t.Fatal("expected a match")
	}
	if res.Action == nil || res.Action.Type != rules.ActionRequireMultiApproval {
		t.Fatalf("expected require_multi_approval, got %+v", res.Action)
	}
	if res.Action.RequiredApprovals != 2 {
		t.Errorf("expected 2 required approvals, got %d", res.Action.RequiredApprovals)
	}
}

func TestEvaluateRules_NoMatchBelowThreshold(t *testing.T) {
	res := rules.EvaluateRules([]rules.ApprovalRule{multiApprovalRule()}, rules.RuleEvaluationContext{Amount: rules.Float(500)})
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res.MatchedRule)
	}
	if res.Action != nil {
		t.Errorf("unmatched result must not carry an action, got %+v", res.Action)
	}
	if len(res.Evaluations) != 1 || len(res.Evaluations[0].FailedConditions) != 1 {
		t.Errorf("expected one evaluation with one failed condition, got %+v", res.Evaluations)
	}
}

func TestEvaluateRules_PriorityOrder(t *testing.T) {
	catchAll := func(id string, priority int, action rules.ActionType) rules.ApprovalRule {
		return rules.ApprovalRule{ID: id, Priority: priority, IsActive: true, Action: rules.RuleAction{Type: action}}
	}
	set := []rules.ApprovalRule{
		catchAll("p5", 5, rules.ActionReject),
		catchAll("p1", 1, rules.ActionAutoApprove),
	}
	res := rules.EvaluateRules(set, rules.RuleEvaluationContext{})
	if !res.Matched || res.MatchedRule.ID != "p1" {
		t.Fatalf("expected p1 to win, got %+v", res.MatchedRule)
	}
	if res.Evaluations[0].Rule.ID != "p1" || res.Evaluations[1].Rule.ID != "p5" {
		t.Errorf("evaluations not in priority order: %s, %s", res.Evaluations[0].Rule.ID, res.Evaluations[1].Rule.ID)
	}
}

func TestEvaluateRules_TiesKeepInputOrder(t *testing.T) {
	set := []rules.ApprovalRule{
		{ID: "first", Priority: 3, IsActive: true, Action: rules.RuleAction{Type: rules.ActionNotify}},
		{ID: "second", Priority: 3, IsActive: true, Action: rules.RuleAction{Type: rules.ActionReject}},
	}
	res := rules.EvaluateRules(set, rules.RuleEvaluationContext{})
	if res.MatchedRule == nil || res.MatchedRule.ID != "first" {
		t.Fatalf("expected first to win the tie, got %+v", res.MatchedRule)
	}
}

func TestEvaluateRules_InactiveNeverMatches(t *testing.T) {
	set := []rules.ApprovalRule{
		{ID: "off", Priority: 1, IsActive: false, Action: rules.RuleAction{Type: rules.ActionAutoApprove}},
		{ID: "on", Priority: 2, IsActive: true, Action: rules.RuleAction{Type: rules.ActionRequireApproval},
			Conditions: []rules.RuleCondition{{Type: rules.ConditionAmountGreaterThan, Value: 10}}},
	}

	res := rules.EvaluateRules(set, rules.RuleEvaluationContext{Amount: rules.Float(5)})
	if res.Matched {
		t.Fatalf("inactive catch-all must not match, got %+v", res.MatchedRule)
	}
	if len(res.Evaluations) != 2 {
		t.Fatalf("expected inactive rule in audit trail, got %d evaluations", len(res.Evaluations))
	}
	off := res.Evaluations[0]
	if off.Rule.ID != "off" || !off.Skipped || off.Matched || off.Note == "" {
		t.Errorf("unexpected audit entry for inactive rule: %+v", off)
	}

	res = rules.EvaluateRules(set, rules.RuleEvaluationContext{Amount: rules.Float(50)})
	if !res.Matched || res.MatchedRule.ID != "on" {
		t.Fatalf("expected active rule to match, got %+v", res.MatchedRule)
	}
}

func TestEvaluateRules_EmptyConditionsCatchAll(t *testing.T) {
	rule := rules.ApprovalRule{ID: "all", IsActive: true, Action: rules.RuleAction{Type: rules.ActionAutoApprove}}
	ok, failed := rules.EvaluateRule(rule, rules.RuleEvaluationContext{})
	if !ok || len(failed) != 0 {
		t.Fatalf("empty rule should match, got ok=%v failed=%v", ok, failed)
	}
}

func TestEvaluateRules_AuditContinuesAfterMatch(t *testing.T) {
	set := []rules.ApprovalRule{
		{ID: "a", Priority: 1, IsActive: true, Action: rules.RuleAction{Type: rules.ActionNotify}},
		{ID: "b", Priority: 2, IsActive: true, Action: rules.RuleAction{Type: rules.ActionReject}},
	}
	res := rules.EvaluateRules(set, rules.RuleEvaluationContext{})
	if res.MatchedRule.ID != "a" {
		t.Fatalf("expected a, got %s", res.MatchedRule.ID)
	}
	if !res.Evaluations[1].Matched {
		t.Errorf("later matching rule should still be recorded as matched in the audit trail")
	}
}

func TestEvaluateRules_DoesNotMutateInput(t *testing.T) {
	set := []rules.ApprovalRule{
		{ID: "z", Priority: 9, IsActive: true},
		{ID: "a", Priority: 1, IsActive: true},
	}
	_ = rules.EvaluateRules(set, rules.RuleEvaluationContext{})
	if set[0].ID != "z" || set[1].ID != "a" {
		t.Errorf("input slice reordered: %v, %v", set[0].ID, set[1].ID)
	}
}

func TestDecisionHelpers(t *testing.T) {
	cases := []struct {
		name         string
		action       rules.RuleAction
		wantAuto     bool
		wantApproval bool
		wantReject   bool
		wantApprover int
	}{
		{name: "auto", action: rules.RuleAction{Type: rules.ActionAutoApprove}, wantAuto: true},
		{name: "single", action: rules.RuleAction{Type: rules.ActionRequireApproval, ApproverIDs: []string{"u1"}}, wantApproval: true, wantApprover: 1},
		{name: "multi", action: rules.RuleAction{Type: rules.ActionRequireMultiApproval, ApproverIDs: []string{"u1", "u2"}}, wantApproval: true, wantApprover: 2},
		{name: "escalate", action: rules.RuleAction{Type: rules.ActionEscalate, ApproverIDs: []string{"u9"}}, wantApproval: true},
		{name: "reject", action: rules.RuleAction{Type: rules.ActionReject}, wantReject: true},
		{name: "notify", action: rules.RuleAction{Type: rules.ActionNotify}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := rules.ApprovalRule{ID: tc.name, IsActive: true, Action: tc.action}
			res := rules.EvaluateRules([]rules.ApprovalRule{rule}, rules.RuleEvaluationContext{})
			if got := rules.CanAutoApprove(res); got != tc.wantAuto {
				t.Errorf("CanAutoApprove = %v, want %v", got, tc.wantAuto)
			}
			if got := rules.RequiresApproval(res); got != tc.wantApproval {
				t.Errorf("RequiresApproval = %v, want %v", got, tc.wantApproval)
			}
			if got := rules.ShouldReject(res); got != tc.wantReject {
				t.Errorf("ShouldReject = %v, want %v", got, tc.wantReject)
			}
			if got := rules.GetRequiredApprovers(res); len(got) != tc.wantApprover {
				t.Errorf("GetRequiredApprovers = %v, want %d ids", got, tc.wantApprover)
			}
		})
	}
}

func TestDecisionHelpers_Unmatched(t *testing.T) {
	res := rules.RuleEvaluationResult{}
	if rules.CanAutoApprove(res) || rules.RequiresApproval(res) || rules.ShouldReject(res) {
		t.Fatal("unmatched result must leave every helper false")
	}
	if got := rules.GetRequiredApprovers(res); got == nil || len(got) != 0 {
		t.Errorf("expected empty approver list, got %v", got)
	}
}

func TestBuilders(t *testing.T) {
	action := rules.RuleAction{Type: rules.ActionRequireApproval}
	amount := rules.CreateAmountRule("amt", "Amount", 250, action, 4)
	if !amount.IsActive || amount.Priority != 4 || amount.Conditions[0].Type != rules.ConditionAmountGreaterThan {
		t.Errorf("unexpected amount rule: %+v", amount)
	}
	if ok, _ := rules.EvaluateRule(amount, rules.RuleEvaluationContext{Amount: rules.Float(251)}); !ok {
		t.Error("amount rule should match above threshold")
	}

	roles := []string{"buyer"}
	role := rules.CreateRoleRule("role", "Role", roles, action, 1)
	roles[0] = "changed"
	if ok, _ := rules.EvaluateRule(role, rules.RuleEvaluationContext{UserRole: "buyer"}); !ok {
		t.Error("role rule should copy its role list and match buyer")
	}

	dept := rules.CreateDepartmentRule("dept", "Dept", []string{"ops"}, action, 2)
	if ok, _ := rules.EvaluateRule(dept, rules.RuleEvaluationContext{Department: "sales"}); ok {
		t.Error("department rule should not match sales")
	}
}

func TestDefaultApprovalRules(t *testing.T) {
	e := rules.NewEngine(rules.DefaultApprovalRules())
	cases := []struct {
		amount float64
		want   rules.ActionType
	}{
		{amount: 100, want: rules.ActionAutoApprove},
		{amount: 500, want: rules.ActionRequireApproval},
		{amount: 5000, want: rules.ActionRequireApproval},
		{amount: 5001, want: rules.ActionRequireMultiApproval},
		{amount: 50001, want: rules.ActionEscalate},
	}
	for _, tc := range cases {
		res := e.Evaluate(rules.RuleEvaluationContext{Amount: rules.Float(tc.amount)})
		if !res.Matched || res.Action.Type != tc.want {
			t.Errorf("amount %.2f: got %+v, want %s", tc.amount, res.Action, tc.want)
		}
	}

	a := rules.DefaultApprovalRules()
	a[0].Priority = 999
	if rules.DefaultApprovalRules()[0].Priority == 999 {
		t.Error("DefaultApprovalRules must return a fresh copy")
	}
}
