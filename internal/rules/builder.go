package rules

// CreateAmountRule builds an active rule matching orders above threshold.
func CreateAmountRule(id, name string, threshold float64, action RuleAction, priority int) ApprovalRule {
	return ApprovalRule{
		ID:         id,
		Name:       name,
		Conditions: []RuleCondition{{Type: ConditionAmountGreaterThan, Value: threshold}},
		Action:     action,
		Priority:   priority,
		IsActive:   true,
	}
}

// CreateRoleRule builds an active rule matching requesters holding one of roles.
func CreateRoleRule(id, name string, roles []string, action RuleAction, priority int) ApprovalRule {
	return ApprovalRule{
		ID:         id,
		Name:       name,
		Conditions: []RuleCondition{{Type: ConditionUserRoleIn, Value: cloneStrings(roles)}},
		Action:     action,
		Priority:   priority,
		IsActive:   true,
	}
}

// CreateDepartmentRule builds an active rule matching requesters in one of departments.
func CreateDepartmentRule(id, name string, departments []string, action RuleAction, priority int) ApprovalRule {
	return ApprovalRule{
		ID:         id,
		Name:       name,
		Conditions: []RuleCondition{{Type: ConditionDepartmentIn, Value: cloneStrings(departments)}},
		Action:     action,
		Priority:   priority,
		IsActive:   true,
	}
}

// DefaultApprovalRules returns a fresh copy of the starter policy:
// small orders auto-approve, mid-size orders need one approver, large orders
// need two, and very large orders escalate to finance.
func DefaultApprovalRules() []ApprovalRule {
	return []ApprovalRule{
		{
			ID:          "escalate-over-50k",
			Name:        "Escalate very large orders",
			Description: "Orders above 50,000 go to the finance director.",
			Conditions:  []RuleCondition{{Type: ConditionAmountGreaterThan, Value: 50000.0}},
			Action:      RuleAction{Type: ActionEscalate, EscalateTo: "finance_director"},
			Priority:    5,
			IsActive:    true,
		},
		{
			ID:          "auto-approve-small",
			Name:        "Auto-approve small orders",
			Description: "Orders below 500 need no approval.",
			Conditions:  []RuleCondition{{Type: ConditionAmountLessThan, Value: 500.0}},
			Action:      RuleAction{Type: ActionAutoApprove},
			Priority:    10,
			IsActive:    true,
		},
		{
			ID:          "manager-approval",
			Name:        "Manager approval",
			Description: "Orders from 500 to 5,000 need one approver.",
			Conditions:  []RuleCondition{{Type: ConditionAmountBetween, Value: 500.0, ValueTo: 5000.0}},
			Action:      RuleAction{Type: ActionRequireApproval, RequiredApprovals: 1},
			Priority:    20,
			IsActive:    true,
		},
		{
			ID:          "multi-approval-large",
			Name:        "Two approvers for large orders",
			Description: "Orders above 5,000 need two approvers.",
			Conditions:  []RuleCondition{{Type: ConditionAmountGreaterThan, Value: 5000.0}},
			Action:      RuleAction{Type: ActionRequireMultiApproval, RequiredApprovals: 2},
			Priority:    30,
			IsActive:    true,
		},
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
