// Package rules evaluates B2B approval rules against an in-flight order or quote.
//
// Every rule is a flat AND over its conditions. Active rules are tried in
// ascending priority order (ties keep their input order) and the first match
// decides the action. The package never invents a default: when nothing
// matches the caller applies its own fallback policy.
package rules

// ConditionType discriminates the predicates a RuleCondition can express.
type ConditionType string

const (
	ConditionAmountGreaterThan   ConditionType = "amount_greater_than"
	ConditionAmountLessThan      ConditionType = "amount_less_than"
	ConditionAmountBetween       ConditionType = "amount_between"
	ConditionQuantityGreaterThan ConditionType = "quantity_greater_than"
	ConditionQuantityLessThan    ConditionType = "quantity_less_than"
	ConditionCategoryIn          ConditionType = "category_in"
	ConditionCategoryNotIn       ConditionType = "category_not_in"
	ConditionUserRoleIn          ConditionType = "user_role_in"
	ConditionUserRoleNotIn       ConditionType = "user_role_not_in"
	ConditionDepartmentIn        ConditionType = "department_in"
	ConditionDepartmentNotIn     ConditionType = "department_not_in"
	ConditionCostCenterIn        ConditionType = "cost_center_in"
	ConditionCostCenterNotIn     ConditionType = "cost_center_not_in"
	ConditionVendorIn            ConditionType = "vendor_in"
	ConditionVendorNotIn         ConditionType = "vendor_not_in"
	ConditionCustom              ConditionType = "custom"
)

// ConditionTypes lists every supported condition type.
var ConditionTypes = []ConditionType{
	ConditionAmountGreaterThan, ConditionAmountLessThan, ConditionAmountBetween,
	ConditionQuantityGreaterThan, ConditionQuantityLessThan,
	ConditionCategoryIn, ConditionCategoryNotIn,
	ConditionUserRoleIn, ConditionUserRoleNotIn,
	ConditionDepartmentIn, ConditionDepartmentNotIn,
	ConditionCostCenterIn, ConditionCostCenterNotIn,
	ConditionVendorIn, ConditionVendorNotIn,
	ConditionCustom,
}

// Valid reports whether t is a known condition type.
func (t ConditionType) Valid() bool {
	for _, c := range ConditionTypes {
		if c == t {
			return true
		}
	}
	return false
}

// ActionType is the effect a matched rule prescribes.
type ActionType string

const (
	ActionAutoApprove          ActionType = "auto_approve"
	ActionRequireApproval      ActionType = "require_approval"
	ActionRequireMultiApproval ActionType = "require_multi_approval"
	ActionEscalate             ActionType = "escalate"
	ActionReject               ActionType = "reject"
	ActionNotify               ActionType = "notify"
)

// ActionTypes lists every supported action type.
var ActionTypes = []ActionType{
	ActionAutoApprove, ActionRequireApproval, ActionRequireMultiApproval,
	ActionEscalate, ActionReject, ActionNotify,
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, a := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// RuleCondition is a single predicate over a RuleEvaluationContext.
//
// Value holds a number for the comparison types, a string or list of strings
// for the _in/_not_in types, and an expression (or CustomData key) for custom.
// ValueTo is only read by amount_between.
type RuleCondition struct {
	Type    ConditionType `json:"type" yaml:"type"`
	Value   any           `json:"value" yaml:"value"`
	ValueTo any           `json:"value_to,omitempty" yaml:"value_to,omitempty"`
}

// RuleAction is what happens when a rule matches. Only the fields relevant to
// Type are read.
type RuleAction struct {
	Type              ActionType `json:"type" yaml:"type"`
	ApproverIDs       []string   `json:"approver_ids,omitempty" yaml:"approver_ids,omitempty"`
	RequiredApprovals int        `json:"required_approvals,omitempty" yaml:"required_approvals,omitempty"`
	EscalateTo        string     `json:"escalate_to,omitempty" yaml:"escalate_to,omitempty"`
	Message           string     `json:"message,omitempty" yaml:"message,omitempty"`
	NotifyRecipients  []string   `json:"notify_recipients,omitempty" yaml:"notify_recipients,omitempty"`
}

// ApprovalRule is a named, prioritized policy entry. Lower Priority is tried first.
type ApprovalRule struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Conditions  []RuleCondition `json:"conditions" yaml:"conditions"`
	Action      RuleAction      `json:"action" yaml:"action"`
	Priority    int             `json:"priority" yaml:"priority"`
	IsActive    bool            `json:"is_active" yaml:"is_active"`
}

// RuleEvaluationContext is the transient input built from an order, quote or
// approval request. Nil pointers and empty strings mean "not supplied".
type RuleEvaluationContext struct {
	Amount     *float64       `json:"amount,omitempty"`
	Quantity   *float64       `json:"quantity,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
	Department string         `json:"department,omitempty"`
	CostCenter string         `json:"cost_center,omitempty"`
	VendorID   string         `json:"vendor_id,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// RuleEvaluation is the audit entry for one rule.
type RuleEvaluation struct {
	Rule             ApprovalRule    `json:"rule"`
	Matched          bool            `json:"matched"`
	FailedConditions []RuleCondition `json:"failed_conditions"`
	Skipped          bool            `json:"skipped,omitempty"`
	Note             string          `json:"note,omitempty"`
}

// RuleEvaluationResult is the outcome of EvaluateRules.
type RuleEvaluationResult struct {
	Matched     bool             `json:"matched"`
	MatchedRule *ApprovalRule    `json:"matched_rule,omitempty"`
	Action      *RuleAction      `json:"action,omitempty"`
	Evaluations []RuleEvaluation `json:"evaluations"`
}

// Float returns a pointer to v, for building contexts inline.
func Float(v float64) *float64 { return &v }
