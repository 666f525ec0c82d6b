package config

import (
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

// PolicyConfig is the top-level YAML structure of a policy file.
type PolicyConfig struct {
	Version  string              `yaml:"version" validate:"required"`
	Engine   EngineConf          `yaml:"engine"`
	Rules    []RuleDef           `yaml:"rules" validate:"dive"`
	Limits   map[string]LimitDef `yaml:"limits" validate:"dive"`
	Accounts map[string]string   `yaml:"accounts"` // account id -> limit name
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers       int    `yaml:"workers" validate:"gte=1"`
	QueueDepth    int    `yaml:"queue_depth" validate:"gte=1"`
	EvalTimeoutMs int    `yaml:"eval_timeout_ms" validate:"gte=1"`
	CustomDialect string `yaml:"custom_dialect" validate:"omitempty,oneof=key expr cel"`
}

// RuleDef is one approval rule as written in YAML.
type RuleDef struct {
	ID          string         `yaml:"id" validate:"required"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Priority    int            `yaml:"priority"`
	Active      *bool          `yaml:"is_active"` // nil means active
	Conditions  []ConditionDef `yaml:"conditions" validate:"dive"`
	Action      ActionDef      `yaml:"action"`
}

// ConditionDef is one rule condition.
type ConditionDef struct {
	Type    string `yaml:"type" validate:"required,condition_type"`
	Value   any    `yaml:"value"`
	ValueTo any    `yaml:"value_to"`
}

// ActionDef is the outcome a matching rule prescribes.
type ActionDef struct {
	Type              string   `yaml:"type" validate:"required,action_type"`
	ApproverIDs       []string `yaml:"approver_ids"`
	RequiredApprovals int      `yaml:"required_approvals" validate:"gte=0"`
	EscalateTo        string   `yaml:"escalate_to"`
	Message           string   `yaml:"message"`
	NotifyRecipients  []string `yaml:"notify_recipients"`
}

// LimitDef is a named spending limit.
type LimitDef struct {
	MaxAmount           float64 `yaml:"max_amount" validate:"gt=0"`
	Period              string  `yaml:"period" validate:"required,period"`
	SoftLimitPercentage float64 `yaml:"soft_limit_percentage" validate:"gte=0,lte=100"`
	HardLimitPercentage float64 `yaml:"hard_limit_percentage" validate:"gte=0"`
	Rollover            bool    `yaml:"rollover"`
	RolloverPercentage  float64 `yaml:"rollover_percentage" validate:"gte=0,lte=100"`
}

// ApprovalRule converts the definition into the rule engine's type.
func (r RuleDef) ApprovalRule() rules.ApprovalRule {
	active := r.Active == nil || *r.Active
	conds := make([]rules.RuleCondition, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = rules.RuleCondition{
			Type:    rules.ConditionType(c.Type),
			Value:   c.Value,
			ValueTo: c.ValueTo,
		}
	}
	return rules.ApprovalRule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Conditions:  conds,
		Priority:    r.Priority,
		IsActive:    active,
		Action: rules.RuleAction{
			Type:              rules.ActionType(r.Action.Type),
			ApproverIDs:       append([]string(nil), r.Action.ApproverIDs...),
			RequiredApprovals: r.Action.RequiredApprovals,
			EscalateTo:        r.Action.EscalateTo,
			Message:           r.Action.Message,
			NotifyRecipients:  append([]string(nil), r.Action.NotifyRecipients...),
		},
	}
}

// LimitConfig converts the definition into the calculator's type.
func (l LimitDef) LimitConfig() spending.LimitConfig {
	return spending.LimitConfig{
		MaxAmount:           l.MaxAmount,
		Period:              spending.Period(l.Period),
		SoftLimitPercentage: l.SoftLimitPercentage,
		HardLimitPercentage: l.HardLimitPercentage,
		Rollover:            l.Rollover,
		RolloverPercentage:  l.RolloverPercentage,
	}
}
