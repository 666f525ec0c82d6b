package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gyaneshwarpardhi/spendguard/internal/custom"
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

// registerCustomValidators adds the domain enum checks.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return spending.Period(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register period validator: %w", err)
	}
	if err := v.RegisterValidation("condition_type", func(fl validator.FieldLevel) bool {
		return rules.ConditionType(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register condition_type validator: %w", err)
	}
	if err := v.RegisterValidation("action_type", func(fl validator.FieldLevel) bool {
		return rules.ActionType(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register action_type validator: %w", err)
	}
	return nil
}

// yamlName reports fields by their YAML key in validation messages.
func yamlName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks the policy for:
//   - struct-tag constraints (required fields, ranges, known enums)
//   - duplicate rule ids
//   - condition values of the right shape for their type
//   - action parameters each action type needs
//   - accounts that reference undefined limits
//   - custom condition values that the configured dialect cannot compile
//
// All problems are reported in one error.
func Validate(cfg *PolicyConfig) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(yamlName)
	if err := registerCustomValidators(v); err != nil {
		return err
	}

	var errs []string
	if err := v.Struct(cfg); err != nil {
		errs = append(errs, formatValidationErrors(err)...)
	}

	ids := make(map[string]int) // id -> index
	for i, r := range cfg.Rules {
		loc := fmt.Sprintf("rules[%d]", i)
		if r.ID != "" {
			loc = fmt.Sprintf("rule %s", r.ID)
			if prev, ok := ids[r.ID]; ok {
				errs = append(errs, fmt.Sprintf("duplicate rule id %q (rules[%d] and rules[%d])", r.ID, prev, i))
			} else {
				ids[r.ID] = i
			}
		}
		for j, c := range r.Conditions {
			if msg := checkConditionValue(c); msg != "" {
				errs = append(errs, fmt.Sprintf("%s: conditions[%d]: %s", loc, j, msg))
			}
		}
		if msg := checkAction(r.Action); msg != "" {
			errs = append(errs, fmt.Sprintf("%s: action: %s", loc, msg))
		}
	}

	for account, limit := range cfg.Accounts {
		if _, ok := cfg.Limits[limit]; !ok {
			errs = append(errs, fmt.Sprintf("account %s: references unknown limit %q", account, limit))
		}
	}

	if ev, err := custom.New(custom.Dialect(cfg.Engine.CustomDialect)); err == nil {
		for i, r := range cfg.Rules {
			for j, c := range r.Conditions {
				if rules.ConditionType(c.Type) != rules.ConditionCustom {
					continue
				}
				if err := ev.Check(c.Value); err != nil {
					errs = append(errs, fmt.Sprintf("rules[%d].conditions[%d]: custom %s condition: %v", i, j, cfg.Engine.CustomDialect, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func checkConditionValue(c ConditionDef) string {
	switch rules.ConditionType(c.Type) {
	case rules.ConditionAmountGreaterThan, rules.ConditionAmountLessThan,
		rules.ConditionQuantityGreaterThan, rules.ConditionQuantityLessThan:
		if _, ok := rules.NumericValue(c.Value); !ok {
			return fmt.Sprintf("%s needs a numeric value", c.Type)
		}
	case rules.ConditionAmountBetween:
		lo, okLo := rules.NumericValue(c.Value)
		hi, okHi := rules.NumericValue(c.ValueTo)
		if !okLo || !okHi {
			return "amount_between needs numeric value and value_to"
		}
		if lo > hi {
			return fmt.Sprintf("amount_between value %v exceeds value_to %v", lo, hi)
		}
	case rules.ConditionCategoryIn, rules.ConditionCategoryNotIn,
		rules.ConditionUserRoleIn, rules.ConditionUserRoleNotIn,
		rules.ConditionDepartmentIn, rules.ConditionDepartmentNotIn,
		rules.ConditionCostCenterIn, rules.ConditionCostCenterNotIn,
		rules.ConditionVendorIn, rules.ConditionVendorNotIn:
		if !stringOrList(c.Value) {
			return fmt.Sprintf("%s needs a string or a list of strings", c.Type)
		}
	}
	return ""
}

func stringOrList(v any) bool {
	switch l := v.(type) {
	case string:
		return l != ""
	case []string:
		return true
	case []any:
		for _, item := range l {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func checkAction(a ActionDef) string {
	switch rules.ActionType(a.Type) {
	case rules.ActionRequireMultiApproval:
		if a.RequiredApprovals < 1 {
			return "require_multi_approval needs required_approvals >= 1"
		}
		if len(a.ApproverIDs) > 0 && a.RequiredApprovals > len(a.ApproverIDs) {
			return fmt.Sprintf("required_approvals %d exceeds the %d listed approvers", a.RequiredApprovals, len(a.ApproverIDs))
		}
	case rules.ActionEscalate:
		if a.EscalateTo == "" {
			return "escalate needs escalate_to"
		}
	case rules.ActionNotify:
		if len(a.NotifyRecipients) == 0 {
			return "notify needs notify_recipients"
		}
	}
	return ""
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleValidationError(e))
	}
	return messages
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "PolicyConfig.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "period":
		return fmt.Sprintf("%s: unknown period %q", field, e.Value())
	case "condition_type":
		return fmt.Sprintf("%s: unknown condition type %q", field, e.Value())
	case "action_type":
		return fmt.Sprintf("%s: unknown action type %q", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
