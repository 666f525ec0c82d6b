package rules

// GetRequiredApprovers returns the approver ids of the matched action when it
// asks for single or multi approval; otherwise an empty list.
func GetRequiredApprovers(res RuleEvaluationResult) []string {
	if !res.Matched || res.Action == nil {
		return []string{}
	}
	switch res.Action.Type {
	case ActionRequireApproval, ActionRequireMultiApproval:
		out := make([]string, len(res.Action.ApproverIDs))
		copy(out, res.Action.ApproverIDs)
		return out
	}
	return []string{}
}

// RequiresApproval is true when a human has to act on the request.
func RequiresApproval(res RuleEvaluationResult) bool {
	if !res.Matched || res.Action == nil {
		return false
	}
	switch res.Action.Type {
	case ActionRequireApproval, ActionRequireMultiApproval, ActionEscalate:
		return true
	}
	return false
}

// CanAutoApprove is true when the matched action is auto_approve.
func CanAutoApprove(res RuleEvaluationResult) bool {
	return res.Matched && res.Action != nil && res.Action.Type == ActionAutoApprove
}

// ShouldReject is true when the matched action is reject.
func ShouldReject(res RuleEvaluationResult) bool {
	return res.Matched && res.Action != nil && res.Action.Type == ActionReject
}
