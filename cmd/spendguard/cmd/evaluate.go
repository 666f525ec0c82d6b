package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/spendguard/internal/action"
	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/policy"
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

var evaluatePolicy string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <context.json|->",
	Short: "Evaluate one approval request offline",
	Long: `Evaluate a rule evaluation context (JSON, "-" for stdin) and print the
matched rule, the per-rule audit trail and the resulting action outcome.

Without --policy the built-in default rules are used.

Example:
  echo '{"amount": 7500, "user_role": "staff"}' | spendguard evaluate -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := readContext(cmd, args[0])
		if err != nil {
			return err
		}
		p, err := loadPolicy(evaluatePolicy)
		if err != nil {
			return err
		}

		res := p.Evaluate(ctx)
		out, err := action.NewDefaultRegistry().Dispatch(cmd.Context(), uuid.NewString(), res)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"policy_version": p.Version(),
			"result":         res,
			"outcome":        out,
		})
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluatePolicy, "policy", "", "policy YAML (default: built-in rules)")
	rootCmd.AddCommand(evaluateCmd)
}

func readContext(cmd *cobra.Command, path string) (rules.RuleEvaluationContext, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return rules.RuleEvaluationContext{}, err
		}
		defer f.Close()
		r = f
	}
	var ctx rules.RuleEvaluationContext
	if err := json.NewDecoder(r).Decode(&ctx); err != nil {
		return rules.RuleEvaluationContext{}, fmt.Errorf("decode context: %w", err)
	}
	return ctx, nil
}

func loadPolicy(path string) (*policy.Policy, error) {
	if path == "" {
		return policy.FromRules(rules.DefaultApprovalRules(), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	return policy.Build(cfg, nil)
}
