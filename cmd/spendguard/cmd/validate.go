package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/policy"
)

var validateCmd = &cobra.Command{
	Use:   "validate <policy.yaml>",
	Short: "Check a policy file",
	Long: `Parse and validate a policy file the way the service does on load and
hot-reload. Every problem is listed; the exit status is non-zero when any
is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Parse(data)
		if err != nil {
			return err
		}
		p, err := policy.Build(cfg, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (version %s, %d rules, %d limits, %d accounts, fingerprint %s)\n",
			args[0], p.Version(), len(p.Rules()), len(p.Limits()), len(p.Accounts()), p.Fingerprint())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
