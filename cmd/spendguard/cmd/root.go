// Package cmd provides the CLI commands for spendguard.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/spendguard/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spendguard",
	Short: "spendguard - purchase approval and spending limit service",
	Long: `spendguard decides whether a purchase needs approval and whether it fits
an account's spending limit.

Approval rules, spending limits and account assignments live in a policy
file (default: configs/policy.yaml) that is hot-reloaded while serving.

Process settings are read from spendguard.yaml in the current directory or
the file passed with --config. Environment variables override them with the
SPENDGUARD_ prefix, e.g. SPENDGUARD_LISTEN_ADDR=:9090 or
SPENDGUARD_STORE_DRIVER=sqlite.

Commands:
  serve       Start the HTTP service
  validate    Check a policy file
  evaluate    Evaluate one approval request offline
  spending    Summarise spending records against a limit
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: ./spendguard.yaml)")
}

func initConfig() {
	config.InitSettings(cfgFile)
}
