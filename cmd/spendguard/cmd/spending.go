package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

var spendingFlags struct {
	max      float64
	period   string
	soft     float64
	hard     float64
	date     string
	forecast int
	lang     string
}

var spendingCmd = &cobra.Command{
	Use:   "spending <records.json>",
	Short: "Summarise spending records against a limit",
	Long: `Read a JSON array of spending records ({"amount", "date", "category"})
and report the position of the period containing --date against the limit.

Example:
  spendguard spending records.json --max 1000 --period monthly --soft 80`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := spendingFlags
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var records []spending.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode records: %w", err)
		}
		ref := time.Now()
		if f.date != "" {
			if ref, err = time.Parse(time.DateOnly, f.date); err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}
		tag, err := language.Parse(f.lang)
		if err != nil {
			return fmt.Errorf("invalid --lang: %w", err)
		}

		cfg := spending.LimitConfig{
			MaxAmount:           f.max,
			Period:              spending.Period(f.period),
			SoftLimitPercentage: f.soft,
			HardLimitPercentage: f.hard,
		}
		calc, err := spending.CalculateSpending(records, cfg, ref)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		amt := func(v float64) string { return spending.FormatAmount(v, tag) }
		fmt.Fprintf(out, "period     %s .. %s\n", calc.PeriodStart.Format(time.DateOnly), calc.PeriodEnd.AddDate(0, 0, -1).Format(time.DateOnly))
		fmt.Fprintf(out, "spent      %s of %s (%s)\n", amt(calc.TotalSpent), amt(calc.Limit), spending.FormatPercentage(calc.Percentage, tag))
		fmt.Fprintf(out, "remaining  %s over %d days (%s/day recommended)\n", amt(calc.Remaining), calc.DaysRemaining, amt(calc.RecommendedDaily))
		fmt.Fprintf(out, "projected  %s (on track: %t)\n", amt(calc.Projected), calc.OnTrack)
		switch {
		case calc.HardLimitExceeded:
			fmt.Fprintln(out, "status     hard limit exceeded")
		case calc.SoftLimitExceeded:
			fmt.Fprintln(out, "status     soft limit exceeded")
		default:
			fmt.Fprintln(out, "status     within limit")
		}

		inPeriod := spending.FilterByPeriod(records, calc.PeriodStart, calc.PeriodEnd)
		for _, c := range spending.TopCategories(inPeriod, 3) {
			fmt.Fprintf(out, "  %-16s %s\n", c.Category, amt(c.Amount))
		}

		if f.forecast > 0 {
			points, err := spending.GenerateForecast(records, cfg, ref, f.forecast)
			if err != nil {
				return err
			}
			for _, pt := range points {
				fmt.Fprintf(out, "forecast   %s %s\n", pt.Date, amt(pt.Projected))
			}
		}
		return nil
	},
}

func init() {
	fl := spendingCmd.Flags()
	fl.Float64Var(&spendingFlags.max, "max", 0, "limit amount")
	fl.StringVar(&spendingFlags.period, "period", string(spending.Monthly), "daily, weekly, monthly, quarterly or yearly")
	fl.Float64Var(&spendingFlags.soft, "soft", 0, "soft threshold percentage (0 disables)")
	fl.Float64Var(&spendingFlags.hard, "hard", 0, "hard threshold percentage (default 100)")
	fl.StringVar(&spendingFlags.date, "date", "", "reference date YYYY-MM-DD (default today)")
	fl.IntVar(&spendingFlags.forecast, "forecast", 0, "days to forecast")
	fl.StringVar(&spendingFlags.lang, "lang", "en", "language tag for number formatting")
	_ = spendingCmd.MarkFlagRequired("max")
	rootCmd.AddCommand(spendingCmd)
}
