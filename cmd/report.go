package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial reports",
}

var reportPeriod string

var reportTrialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		tb, err := newClient().TrialBalance(context.Background(), reportPeriod)
		if err != nil {
			return err
		}
		printTrialBalance(tb)
		return nil
	},
}

var reportPnLCmd = &cobra.Command{
	Use:     "pnl",
	Aliases: []string{"income"},
	Short:   "Profit and loss statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		pl, err := newClient().ProfitAndLoss(context.Background(), reportPeriod)
		if err != nil {
			return err
		}
		printProfitAndLoss(pl)
		return nil
	},
}

var reportAsOf string

var reportBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		bs, err := newClient().BalanceSheet(context.Background(), reportAsOf)
		if err != nil {
			return err
		}
		printBalanceSheet(bs)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reportTrialCmd, reportPnLCmd} {
		c.Flags().StringVar(&reportPeriod, "period", "", "Period: YYYY, YYYY-MM or YYYY-Qn (default all time)")
	}
	reportBalanceCmd.Flags().StringVar(&reportAsOf, "as-of", "", "Balance sheet date YYYY-MM-DD (default today)")

	reportCmd.AddCommand(reportTrialCmd)
	reportCmd.AddCommand(reportPnLCmd)
	reportCmd.AddCommand(reportBalanceCmd)
	rootCmd.AddCommand(reportCmd)
}
