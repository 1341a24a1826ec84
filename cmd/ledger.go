package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger [id|code]",
	Short: "Show the general ledger, or one account's movements",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		if len(args) == 1 {
			la, err := c.GetAccountLedger(ctx, args[0])
			if err != nil {
				return err
			}
			printAccountLedger(la)
			return nil
		}

		accounts, err := c.GetLedger(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-6s %-32s %15s %15s %15s\n", "CODE", "NAME", "DEBIT", "CREDIT", "BALANCE")
		fmt.Printf("%-6s %-32s %15s %15s %15s\n", "----", "----", "-----", "------", "-------")
		for _, la := range accounts {
			if len(la.Movements) == 0 {
				continue
			}
			fmt.Printf("%-6s %-32s %15s %15s %15s\n",
				la.Code,
				truncate(la.Name, 32),
				ledger.FormatAmount(la.DebitTotal),
				ledger.FormatAmount(la.CreditTotal),
				formatSigned(la.Balance),
			)
		}
		return nil
	},
}

func printAccountLedger(la *ledger.LedgerAccount) {
	fmt.Printf("%s %s (%s, normal side %s)\n\n", la.Code, la.Name, la.Type, la.Type.NormalSide())
	fmt.Printf("%-10s %-22s %-28s %12s %12s %14s\n", "DATE", "PIECE", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE")
	fmt.Printf("%-10s %-22s %-28s %12s %12s %14s\n", "----", "-----", "-----------", "-----", "------", "-------")
	for _, m := range la.Movements {
		fmt.Printf("%-10s %-22s %-28s %12s %12s %14s\n",
			m.Date.Format("2006-01-02"),
			m.PieceNumber,
			truncate(m.Description, 28),
			blankZero(m.Debit),
			blankZero(m.Credit),
			formatSigned(m.RunningBalance),
		)
	}
	fmt.Printf("\n%-62s %12s %12s %14s\n", "TOTALS",
		ledger.FormatAmount(la.DebitTotal),
		ledger.FormatAmount(la.CreditTotal),
		formatSigned(la.Balance))
}

var ledgerAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Cross-check derived account totals against the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		report, err := c.Audit(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Checked %d accounts at revision %d\n", report.Accounts, report.Revision)
		if report.OK {
			fmt.Println("OK: ledger totals match the journal")
			return nil
		}
		for _, m := range report.Mismatches {
			fmt.Printf("  %-6s derived %s / %s, stored %s / %s\n", m.Code,
				ledger.FormatAmount(m.Derived.Debit), ledger.FormatAmount(m.Derived.Credit),
				ledger.FormatAmount(m.Stored.Debit), ledger.FormatAmount(m.Stored.Credit))
		}
		return fmt.Errorf("%d account(s) out of balance", len(report.Mismatches))
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerAuditCmd)
	rootCmd.AddCommand(ledgerCmd)
}
