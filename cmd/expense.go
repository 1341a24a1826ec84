package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/ledger"
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"ndf"},
	Short:   "Submit and decide staff expense claims",
}

var (
	expAmount      string
	expDescription string
	expAccount     string
)

var expenseSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an expense claim for approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := ledger.ParseAmount(expAmount)
		if err != nil {
			return err
		}

		claim, err := newClient().SubmitExpense(context.Background(), accounting.ExpenseRequest{
			Amount:      amount,
			Description: expDescription,
			AccountID:   expAccount,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Claim %s submitted for %s, pending approval\n", claim.ID, ledger.FormatAmount(claim.Amount))
		return nil
	},
}

var expListStatus string

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expense claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		claims, err := newClient().ListExpenses(context.Background(), ledger.ClaimStatus(expListStatus))
		if err != nil {
			return err
		}

		if len(claims) == 0 {
			fmt.Println("No expense claims found.")
			return nil
		}

		fmt.Printf("%-36s %-10s %-12s %-9s %12s %s\n", "ID", "DATE", "BY", "STATUS", "AMOUNT", "DESCRIPTION")
		fmt.Printf("%-36s %-10s %-12s %-9s %12s %s\n", "--", "----", "--", "------", "------", "-----------")
		for _, cl := range claims {
			fmt.Printf("%-36s %-10s %-12s %-9s %12s %s\n",
				cl.ID,
				cl.SubmittedAt.Format("2006-01-02"),
				truncate(cl.SubmittedBy, 12),
				cl.Status,
				ledger.FormatAmount(cl.Amount),
				truncate(cl.Description, 36),
			)
		}
		return nil
	},
}

var expenseApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a claim and post its journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newClient().ApproveExpense(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Claim %s approved, posted as %s\n", args[0], e.PieceNumber)
		return nil
	},
}

var expRejectReason string

var expenseRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a pending claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := newClient().RejectExpense(context.Background(), args[0], expRejectReason)
		if err != nil {
			return err
		}
		fmt.Printf("Claim %s rejected by %s\n", cl.ID, cl.DecidedBy)
		return nil
	},
}

func init() {
	expenseSubmitCmd.Flags().StringVar(&expAmount, "amount", "", "Claimed amount (e.g. 42.50)")
	expenseSubmitCmd.Flags().StringVar(&expDescription, "description", "", "What the money was spent on")
	expenseSubmitCmd.Flags().StringVar(&expAccount, "account", "", "Expense account id or code (default: designated claims account)")
	expenseSubmitCmd.MarkFlagRequired("amount")
	expenseSubmitCmd.MarkFlagRequired("description")

	expenseListCmd.Flags().StringVar(&expListStatus, "status", "", "pending, approved or rejected")

	expenseRejectCmd.Flags().StringVar(&expRejectReason, "reason", "", "Why the claim is rejected")

	expenseCmd.AddCommand(expenseSubmitCmd)
	expenseCmd.AddCommand(expenseListCmd)
	expenseCmd.AddCommand(expenseApproveCmd)
	expenseCmd.AddCommand(expenseRejectCmd)
	rootCmd.AddCommand(expenseCmd)
}
