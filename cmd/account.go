package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/ledger"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the chart of accounts",
}

// account create
var (
	acctCreateCode string
	acctCreateName string
	acctCreateType string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		created, err := c.CreateAccount(context.Background(), acctCreateCode, acctCreateName, ledger.AccountType(acctCreateType))
		if err != nil {
			return err
		}

		fmt.Printf("Account created: %s %s (%s, class %d) id %s\n",
			created.Code, created.Name, created.Type, created.Class, created.ID)
		return nil
	},
}

// account list
var (
	acctListType   string
	acctListClass  int
	acctListActive bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		accounts, err := c.ListAccounts(context.Background(), ledger.AccountFilter{
			Type:       ledger.AccountType(acctListType),
			Class:      acctListClass,
			ActiveOnly: acctListActive,
		})
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-6s %-32s %-10s %-5s %s\n", "CODE", "NAME", "TYPE", "CLASS", "STATUS")
		fmt.Printf("%-6s %-32s %-10s %-5s %s\n", "----", "----", "----", "-----", "------")
		for _, a := range accounts {
			status := "active"
			if !a.IsActive {
				status = "inactive"
			}
			if a.IsSystem {
				status += ", system"
			}
			fmt.Printf("%-6s %-32s %-10s %-5d %s\n", a.Code, truncate(a.Name, 32), a.Type, a.Class, status)
		}
		return nil
	},
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [id|code]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		acct, err := c.GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %s\n", acct.ID)
		fmt.Printf("Code:    %s\n", acct.Code)
		fmt.Printf("Name:    %s\n", acct.Name)
		fmt.Printf("Class:   %d (%s)\n", acct.Class, ledger.ClassLabel(acct.Class))
		fmt.Printf("Type:    %s, normal side %s\n", acct.Type, acct.Type.NormalSide())
		fmt.Printf("Active:  %v\n", acct.IsActive)
		fmt.Printf("System:  %v\n", acct.IsSystem)
		fmt.Printf("Created: %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id|code]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()

			acct, err := c.SetAccountActive(context.Background(), args[0], active)
			if err != nil {
				return err
			}
			state := "inactive"
			if acct.IsActive {
				state = "active"
			}
			fmt.Printf("Account %s %s is now %s\n", acct.Code, acct.Name, state)
			return nil
		},
	}
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id|code]",
	Short: "Delete an account that was never posted to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		if err := c.DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted\n", args[0])
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Chart code, first digit is the class (e.g. 6063)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "asset, liability, equity, revenue or expense")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")
	accountCreateCmd.MarkFlagRequired("type")

	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by account type")
	accountListCmd.Flags().IntVar(&acctListClass, "class", 0, "Filter by chart class (1-7)")
	accountListCmd.Flags().BoolVar(&acctListActive, "active", false, "Only active accounts")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(setActiveCmd("activate", "Reactivate an account", true))
	accountCmd.AddCommand(setActiveCmd("deactivate", "Deactivate an account", false))
	accountCmd.AddCommand(accountDeleteCmd)

	rootCmd.AddCommand(accountCmd)
}
