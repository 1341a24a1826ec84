package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

var journalCmd = &cobra.Command{
	Use:     "journal",
	Aliases: []string{"je"},
	Short:   "Record, list and validate journal entries",
}

// journal create
var (
	jeDate        string
	jeDescription string
	jeLines       []string // format: "code:side:amount[:label]"
)

// parseLine reads "code:side:amount[:label]", side being debit/dr or credit/cr.
func parseLine(s string) (client.EntryLine, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return client.EntryLine{}, fmt.Errorf("invalid line %q, expected code:side:amount[:label]", s)
	}
	var side ledger.Side
	switch strings.ToLower(parts[1]) {
	case "debit", "dr", "d":
		side = ledger.Debit
	case "credit", "cr", "c":
		side = ledger.Credit
	default:
		return client.EntryLine{}, fmt.Errorf("invalid side %q in line %q", parts[1], s)
	}
	amount, err := ledger.ParseAmount(parts[2])
	if err != nil {
		return client.EntryLine{}, fmt.Errorf("line %q: %w", s, err)
	}
	line := client.EntryLine{Account: parts[0], Side: side, Amount: amount}
	if len(parts) == 4 {
		line.Description = parts[3]
	}
	return line, nil
}

var journalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a manual journal entry (pending until validated)",
	Long: "Record a manual entry. Each --line is \"code:side:amount[:label]\", e.g.\n" +
		"  --line 613:debit:1200 --line 512:credit:1200:March rent",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		lines := make([]client.EntryLine, 0, len(jeLines))
		for _, raw := range jeLines {
			l, err := parseLine(raw)
			if err != nil {
				return err
			}
			lines = append(lines, l)
		}

		created, err := c.CreateEntry(context.Background(), jeDate, jeDescription, lines)
		if err != nil {
			return err
		}

		fmt.Printf("Entry %s recorded (%s), pending validation\n", created.PieceNumber, created.ID)
		return nil
	},
}

// journal list
var (
	jeListPeriod  string
	jeListSource  string
	jeListAccount string
	jeListPending bool
	jeListLimit   int
)

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		q := client.EntryQuery{
			Period:    jeListPeriod,
			Source:    ledger.Source(jeListSource),
			AccountID: jeListAccount,
			Limit:     jeListLimit,
		}
		if jeListPending {
			pending := false
			q.Validated = &pending
		}
		entries, err := c.ListEntries(context.Background(), q)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No journal entries found.")
			return nil
		}

		fmt.Printf("%-10s %-22s %-10s %12s %s\n", "DATE", "PIECE", "STATUS", "AMOUNT", "DESCRIPTION")
		fmt.Printf("%-10s %-22s %-10s %12s %s\n", "----", "-----", "------", "------", "-----------")
		for _, e := range entries {
			status := "pending"
			switch {
			case e.IsSystemGenerated:
				status = "auto"
			case e.IsValidated:
				status = "validated"
			}
			debit, _ := e.Totals()
			fmt.Printf("%-10s %-22s %-10s %12s %s\n",
				e.Date.Format("2006-01-02"),
				e.PieceNumber,
				status,
				ledger.FormatAmount(debit),
				truncate(e.Description, 40),
			)
		}
		return nil
	},
}

var journalGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		e, err := c.GetEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		printEntry(e)
		return nil
	},
}

var journalValidateCmd = &cobra.Command{
	Use:   "validate [id]",
	Short: "Validate a pending entry so it posts to the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()

		e, err := c.ValidateEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Entry %s validated by %s\n", e.PieceNumber, e.ValidatedBy)
		return nil
	},
}

func init() {
	journalCreateCmd.Flags().StringVar(&jeDate, "date", "", "Entry date YYYY-MM-DD (default today)")
	journalCreateCmd.Flags().StringVar(&jeDescription, "description", "", "Entry description")
	journalCreateCmd.Flags().StringArrayVar(&jeLines, "line", nil, "Line as code:side:amount[:label] (repeatable)")
	journalCreateCmd.MarkFlagRequired("description")
	journalCreateCmd.MarkFlagRequired("line")

	journalListCmd.Flags().StringVar(&jeListPeriod, "period", "", "Period: YYYY, YYYY-MM or YYYY-Qn")
	journalListCmd.Flags().StringVar(&jeListSource, "source", "", "Filter by source (sales, purchases, expenses, manual)")
	journalListCmd.Flags().StringVar(&jeListAccount, "account", "", "Filter by account id")
	journalListCmd.Flags().BoolVar(&jeListPending, "pending", false, "Only entries awaiting validation")
	journalListCmd.Flags().IntVar(&jeListLimit, "limit", 0, "Maximum number of entries")

	journalCmd.AddCommand(journalCreateCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalGetCmd)
	journalCmd.AddCommand(journalValidateCmd)

	rootCmd.AddCommand(journalCmd)
}
