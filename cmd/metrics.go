package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var metricsPeriod string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Operating metrics: food cost, labor cost, margins",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newClient().Metrics(context.Background(), metricsPeriod)
		if err != nil {
			return err
		}

		w := 52
		fmt.Println()
		fmt.Println(center("OPERATING METRICS", w))
		fmt.Println(center(periodTitle(metricsPeriod), w))
		fmt.Println()

		row := func(label string, d decimal.Decimal) {
			fmt.Printf("  %-30s %18s\n", label, formatSigned(d))
		}
		pct := func(label string, d decimal.Decimal) {
			fmt.Printf("  %-30s %17s%%\n", label, d.StringFixed(2))
		}

		row("Revenue", m.TotalRevenue)
		row("Cost of goods sold", m.COGS)
		row("Gross margin", m.GrossMargin)
		row("Labor cost", m.LaborCost)
		row("Operating expenses", m.OperatingExpenses)
		row("EBITDA", m.EBITDA)
		row("Total expenses", m.TotalExpenses)
		row("Net profit", m.NetProfit)
		fmt.Println()
		pct("Food cost", m.FoodCostPct)
		pct("Labor cost", m.LaborCostPct)
		pct("Gross margin", m.GrossMarginPct)
		pct("Net margin", m.NetMarginPct)

		if m.TotalRevenue.IsZero() {
			fmt.Println("\n  No revenue in period, ratios are zero.")
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsPeriod, "period", "", "Period: YYYY, YYYY-MM or YYYY-Qn (default all time)")
	rootCmd.AddCommand(metricsCmd)
}
