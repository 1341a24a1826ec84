package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/ledger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Post source-document events by hand",
}

func parseEventTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

var (
	saleOrderID string
	saleTotal   string
	saleAt      string
	saleTable   string
)

var eventSaleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record a paid order",
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := ledger.ParseAmount(saleTotal)
		if err != nil {
			return err
		}
		ts, err := parseEventTime(saleAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}

		e, err := newClient().PostSale(context.Background(), ledger.SaleEvent{
			OrderID:   saleOrderID,
			Total:     total,
			Timestamp: ts,
			TableRef:  saleTable,
		})
		if err != nil {
			return eventError(err)
		}
		fmt.Printf("Sale %s posted as %s\n", saleOrderID, e.PieceNumber)
		return nil
	},
}

var (
	purchaseOrderID  string
	purchaseSupplier string
	purchaseTotal    string
	purchaseAt       string
)

var eventPurchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Record a delivered supplier order",
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := ledger.ParseAmount(purchaseTotal)
		if err != nil {
			return err
		}
		delivered, err := parseEventTime(purchaseAt)
		if err != nil {
			return fmt.Errorf("invalid --delivered: %w", err)
		}

		e, err := newClient().PostPurchase(context.Background(), ledger.PurchaseEvent{
			SupplierOrderID: purchaseOrderID,
			SupplierName:    purchaseSupplier,
			TotalAmount:     total,
			DeliveredDate:   delivered,
		})
		if err != nil {
			return eventError(err)
		}
		fmt.Printf("Purchase %s from %s posted as %s\n", purchaseOrderID, purchaseSupplier, e.PieceNumber)
		return nil
	},
}

// eventError points at the existing entry when the event was already posted.
func eventError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict && apiErr.EntryID != "" {
		return fmt.Errorf("already posted as entry %s", apiErr.EntryID)
	}
	return err
}

func init() {
	eventSaleCmd.Flags().StringVar(&saleOrderID, "order", "", "Order id")
	eventSaleCmd.Flags().StringVar(&saleTotal, "total", "", "Amount paid")
	eventSaleCmd.Flags().StringVar(&saleAt, "at", "", "Payment time, RFC3339 or YYYY-MM-DD (default now)")
	eventSaleCmd.Flags().StringVar(&saleTable, "table", "", "Table reference")
	eventSaleCmd.MarkFlagRequired("order")
	eventSaleCmd.MarkFlagRequired("total")

	eventPurchaseCmd.Flags().StringVar(&purchaseOrderID, "order", "", "Supplier order id")
	eventPurchaseCmd.Flags().StringVar(&purchaseSupplier, "supplier", "", "Supplier name")
	eventPurchaseCmd.Flags().StringVar(&purchaseTotal, "total", "", "Delivered amount")
	eventPurchaseCmd.Flags().StringVar(&purchaseAt, "delivered", "", "Delivery date, RFC3339 or YYYY-MM-DD (default now)")
	eventPurchaseCmd.MarkFlagRequired("order")
	eventPurchaseCmd.MarkFlagRequired("supplier")
	eventPurchaseCmd.MarkFlagRequired("total")

	eventCmd.AddCommand(eventSaleCmd)
	eventCmd.AddCommand(eventPurchaseCmd)
	rootCmd.AddCommand(eventCmd)
}
