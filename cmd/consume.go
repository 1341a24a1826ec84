package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/logger"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Post sales, deliveries and approved claims from Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is not configured")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, closeAll, err := openService(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		consumer := newConsumer(svc)
		defer consumer.Close()

		logger.L.Info("consuming source documents", "brokers", cfg.Kafka.Brokers, "group", cfg.Kafka.GroupID)
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
