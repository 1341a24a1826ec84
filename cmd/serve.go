package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/events"
	"github.com/simonvc/bistroledger/internal/logger"
	"github.com/simonvc/bistroledger/internal/server"
	"github.com/simonvc/bistroledger/internal/store"
)

var (
	serveAddr    string
	serveConsume bool
)

// openService opens the configured store and builds the accounting service
// on top of it. The returned close func releases the store and publisher.
func openService(ctx context.Context) (*accounting.Service, func(), error) {
	st, err := store.Open(ctx, store.Dialect(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	opts := accounting.Options{
		Designations: cfg.Accounting.Designations,
		CacheTTL:     cfg.Cache.TTL,
	}
	if len(cfg.Auth.Validators) > 0 {
		opts.Authorizer = auth.NewDirectory(cfg.Auth.Validators)
	} else {
		logger.L.Warn("no validators configured, every user may validate entries")
	}

	var pub *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topics.Posted != "" {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topics.Posted)
		opts.Publisher = pub
	}

	closeAll := func() {
		if pub != nil {
			if err := pub.Close(); err != nil {
				logger.L.Error("close publisher", "error", err)
			}
		}
		if err := st.Close(); err != nil {
			logger.L.Error("close store", "error", err)
		}
	}

	svc := accounting.New(st, opts)
	if err := svc.Bootstrap(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("seed chart of accounts: %w", err)
	}
	logger.L.Info("ledger store ready", "driver", st.Dialect())
	return svc, closeAll, nil
}

func serverOptions() server.Options {
	opts := server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
	}
	if cfg.Auth.JWTSecret != "" {
		opts.Tokens = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}
	return opts
}

func newConsumer(svc *accounting.Service) *events.Consumer {
	return events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, events.Topics{
		Sales:     cfg.Kafka.Topics.Sales,
		Purchases: cfg.Kafka.Topics.Purchases,
		Expenses:  cfg.Kafka.Topics.Expenses,
	}, svc)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, closeAll, err := openService(ctx)
		if err != nil {
			return err
		}
		defer closeAll()

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		if serveConsume {
			if len(cfg.Kafka.Brokers) == 0 {
				return fmt.Errorf("--consume needs kafka.brokers in the config")
			}
			consumer := newConsumer(svc)
			defer consumer.Close()
			go func() {
				if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
					logger.L.Error("consumer stopped", "error", err)
					stop()
				}
			}()
		}

		srv := server.New(svc, addr, serverOptions())
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveConsume, "consume", false, "Also consume source-document topics from Kafka")
	rootCmd.AddCommand(serveCmd)
}
