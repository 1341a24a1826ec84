package cmd

import (
	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/client"
	"github.com/simonvc/bistroledger/internal/config"
	"github.com/simonvc/bistroledger/internal/logger"
)

const defaultConfigPath = "bistroledger.yaml"

var (
	flagServer string
	flagConfig string
	flagUser   string
	flagToken  string
	flagPIN    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bistroledger",
	Short: "Double-entry ledger for restaurants",
	Long: "A double-entry accounting ledger for a restaurant: chart of accounts, journal with\n" +
		"validation, automatic posting of sales, supplier deliveries and expense claims, and\n" +
		"derived trial balance, P&L, balance sheet and operating metrics.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Resolve(flagConfig, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		logger.Init(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8080", "Server address")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "User id sent as X-User-ID when the server runs without tokens")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (or LEDGER_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagPIN, "pin", "", "Validation PIN for validate, approve and reject")
}

// newClient builds an API client from the global flags.
func newClient() *client.Client {
	var opts []client.Option
	if flagUser != "" {
		opts = append(opts, client.WithUser(flagUser))
	}
	token := flagToken
	if token == "" {
		token = envToken()
	}
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	if flagPIN != "" {
		opts = append(opts, client.WithPIN(flagPIN))
	}
	return client.New(flagServer, opts...)
}

func Execute() error {
	return rootCmd.Execute()
}
