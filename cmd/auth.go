package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/auth"
)

func envToken() string {
	return os.Getenv("LEDGER_TOKEN")
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Issue API tokens and hash validation PINs",
}

var (
	tokenUser string
	tokenRole string
)

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with auth.jwt_secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret (or LEDGER_JWT_SECRET) is not set")
		}
		token, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(tokenUser, tokenRole)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var authHashPINCmd = &cobra.Command{
	Use:   "hash-pin [pin]",
	Short: "Print the bcrypt hash of a validation PIN for the config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pin string
		if len(args) == 1 {
			pin = args[0]
		} else {
			fmt.Fprint(os.Stderr, "PIN: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read pin: %w", err)
			}
			pin = strings.TrimSpace(line)
		}
		if pin == "" {
			return fmt.Errorf("pin must not be empty")
		}
		hash, err := auth.HashPIN(pin)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	authTokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id the token is issued to")
	authTokenCmd.Flags().StringVar(&tokenRole, "role", "staff", "Role claim (e.g. manager, accountant, staff)")
	authTokenCmd.MarkFlagRequired("user")

	authCmd.AddCommand(authTokenCmd)
	authCmd.AddCommand(authHashPINCmd)
	rootCmd.AddCommand(authCmd)
}
