package cmd

import (
	"context"
	"fmt"
	"net"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/logger"
	"github.com/simonvc/bistroledger/internal/server"
	"github.com/simonvc/bistroledger/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("server") {
			// Start an embedded server on a free loopback port
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Log lines would tear the alt screen
			logger.Discard()

			svc, closeAll, err := openService(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			srv := server.New(svc, ln.Addr().String(), serverOptions())
			go func() {
				if err := srv.Serve(ctx, ln); err != nil && ctx.Err() == nil {
					logger.L.Error("embedded server", "error", err)
				}
			}()
			flagServer = "http://" + ln.Addr().String()

			// The embedded server trusts --user, so mint its token locally
			if cfg.Auth.JWTSecret != "" && flagToken == "" && envToken() == "" && flagUser != "" {
				flagToken, err = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(flagUser, "staff")
				if err != nil {
					return err
				}
			}
		}

		app := tui.NewApp(newClient())
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
