package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/bistroledger/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bistroledger " + buildinfo.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
