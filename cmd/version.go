package cmd

import (
	"fmt"

	"github.com/churchatlas/churchatlas/internal/config"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Churchatlas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\n", config.Version)
		fmt.Printf("Commit Hash: %s\n", config.CommitHash)
		fmt.Printf("Build Timestamp: %s\n", config.BuildTimestamp)
	},
}
