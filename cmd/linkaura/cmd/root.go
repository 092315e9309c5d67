package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/linkaura/linkaura/pkg/config"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "linkaura",
	Short: "Linkaura passwordless sign-in server",
	Long: `Linkaura signs users in with one-time email links or with Google and GitHub.
Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return config.LoadFiles(envFiles...)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "additional dotenv files to load")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
