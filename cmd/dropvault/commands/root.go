// Package commands implements the dropvault CLI client.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	serverAddr   string
	adminAddr    string
	username     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:           "dropvault",
	Short:         "dropvault is a client for the file storage server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:9000", "server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&adminAddr, "admin", "127.0.0.1:9100", "admin HTTP address (host:port)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "username")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("dropvault %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
