package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "topical",
	Short: "Topic-based chat relay",
	Long: `Topical is a real-time, topic-based chat relay. Clients connect over
WebSocket, join named topics, and receive messages broadcast to all other
members of the same topic.

Use "topical [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
