package main

import (
	"log/slog"

	"github.com/ashureev/datequiz/internal/mcptools"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "datequiz",
	Short: "Voice assistant date quiz backend",
	Long: "datequiz runs the date quiz state machine behind an HTTP turn API,\n" +
		"an MCP tool server, or a local terminal player.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(healthcheckCmd)
	rootCmd.Version = version
	mcptools.Version = version
}
