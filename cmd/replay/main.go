// Package main provides the replay CLI for recorded landmark streams.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/okian/posturai/pkg/logger"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay and synthesize posture recordings",
	Long:  "replay streams recorded pose landmarks through a posture session and writes synthetic recordings for end-to-end checks.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return logger.SetLevelString(logLevel)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
