package main

import (
	"github.com/spf13/cobra"

	"stealsplit/apps/server/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "stealsplit",
	Short: "Steal or Split game server",
	Long: `stealsplit runs an iterated Steal or Split game against a scripted or
language-model opponent. Without a subcommand it starts the server.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before reading config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(duelCmd)
}

func loadConfig() (config.Config, error) {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}
