package main

import (
	"fmt"
	"os"

	"portfolio-api/internal/app"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "portfolio-api",
	Short:         "Portfolio backend and admin tooling",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", app.Version, app.GitCommit, app.BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	rootCmd.AddCommand(newServeCmd(), newSeedAdminCmd(), newAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
