// Package main provides the entry point for the Astra Apply API server and
// its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "astra_api",
	Short: "Astra Apply HTTP API Server",
	Long:  "Astra Apply manages job-seeker personas and extracts structured candidate profiles from uploaded CVs via REST API.",
	// Errors are printed once by main.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
