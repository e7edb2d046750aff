package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkak/linkak/internal/config"
)

// Cfg holds the loaded configuration, accessible to all Cobra commands.
var Cfg *config.Config

// RootCmd is the base command for the CLI application. The subcommands
// (run-server, create, stats, migrate) register themselves via their own
// init() functions to avoid import cycles.
var RootCmd = &cobra.Command{
	Use:   "linkak",
	Short: "A link-shortening and redirect-analytics service",
	Long: `Linkak shortens URLs, resolves short codes to their targets, records
per-click analytics, and gates every inbound request behind a rate-limiting
and suspicious-pattern admission layer.`,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads the configuration before any command runs.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
