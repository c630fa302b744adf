// cmd/main.go is the application entry point.
// The serve and migrate subcommands wire together all layers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/config"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/log"
)

var (
	version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:           "semreg",
	Short:         "Seminar registration service",
	Long:          `Admission, waiting list and notification service for seminar and course registrations.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML); SEMREG_* environment variables take precedence")
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
}

// loadConfig reads the configuration and configures the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	log.Configure(log.Config{Level: cfg.LogLevel})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
