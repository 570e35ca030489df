package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dma-labs/biomontage/internal/config"
	"github.com/dma-labs/biomontage/internal/logging"
)

var (
	logger     zerolog.Logger
	settings   config.Settings
	configFile string
	environment string
)

var rootCmd = &cobra.Command{
	Use:   "montaged",
	Short: "Montage computation and caching core",
	Long:  "montaged serves derived biosignal montages from a raw-signal reader's cache, over an in-process or WebSocket commission protocol.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.Setup(environment)
		return loadSettings()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a JSON settings file")
	rootCmd.PersistentFlags().StringVar(&environment, "env", "production", "runtime environment (production, development)")
}

// loadSettings resolves the process's Settings: configFile if given,
// otherwise config.DefaultSettings() (mirrors cli.go's configFile-or-
// fallback loading).
func loadSettings() error {
	if configFile == "" {
		settings = config.DefaultSettings()
		return nil
	}
	s, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings = s
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "montaged: %v\n", err)
		os.Exit(1)
	}
}
