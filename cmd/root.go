package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-canvas/config"
)

const (
	FlagConfig = "config"
)

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "collaborate-canvas",
	Short: "Collaborative canvas relay server / editing client",
}

// loadConfig reads the --config file if set, defaults are used otherwise.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		log.Fatalf("%s flag: %v", FlagConfig, err)
	}
	if path == "" {
		return config.Default()
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("rootCmd.Execute: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().String(FlagConfig, "", "(optional) YAML config file path")
}
