package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-canvas/storage"
)

const (
	FlagDBPath        = "db-path"
	FlagDesignsCount  = "designs"
	FlagElementsCount = "elements"
)

// GetGenerateCmd returns generate mock data command.
func GetGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Seed the database with mock designs and users",
		Run: func(cmd *cobra.Command, args []string) {
			dbPath := loadConfig(cmd).Server.DBPath

			// Parse inputs
			var err error
			if cmd.Flags().Changed(FlagDBPath) {
				if dbPath, err = cmd.Flags().GetString(FlagDBPath); err != nil {
					log.Fatalf("%s flag: %v", FlagDBPath, err)
				}
			}
			designsCount, err := cmd.Flags().GetInt(FlagDesignsCount)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagDesignsCount, err)
			}
			elementsCount, err := cmd.Flags().GetInt(FlagElementsCount)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagElementsCount, err)
			}

			// Work
			if err := storage.GenAndSaveDesigns(context.Background(), dbPath, designsCount, elementsCount); err != nil {
				log.Fatalf("gen failed: %v", err)
			}
		},
	}
	cmd.Flags().String(FlagDBPath, "./designs.sqlite3", "(optional) SQLite database path")
	cmd.Flags().Int(FlagDesignsCount, 10, "(optional) number of designs")
	cmd.Flags().Int(FlagElementsCount, 20, "(optional) number of elements per design")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetGenerateCmd())
}
