package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-canvas/service/client"
)

const (
	FlagServerUrl     = "server-url"
	FlagDesignId      = "design-id"
	FlagOpsSendPeriod = "updates-period"
	FlagOpsSendMax    = "updates-max"
	FlagHistoryLimit  = "history-limit"
	FlagSaveEvery     = "save-every"
)

// GetClientCmd returns headless editing client start command.
func GetClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Start a headless editing client on a design session",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd).Client

			// Parse inputs (explicit flags override the config file)
			var err error
			if cmd.Flags().Changed(FlagServerUrl) {
				if cfg.ServerUrl, err = cmd.Flags().GetString(FlagServerUrl); err != nil {
					log.Fatalf("%s flag: %v", FlagServerUrl, err)
				}
			}
			if cmd.Flags().Changed(FlagDesignId) {
				if cfg.DesignId, err = cmd.Flags().GetString(FlagDesignId); err != nil {
					log.Fatalf("%s flag: %v", FlagDesignId, err)
				}
			}
			if cmd.Flags().Changed(FlagOpsSendPeriod) {
				if cfg.OpsSendDur, err = cmd.Flags().GetDuration(FlagOpsSendPeriod); err != nil {
					log.Fatalf("%s flag: %v", FlagOpsSendPeriod, err)
				}
			}
			if cmd.Flags().Changed(FlagOpsSendMax) {
				if cfg.OpsSendMax, err = cmd.Flags().GetInt(FlagOpsSendMax); err != nil {
					log.Fatalf("%s flag: %v", FlagOpsSendMax, err)
				}
			}
			if cmd.Flags().Changed(FlagHistoryLimit) {
				if cfg.HistoryLimit, err = cmd.Flags().GetInt(FlagHistoryLimit); err != nil {
					log.Fatalf("%s flag: %v", FlagHistoryLimit, err)
				}
			}
			saveEvery, err := cmd.Flags().GetInt(FlagSaveEvery)
			if err != nil {
				log.Fatalf("%s flag: %v", FlagSaveEvery, err)
			}

			// Init service
			svc, err := client.NewClient(cfg, saveEvery)
			if err != nil {
				log.Fatalf("service init: %v", err)
			}

			svc.Start()

			// Wait for signal
			signalCh := make(chan os.Signal, 1)
			signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
			<-signalCh

			svc.Stop()
		},
	}
	cmd.Flags().String(FlagDesignId, "", "design ID to edit")
	cmd.Flags().String(FlagServerUrl, "127.0.0.1:2412", "(optional) server url")
	cmd.Flags().Int(FlagOpsSendMax, 5, "(optional) max number of edits per period")
	cmd.Flags().Duration(FlagOpsSendPeriod, 1*time.Second, "(optional) edits period")
	cmd.Flags().Int(FlagHistoryLimit, 50, "(optional) undo history size")
	cmd.Flags().Int(FlagSaveEvery, 10, "(optional) save the design every N edit periods (0 to disable)")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetClientCmd())
}
