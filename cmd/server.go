package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-canvas/service/server"
)

const (
	FlagPort           = "port"
	FlagOutboundBuffer = "outbound-buffer"
)

// GetServerCmd returns relay server start command.
func GetServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the relay and designs API server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd).Server

			// Parse inputs (explicit flags override the config file)
			var err error
			if cmd.Flags().Changed(FlagPort) {
				if cfg.Port, err = cmd.Flags().GetInt(FlagPort); err != nil {
					log.Fatalf("%s flag: %v", FlagPort, err)
				}
			}
			if cmd.Flags().Changed(FlagDBPath) {
				if cfg.DBPath, err = cmd.Flags().GetString(FlagDBPath); err != nil {
					log.Fatalf("%s flag: %v", FlagDBPath, err)
				}
			}
			if cmd.Flags().Changed(FlagOutboundBuffer) {
				if cfg.Outbound, err = cmd.Flags().GetInt(FlagOutboundBuffer); err != nil {
					log.Fatalf("%s flag: %v", FlagOutboundBuffer, err)
				}
			}

			// Init service
			svc, err := server.NewServer(cfg)
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
	cmd.Flags().Int(FlagPort, 2412, "(optional) server port")
	cmd.Flags().String(FlagDBPath, "./designs.sqlite3", "(optional) SQLite database path")
	cmd.Flags().Int(FlagOutboundBuffer, 64, "(optional) per peer outbound queue size")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetServerCmd())
}
