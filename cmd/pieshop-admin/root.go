package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-pieshop-admin/config"
	"github.com/goliatone/go-pieshop-admin/pkg/di"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "pieshop-admin",
	Short:        "Pie shop back-office",
	Long:         `Manage the pie shop catalog. Concurrent pie edits are checked against the row version the editor started from.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default ./config.yaml when present)")
	rootCmd.AddCommand(serveCmd, schemaCmd, seedCmd)
}

// loadContainer reads the configuration and wires the application.
func loadContainer(ctx context.Context) (*di.Container, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cfg.Server.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return di.NewContainer(ctx, cfg)
}
