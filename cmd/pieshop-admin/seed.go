package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-pieshop-admin/catalog"
)

var seedFile string

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON file with categories, pies and orders (default built-in demo data)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into an empty catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		container, err := loadContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		data := catalog.DemoData()
		if seedFile != "" {
			if data, err = readSeedFile(seedFile); err != nil {
				return err
			}
		}

		seeded, err := catalog.Seed(ctx, container.DB(), data, catalog.NewVersion)
		if err != nil {
			return err
		}
		if !seeded {
			log.Info("catalog already holds data, nothing seeded")
			return nil
		}
		log.WithFields(log.Fields{
			"categories": len(data.Categories),
			"pies":       len(data.Pies),
			"orders":     len(data.Orders),
		}).Info("catalog seeded")
		return nil
	},
}

func readSeedFile(path string) (catalog.SeedData, error) {
	var data catalog.SeedData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read seed file: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return data, nil
}
