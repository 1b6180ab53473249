package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the catalog tables",
	Long:  "Create the catalog tables that do not exist yet. Existing tables are left untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		container, err := loadContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		log.Infof("schema ready on %s", container.Config().Database.Driver)
		return nil
	},
}
