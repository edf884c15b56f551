package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/docport-io/docport/internal/config"
	"github.com/docport-io/docport/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configPath); err != nil {
			log.Printf("config %s not loaded (%v), using defaults", configPath, err)
			if err := config.LoadDefaults(); err != nil {
				return err
			}
		}
		return server.Run(config.Get())
	},
}
