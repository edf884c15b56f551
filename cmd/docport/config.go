package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docport-io/docport/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configPath); err != nil {
			log.Printf("config %s not loaded (%v), using defaults", configPath, err)
			if err := config.LoadDefaults(); err != nil {
				return err
			}
		}

		cfg := *config.Get()
		cfg.Auth.JWT.Secret = "****"
		cfg.Database.Password = "****"

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
