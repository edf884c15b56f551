package main

import (
	"log"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/docport-io/docport/internal/config"
	"github.com/docport-io/docport/internal/server"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.Load(configPath); err != nil {
		log.Printf("config %s not loaded (%v), using defaults", configPath, err)
		if err := config.LoadDefaults(); err != nil {
			log.Fatalf("load default config: %v", err)
		}
	}

	if err := server.Run(config.Get()); err != nil {
		log.Fatalf("server: %v", err)
	}
}
