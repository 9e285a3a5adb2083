package main

import (
	"log"

	"github.com/bellapacxx/bingo-engine/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] config: %v", err)
	}
	if _, err := config.ConnectDB(cfg.DatabaseURL); err != nil { // connects + migrates
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}
	log.Println("✅ Database migration completed successfully")
}
