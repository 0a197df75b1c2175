package main

import (
	"flag"
	"log"
	_ "time/tzdata"

	"pvc/config"
	"pvc/database"
)

func main() {
	samples := flag.Bool("samples", false, "also add demo tasks for today and tomorrow")
	flag.Parse()

	cfg := config.Load()
	db := database.OpenSQLite(cfg.DBPath)
	if err := database.Seed(db, *samples, cfg.Location()); err != nil {
		log.Fatalf("[db] seed: %v", err)
	}
	log.Printf("[db] seeded %d types and %d teams", len(database.Catalog), len(database.DefaultTeams))
}
