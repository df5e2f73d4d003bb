package main

import (
	"flag"

	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/database"
	"github.com/consultancy-portal-api/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch *direction {
	case "up":
		err = db.RunMigrations(cfg.Server.MigrationsPath)
	case "down":
		err = db.MigrateDown(cfg.Server.MigrationsPath)
	default:
		log.Fatal().Str("direction", *direction).Msg("Unknown migration direction")
	}
	if err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("Migration failed")
	}
	log.Info().Str("direction", *direction).Msg("Migrations applied")
}
