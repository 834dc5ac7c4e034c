package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/config"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/service"
	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/store"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=app DBPWD=secret DBHOST=localhost DBNAME=contacts GIN_MODE=release go run main.go
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	db, err := config.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open database")
	}
	defer db.Close()

	contacts, err := store.NewContactStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize contact store")
	}

	router := service.New(contacts).SetupHTTPRouter(cfg.GinLogging)
	log.Info().Str("port", cfg.Port).Msg("starting contacts backend")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
