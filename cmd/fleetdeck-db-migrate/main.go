package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fleetdeck/fleetdeck/internal/config"
	"github.com/fleetdeck/fleetdeck/internal/store"
	"github.com/fleetdeck/fleetdeck/pkg/log"
)

func main() {
	configFile := flag.String("config", config.ConfigFile(), "Path to the configuration file")
	flag.Parse()

	log := log.InitLogs()
	log.Println("Starting FleetDeck database migration")
	defer log.Println("FleetDeck database migration completed")

	cfg, err := config.LoadOrGenerate(*configFile)
	if err != nil {
		log.Fatalf("reading configuration: %v", err)
	}
	log.Printf("Using config: %s", cfg)

	logLvl, err := logrus.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		logLvl = logrus.InfoLevel
	}
	log.SetLevel(logLvl)

	db, err := store.InitDB(cfg, log)
	if err != nil {
		log.Fatalf("initializing data store: %v", err)
	}

	dataStore := store.NewStore(db, time.Duration(cfg.Service.DraftTTL), log.WithField("pkg", "store"))
	defer dataStore.Close()

	if err := dataStore.InitialMigration(); err != nil {
		log.Fatalf("running database migrations: %v", err)
	}
	log.Println("Database migration completed successfully")
}
