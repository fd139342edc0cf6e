package main

import (
	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/logging"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.DBDriver != "postgres" {
		logrus.Fatalf("sequences only exist on postgres, DB_DRIVER is %q", cfg.DBDriver)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect: %v", err)
	}
	tables, err := database.SerialTables(db)
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.Info("Syncing PostgreSQL sequences...")
	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			logrus.WithError(err).WithField("table", table).Error("sequence sync failed")
		} else {
			logrus.WithField("table", table).Info("sequence synced")
		}
	}
	logrus.Info("DONE!")
}
