package main

import (
	"flag"
	"reflect"

	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/logging"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Copies every table from a SQLite file into the PostgreSQL database
// configured in the environment. Rows already present are left untouched, so
// the command can be re-run. Run sync_sequences afterwards.
func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	from := flag.String("from", cfg.DBPath, "source SQLite database file")
	batch := flag.Int("batch", 500, "rows per insert")
	flag.Parse()

	sqliteDB, err := gorm.Open(sqlite.Open(*from), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		logrus.Fatalf("Failed to connect to SQLite: %v", err)
	}
	logrus.WithField("path", *from).Info("Connected to SQLite")

	cfg.DBDriver = "postgres"
	pgDB, err := database.InitGorm(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	logrus.Info("Starting data migration...")
	failed := 0
	for _, model := range database.Models() {
		rows := reflect.New(reflect.SliceOf(reflect.TypeOf(model).Elem()))
		name := reflect.TypeOf(model).Elem().Name()

		if err := sqliteDB.Find(rows.Interface()).Error; err != nil {
			logrus.WithError(err).WithField("model", name).Error("read from SQLite failed")
			failed++
			continue
		}
		n := rows.Elem().Len()
		if n == 0 {
			logrus.WithField("model", name).Info("nothing to migrate")
			continue
		}

		err := pgDB.Transaction(func(tx *gorm.DB) error {
			return tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(rows.Interface(), *batch).Error
		})
		if err != nil {
			logrus.WithError(err).WithField("model", name).Error("write to PostgreSQL failed")
			failed++
			continue
		}
		logrus.WithFields(logrus.Fields{"model": name, "rows": n}).Info("migrated")
	}

	if failed > 0 {
		logrus.Fatalf("Migration finished with %d failed tables", failed)
	}
	logrus.Info("Migration completed!")
}
