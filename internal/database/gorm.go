package database

import (
	"errors"
	"fmt"

	"nibog/internal/config"
	"nibog/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.GameTemplate{},
		&models.Event{},
		&models.EventGame{},
		&models.Booking{},
		&models.BookingGame{},
		&models.FAQ{},
		&models.PolicyPage{},
		&models.FooterSetting{},
		&models.GeneralSetting{},
		&models.SystemSetting{},
		&models.EmailTemplate{},
		&models.WhatsAppTemplate{},
		&models.NotificationLog{},
		&models.DispatchRun{},
		&models.ContactEnquiry{},
	}
}

// Open connects to the database selected by DB_DRIVER.
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	switch cfg.DBDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
	case "sqlite", "":
		return gorm.Open(sqlite.Open(cfg.DBPath), gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// InitGorm opens the database, migrates the schema and seeds default content.
func InitGorm(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("connected to database")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logrus.Info("database migration completed")
	return nil
}

// Seed creates the policy pages and singleton settings rows when missing.
func Seed(db *gorm.DB) error {
	for slug, title := range models.PolicySlugs {
		page := models.PolicyPage{Slug: slug, Title: title}
		if err := db.Where(models.PolicyPage{Slug: slug}).FirstOrCreate(&page).Error; err != nil {
			return fmt.Errorf("seed page %s: %w", slug, err)
		}
	}

	footer := models.FooterSetting{ID: 1, CompanyName: "NIBOG", CopyrightText: "© NIBOG. All rights reserved."}
	if err := db.Where(models.FooterSetting{ID: 1}).FirstOrCreate(&footer).Error; err != nil {
		return fmt.Errorf("seed footer: %w", err)
	}

	general := models.GeneralSetting{ID: 1, SiteName: "NIBOG", SiteTagline: "New India Baby Olympic Games"}
	if err := db.Where(models.GeneralSetting{ID: 1}).FirstOrCreate(&general).Error; err != nil {
		return fmt.Errorf("seed general settings: %w", err)
	}
	return nil
}

// SyncConfig reconciles runtime-editable settings: a non-empty database value
// overrides the environment, otherwise the environment value is persisted.
func SyncConfig(db *gorm.DB, cfg *config.Config) error {
	overrides := map[string]string{}
	for _, key := range cfg.SettingKeys() {
		var setting models.SystemSetting
		err := db.Where("key = ?", key).First(&setting).Error
		switch {
		case err == nil:
			if setting.Value != "" {
				overrides[key] = setting.Value
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if value, _ := cfg.Setting(key); value != "" {
				if err := db.Create(&models.SystemSetting{Key: key, Value: value}).Error; err != nil {
					return fmt.Errorf("persist setting %s: %w", key, err)
				}
			}
		default:
			return fmt.Errorf("load setting %s: %w", key, err)
		}
	}
	if err := cfg.ApplySettings(overrides); err != nil {
		return err
	}
	logrus.Info("system settings synchronized from database")
	return nil
}

// OpenInMemory opens a migrated in-memory SQLite database shared under name.
func OpenInMemory(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	return db, nil
}

// SerialTables returns the tables whose primary key is an auto-incremented integer.
func SerialTables(db *gorm.DB) ([]string, error) {
	var tables []string
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		if pk := stmt.Schema.PrioritizedPrimaryField; pk != nil && pk.AutoIncrement {
			tables = append(tables, stmt.Schema.Table)
		}
	}
	return tables, nil
}
