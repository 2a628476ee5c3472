package db

import (
	"fmt"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/config"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the postgres connection, configures the pool and runs
// the schema migrations.
func Initialize(cfg *config.Configuration) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Database.Host,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// Migrate applies the schema for all application models.
func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.Organization{},
		&models.Project{},
		&models.ProjectDiscipline{},
		&models.ProjectDisciplineDocType{},
		&models.Resource{},
		&models.Document{},
		&models.Request{},
		&models.RequestDocument{},
		&models.GRD{},
	)
	if err != nil {
		return err
	}

	// Protocols are unique once assigned, but most requests carry none;
	// a partial index keeps the empty values out of the uniqueness domain.
	return database.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_protocol_assigned
		 ON requests(protocol) WHERE protocol <> ''`).Error
}
