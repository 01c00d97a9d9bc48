package database

import (
	"fmt"
	"time"

	"github.com/school-system/schoolfees/internal/config"
	"github.com/school-system/schoolfees/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		dialector = postgres.Open(cfg.Database.DSN)
	}

	log.Info("connecting to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("dsn", maskPassword(cfg.Database.DSN)))

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique violations surface as gorm.ErrDuplicatedKey for every driver.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connection successful")
	return db, nil
}

func maskPassword(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:20] + "...***..."
	}
	return "***"
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running migrations")

	err := db.AutoMigrate(
		&models.Admin{},
		&models.Teacher{},
		&models.Class{},
		&models.Student{},
		&models.Account{},
		&models.RefreshToken{},
		&models.FeeSettings{},
		&models.MonthlyFeeRecord{},
		&models.AdmissionFeeRecord{},
		&models.Exam{},
		&models.ExamFeeRecord{},
		&models.ExamSubjects{},
		&models.ExamResult{},
		&models.InventoryItem{},
		&models.VoucherCounter{},
		&models.CollectionReceipt{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	// Dashboard aggregation reads every ledger of a year.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_student_fees_year ON student_fees(year)",
		"CREATE INDEX IF NOT EXISTS idx_admission_fees_year_student ON admission_fees(year, student_id)",
		"CREATE INDEX IF NOT EXISTS idx_receipts_student_year ON collection_receipts(student_id, year)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Warn("index not created", zap.String("statement", stmt), zap.Error(err))
		}
	}

	return nil
}
