package database

import (
	"fmt"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/config"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the process-wide database connection
var DB *gorm.DB

// Initialize opens the database configured in cfg and stores it in DB
func Initialize(cfg *config.Config) error {
	dsn := cfg.PostgresDSN()
	if cfg.DBDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}

	db, err := Open(cfg.DBDriver, dsn, cfg.IsDevelopment())
	if err != nil {
		return err
	}

	DB = db
	logger.Log.Info("✅ Database connected successfully", zap.String("driver", cfg.DBDriver))
	return nil
}

// Open connects to postgres or sqlite and configures the connection pool
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if driver == "sqlite" {
		// One writer keeps SQLite from returning SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// Migrate runs auto-migration for all gallery models
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.GalleryItem{},
		&models.RecommendationImpression{},
		&models.RecommendationClick{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		createPostgresIndexes(db)
	}

	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// createPostgresIndexes adds indexes gorm tags cannot express
func createPostgresIndexes(db *gorm.DB) {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_gallery_items_tags ON gallery_items USING GIN (tags)",
		"CREATE INDEX IF NOT EXISTS idx_gallery_items_creator_created ON gallery_items (creator_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_gallery_items_visible_created ON gallery_items (created_at DESC) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Log.Warn("Failed to create index", zap.String("statement", stmt), zap.Error(err))
		}
	}
}

// Close closes the process-wide connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
