package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a gorm connection with the configuration it was opened with
type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

// New opens the database selected by config.Type and verifies the connection
func New(config models.DatabaseConfig) (*DB, error) {
	dialector, driverName, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Type, err)
	}

	db := &DB{
		DB:         gormDB,
		config:     config,
		driverName: driverName,
	}
	db.setConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Type, err)
	}

	return db, nil
}

func dialectorFor(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	switch config.Type {
	case models.PostgreSQL:
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				config.Host,
				config.Port,
				config.Username,
				config.Password,
				config.Database,
				sslMode(config.SSLMode),
			)
		}
		return postgres.Open(dsn), "postgres", nil

	case models.MySQL:
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%d)/%s?parseTime=true",
				config.Username,
				config.Password,
				config.Host,
				config.Port,
				config.Database,
			)
		}
		return mysql.Open(dsn), "mysql", nil

	case models.SQLite:
		path := config.FilePath
		if path == "" {
			path = config.DSN
		}
		if path == "" {
			return nil, "", fmt.Errorf("file_path is required for SQLite")
		}
		return sqlite.Open(path), "sqlite3", nil

	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

func sslMode(mode string) string {
	if mode == "" {
		return "disable"
	}
	return mode
}

// Migrate creates or updates the tables used by the advisor
func (db *DB) Migrate() error {
	if err := db.AutoMigrate(&models.AnalysisRecord{}); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", db.driverName, err)
	}
	return nil
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) setConnectionPool() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
	if db.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(db.config.ConnMaxLifetime) * time.Second)
	}
}
