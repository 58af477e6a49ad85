// Package db provides database connectivity for the local preference store
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qualitylink/qldash/internal/db/models"
	"github.com/qualitylink/qldash/internal/logger"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Database configuration constants
const (
	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName = "qldash"
	// DefaultSQLiteFile is the database file under the user's config directory
	DefaultSQLiteFile = "qldash.db"
)

// Options represents database connection configuration options
type Options struct {
	// Driver is "sqlite" (default) or "postgres"
	Driver string
	// DSN overrides every other connection field. For sqlite it is the file
	// path or ":memory:".
	DSN        string
	Host       string
	User       string
	Password   string
	DBName     string
	Port       int
	SSLEnabled *bool
	LogLevel   gormlogger.LogLevel
}

// New opens the database and migrates its schema
func New(opts Options) (*gorm.DB, error) {
	opts, err := setDefaults(opts)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite:
		if opts.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	// Route gorm's logging through the application logger and ignore record not found errors
	newLogger := gormlogger.New(
		logger.Standard(),
		gormlogger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.DebugWithFields("database ready", map[string]interface{}{"driver": opts.Driver})
	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DefaultSQLitePath is $HOME/.qldash/qldash.db
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".qldash", DefaultSQLiteFile), nil
}

func setDefaults(opts Options) (Options, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = gormlogger.Warn
	}

	switch opts.Driver {
	case DriverSQLite:
		if opts.DSN == "" {
			path, err := DefaultSQLitePath()
			if err != nil {
				return opts, err
			}
			opts.DSN = path
		}
	case DriverPostgres:
		if opts.DSN != "" {
			break
		}
		if opts.Host == "" {
			opts.Host = DefaultHost
		}
		if opts.User == "" {
			opts.User = DefaultUser
		}
		if opts.Password == "" {
			opts.Password = DefaultPassword
		}
		if opts.DBName == "" {
			opts.DBName = DefaultDBName
		}
		if opts.Port == 0 {
			opts.Port = DefaultPort
		}
		sslMode := "disable"
		if opts.SSLEnabled != nil && *opts.SSLEnabled {
			sslMode = "require"
		}
		opts.DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, sslMode)
	}
	return opts, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Preference{},
	)
}
