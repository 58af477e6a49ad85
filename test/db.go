package test

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qualitylink/qldash/internal/db"
	"github.com/qualitylink/qldash/internal/db/repos"
	"github.com/qualitylink/qldash/internal/services"
)

// NewFileBasedTestDB creates a new file-based SQLite preference store for testing.
// It returns the database connection and the path to the temporary directory.
func NewFileBasedTestDB() (*gorm.DB, string, error) {
	tmpDir, err := os.MkdirTemp("", "qldash_test")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	conn, err := db.New(db.Options{
		Driver:   db.DriverSQLite,
		DSN:      filepath.Join(tmpDir, "qldash_test.db"),
		LogLevel: gormlogger.Silent,
	})
	if err != nil {
		// Try to clean up the temporary directory, but don't fail if cleanup fails
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			fmt.Printf("Warning: failed to remove temporary directory after database error: %v\n", rmErr)
		}
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return conn, tmpDir, nil
}

// CleanupTestDB closes the database connection and removes the temporary directory.
func CleanupTestDB(conn *gorm.DB, tmpDir string) {
	if err := db.Close(conn); err != nil {
		fmt.Printf("Error closing database connection: %v\n", err)
	}
	if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
		fmt.Printf("Error removing temporary directory: %v\n", rmErr)
	}
}

// SetupTestDB configures the suite to use the provided database connection.
// If nil is provided, a new file-based database is created.
func SetupTestDB(suite *Suite, database *gorm.DB) {
	if database != nil {
		suite.DB = database
	} else {
		conn, tmpDir, err := NewFileBasedTestDB()
		suite.Require().NoError(err, "Failed to create file-based database")
		suite.DB = conn

		oldCleanup := suite.cleanup
		suite.cleanup = func() {
			if oldCleanup != nil {
				oldCleanup()
			}
			CleanupTestDB(suite.DB, tmpDir)
		}
	}

	suite.PreferenceRepo = repos.NewPreferenceRepository(suite.DB)
	suite.Theme = services.NewTheme(suite.PreferenceRepo)
}
