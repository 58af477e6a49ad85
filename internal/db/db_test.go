package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/qualitylink/qldash/internal/db/models"
)

func TestSetDefaults(t *testing.T) {
	ssl := true
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "postgres defaults",
			opts: Options{Driver: DriverPostgres},
			want: "host=localhost user=postgres password=postgres dbname=qldash port=5432 sslmode=disable",
		},
		{
			name: "postgres with ssl",
			opts: Options{Driver: DriverPostgres, Host: "db", Port: 6543, SSLEnabled: &ssl},
			want: "host=db user=postgres password=postgres dbname=qldash port=6543 sslmode=require",
		},
		{
			name: "postgres dsn wins",
			opts: Options{Driver: DriverPostgres, DSN: "postgres://u@h/d", Host: "ignored"},
			want: "postgres://u@h/d",
		},
		{
			name: "sqlite explicit file",
			opts: Options{DSN: "/tmp/x.db"},
			want: "/tmp/x.db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := setDefaults(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.DSN)
			assert.Equal(t, logger.Warn, got.LogLevel)
		})
	}
}

func TestSetDefaults_SQLiteHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := setDefaults(Options{})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, got.Driver)
	assert.Equal(t, filepath.Join(home, ".qldash", DefaultSQLiteFile), got.DSN)
}

func TestNew_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "qldash.db")

	conn, err := New(Options{DSN: path, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer func() { require.NoError(t, Close(conn)) }()

	assert.FileExists(t, path)
	assert.True(t, conn.Migrator().HasTable(&models.Preference{}))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Options{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
}
