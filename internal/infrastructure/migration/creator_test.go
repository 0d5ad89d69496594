package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sync logs table", "add_sync_logs_table"},
		{"Add-Platform-Refs", "add_platform_refs"},
		{"ADD_INTEGRATIONS", "add_integrations"},
		{"add__webhook__events", "add_webhook_events"},
		{"Index Orders 2024", "index_orders_2024"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeName(tt.input), tt.input)
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add sync logs", "Create the sync_logs table")
	require.NoError(t, err)

	// Version is a 14-digit timestamp so pairs sort by creation order.
	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))
	assert.Equal(t,
		strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql"),
		strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql"))

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add sync logs")
	assert.Contains(t, string(upContent), "Create the sync_logs table")
	assert.Contains(t, string(upContent), "UP migration SQL")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
	assert.Contains(t, string(downContent), "DOWN migration SQL")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "db", "migrations")

	_, err := CreateMigration(nested, "initial schema", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	writeFiles := func(t *testing.T, dir string, names ...string) {
		t.Helper()
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0644))
		}
	}

	t.Run("returns sorted pair base names", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir,
			"000002_add_integrations.up.sql",
			"000002_add_integrations.down.sql",
			"000001_init_schema.up.sql",
			"000001_init_schema.down.sql",
			"000003_add_sync_logs.up.sql",
			"000003_add_sync_logs.down.sql",
		)

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"000001_init_schema",
			"000002_add_integrations",
			"000003_add_sync_logs",
		}, migrations)
	})

	t.Run("empty directory", func(t *testing.T) {
		migrations, err := ListMigrations(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("missing directory is treated as empty", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("ignores files that are not up migrations", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir,
			"000001_init.up.sql",
			"000001_init.down.sql",
			"README.md",
			"schema.yaml",
			".gitkeep",
		)

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, migrations)
	})

	t.Run("ignores directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, "000001_init.up.sql", "000001_init.down.sql")
		require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "archive.up.sql"), 0755))

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, migrations)
	})
}
