package sqlite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	db, err := NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestNewDB_CreatesDirectory verifies that NewDB creates the parent directory if missing.
func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "agview.db")
	openTestDB(t, dbPath)

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestNewDB_CreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agview.db")
	db := openTestDB(t, dbPath)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, dbPath, db.Path())
}

func TestNewDB_RunsMigrations(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "agview.db"))

	for _, table := range []string{
		"projects", "course_staff", "suites", "cases", "commands",
		"student_groups", "handgrading_results", "suite_results",
	} {
		var name string
		err := db.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}

	var version int
	var dirty bool
	require.NoError(t, db.conn.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	require.Equal(t, 3, version)
	require.False(t, dirty)
}

// TestNewDB_PreMigrationBackup verifies the .bak copy holds the previous contents.
func TestNewDB_PreMigrationBackup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agview.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec("INSERT INTO projects (course_id, name) VALUES (1, 'p1')")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	_, err = os.Stat(dbPath + ".bak")
	require.True(t, os.IsNotExist(err), "first open has nothing to back up")

	openTestDB(t, dbPath)

	bak := openTestDB(t, dbPath+".bak")
	var name string
	require.NoError(t, bak.conn.QueryRow("SELECT name FROM projects").Scan(&name))
	require.Equal(t, "p1", name)
}

func TestNewDB_BackupIncludesWAL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agview.db")

	// The writer stays open, so its commit lives only in the -wal file.
	writer := openTestDB(t, dbPath)
	_, err := writer.conn.Exec("INSERT INTO projects (course_id, name) VALUES (1, 'in wal')")
	require.NoError(t, err)
	info, err := os.Stat(dbPath + "-wal")
	require.NoError(t, err)
	require.NotZero(t, info.Size())

	openTestDB(t, dbPath)

	bak := openTestDB(t, dbPath+".bak")
	var name string
	require.NoError(t, bak.conn.QueryRow("SELECT name FROM projects").Scan(&name))
	require.Equal(t, "in wal", name)
}

func TestNewDB_Pragmas(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "agview.db"))

	var mode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.Equal(t, 1, fk)

	var timeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	require.Equal(t, 5000, timeout)
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "agview.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = db1.conn.Exec("INSERT INTO projects (course_id, name) VALUES (1, 'p1')")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2 := openTestDB(t, dbPath)
	var count int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count))
	require.Equal(t, 1, count)
}

func TestNewDB_InvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewDB(filepath.Join(blocker, "agview.db"))
	require.Error(t, err)
}
