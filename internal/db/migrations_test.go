package db_test

import (
	"database/sql"
	"testing"

	"github.com/arunprabus/health-api/internal/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openMemory(t)

	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.Migrate(database))

	var count int
	err := database.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('uploads') WHERE name = 'deleted_at'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMigrate_AddsColumnToExistingUploads(t *testing.T) {
	database := openMemory(t)

	_, err := database.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT,
			password_hash TEXT,
			provider TEXT NOT NULL DEFAULT 'local',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE uploads (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			object_key TEXT NOT NULL,
			url TEXT NOT NULL,
			size INTEGER NOT NULL,
			mime_type TEXT NOT NULL,
			checksum TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		INSERT INTO users (id, email, provider, created_at, updated_at)
		VALUES ('u1', 'a@example.com', 'local', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');
		INSERT INTO uploads (id, user_id, original_filename, object_key, url, size, mime_type, checksum, status, created_at, updated_at)
		VALUES (1, 'u1', 'a.pdf', 'u1/document.pdf', 'https://b/u1/document.pdf', 3, 'application/pdf', 'x', 'active', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');
	`)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(database))

	var deletedAt sql.NullString
	err = database.QueryRow(`SELECT deleted_at FROM uploads WHERE id = 1`).Scan(&deletedAt)
	require.NoError(t, err)
	require.False(t, deletedAt.Valid)
}

func TestMigrate_ProfileCascadesWithUser(t *testing.T) {
	database := openMemory(t)
	require.NoError(t, db.Migrate(database))

	_, err := database.Exec(`
		INSERT INTO users (id, email, provider, created_at, updated_at)
		VALUES ('u1', 'a@example.com', 'local', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');
		INSERT INTO profiles (id, name, blood_group, created_at, updated_at)
		VALUES ('u1', 'A', 'O+', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');
	`)
	require.NoError(t, err)

	_, err = database.Exec(`DELETE FROM users WHERE id = 'u1'`)
	require.NoError(t, err)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count))
	require.Zero(t, count)
}
