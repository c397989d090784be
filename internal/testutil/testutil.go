// Package testutil holds database fixtures shared by the engine package
// tests. Tables are created with raw SQLite DDL because the production
// models carry Postgres defaults (gen_random_uuid) that SQLite rejects;
// the BeforeCreate hooks fill IDs either way.
package testutil

import (
	"testing"

	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT,
		stream_user_id TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE collectives (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		creator_id TEXT NOT NULL,
		capacity INTEGER,
		is_public INTEGER DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE memberships (
		id TEXT PRIMARY KEY,
		collective_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		joined_at DATETIME NOT NULL,
		UNIQUE(collective_id, user_id)
	)`,
	`CREATE TABLE workflow_requests (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME,
		responded_at DATETIME
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		source_user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT,
		is_read INTEGER DEFAULT 0,
		created_at DATETIME
	)`,
}

// NewTestDB opens an in-memory SQLite database with the engine schema.
// The pool is capped at one connection; with :memory: every connection
// would otherwise be its own empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for _, ddl := range schema {
		require.NoError(t, db.Exec(ddl).Error)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user fixture. Each test gets its own database, so
// usernames only need to be unique within one test.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Email:       username + "@test.com",
		Username:    username,
		DisplayName: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
