package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Connect opens the postgres pool and applies migrations.
func Connect(ctx context.Context, dsn string, log logrus.FieldLogger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	return db, nil
}

// users, streams and events are owned by the web application; the tables
// are created here only so a fresh database can serve the chat core.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT UNIQUE,
            avatar TEXT,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS streams (
            id TEXT PRIMARY KEY,
            streamer_id TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            is_live BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS events (
            id TEXT PRIMARY KEY,
            streamer_id TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            is_live BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS stream_blocked_users (
            stream_id TEXT NOT NULL REFERENCES streams(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL,
            blocked_at TIMESTAMPTZ DEFAULT NOW(),
            PRIMARY KEY(stream_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
            id BIGSERIAL PRIMARY KEY,
            room_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            username TEXT NOT NULL,
            message TEXT NOT NULL,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            moderation_flag TEXT CHECK (moderation_flag IN ('spam', 'toxic', 'hate', 'sexual', 'other')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE INDEX IF NOT EXISTS chat_messages_room_id_idx ON chat_messages (room_id, id);`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
