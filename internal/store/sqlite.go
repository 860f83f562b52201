// Package store provides storage backends for the Campo Inteligente chatbot.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/campointeligente/chatbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedReferenceData(db, "sqlite"); err != nil {
		slog.Error("Failed to seed reference data", "error", err)
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}
	slog.Debug("SQLite migrations and seed data applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetUser(id string) (*models.UserSession, error) {
	row := s.db.QueryRow(`SELECT id, name, city, state, stage, context, last_activity, created_at FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUser not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	return user, nil
}

func (s *SQLiteStore) SaveUser(user *models.UserSession) error {
	if user.ID == "" {
		return models.ErrEmptyUserID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	contextJSON, err := marshalContext(user.Context)
	if err != nil {
		slog.Error("SQLiteStore SaveUser context marshal failed", "error", err, "id", user.ID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO users (id, name, city, state, stage, context, last_activity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.City, user.State, string(user.Stage),
		contextJSON, nullTime(user.LastActivity), user.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveUser failed", "error", err, "id", user.ID)
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	slog.Debug("SQLiteStore SaveUser succeeded", "id", user.ID, "stage", user.Stage)
	return nil
}

func (s *SQLiteStore) GetPrompt(key string) (*models.PromptTemplate, error) {
	var p models.PromptTemplate
	err := s.db.QueryRow(`SELECT key, text, description FROM prompts WHERE key = ?`, key).
		Scan(&p.Key, &p.Text, &p.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetPrompt failed", "error", err, "key", key)
		return nil, fmt.Errorf("failed to query prompt %s: %w", key, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListStates() ([]models.StateRef, error) {
	rows, err := s.db.Query(`SELECT abbreviation, name FROM states`)
	if err != nil {
		slog.Error("SQLiteStore ListStates query failed", "error", err)
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()
	return collectStates(rows)
}

func (s *SQLiteStore) AddInteraction(i models.Interaction) error {
	_, err := s.db.Exec(`INSERT INTO interactions (user_id, message, reply, time) VALUES (?, ?, ?, ?)`,
		i.UserID, i.Message, i.Reply, i.Time)
	if err != nil {
		slog.Error("SQLiteStore AddInteraction failed", "error", err, "user_id", i.UserID)
		return fmt.Errorf("failed to insert interaction for %s: %w", i.UserID, err)
	}
	slog.Debug("SQLiteStore AddInteraction succeeded", "user_id", i.UserID)
	return nil
}

func (s *SQLiteStore) GetInteractions() ([]models.Interaction, error) {
	rows, err := s.db.Query(`SELECT id, user_id, message, reply, time FROM interactions ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore GetInteractions query failed", "error", err)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	return collectInteractions(rows)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

func marshalContext(ctx map[string]string) (interface{}, error) {
	if len(ctx) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user context: %w", err)
	}
	return string(b), nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
