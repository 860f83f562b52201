// Package store provides storage backends for the Campo Inteligente chatbot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/campointeligente/chatbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedReferenceData(db, "postgres"); err != nil {
		slog.Error("Failed to seed reference data", "error", err)
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}
	slog.Debug("Postgres migrations and seed data applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetUser(id string) (*models.UserSession, error) {
	row := s.db.QueryRow(`SELECT id, name, city, state, stage, context, last_activity, created_at FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetUser not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	return user, nil
}

func (s *PostgresStore) SaveUser(user *models.UserSession) error {
	if user.ID == "" {
		return models.ErrEmptyUserID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	contextJSON, err := marshalContext(user.Context)
	if err != nil {
		slog.Error("PostgresStore SaveUser context marshal failed", "error", err, "id", user.ID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO users (id, name, city, state, stage, context, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			stage = EXCLUDED.stage,
			context = EXCLUDED.context,
			last_activity = EXCLUDED.last_activity`,
		user.ID, user.Name, user.City, user.State, string(user.Stage),
		contextJSON, nullTime(user.LastActivity), user.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveUser failed", "error", err, "id", user.ID)
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	slog.Debug("PostgresStore SaveUser succeeded", "id", user.ID, "stage", user.Stage)
	return nil
}

func (s *PostgresStore) GetPrompt(key string) (*models.PromptTemplate, error) {
	var p models.PromptTemplate
	err := s.db.QueryRow(`SELECT key, text, description FROM prompts WHERE key = $1`, key).
		Scan(&p.Key, &p.Text, &p.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetPrompt failed", "error", err, "key", key)
		return nil, fmt.Errorf("failed to query prompt %s: %w", key, err)
	}
	return &p, nil
}

func (s *PostgresStore) ListStates() ([]models.StateRef, error) {
	rows, err := s.db.Query(`SELECT abbreviation, name FROM states`)
	if err != nil {
		slog.Error("PostgresStore ListStates query failed", "error", err)
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()
	return collectStates(rows)
}

func (s *PostgresStore) AddInteraction(i models.Interaction) error {
	_, err := s.db.Exec(`INSERT INTO interactions (user_id, message, reply, time) VALUES ($1, $2, $3, $4)`,
		i.UserID, i.Message, i.Reply, i.Time)
	if err != nil {
		slog.Error("PostgresStore AddInteraction failed", "error", err, "user_id", i.UserID)
		return fmt.Errorf("failed to insert interaction for %s: %w", i.UserID, err)
	}
	slog.Debug("PostgresStore AddInteraction succeeded", "user_id", i.UserID)
	return nil
}

func (s *PostgresStore) GetInteractions() ([]models.Interaction, error) {
	rows, err := s.db.Query(`SELECT id, user_id, message, reply, time FROM interactions ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore GetInteractions query failed", "error", err)
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	return collectInteractions(rows)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
