// Package store provides storage backends for the Campo Inteligente chatbot.
//
// It persists user sessions, prompt templates, federative-unit reference data,
// and interaction records, with PostgreSQL, SQLite, and in-memory backends.
package store

import (
	"strings"

	"github.com/campointeligente/chatbot/internal/models"
)

// Store is the persistence contract consumed by the conversation engine and API.
type Store interface {
	// GetUser retrieves a user session by identifier. Returns (nil, nil) when absent.
	GetUser(id string) (*models.UserSession, error)

	// SaveUser inserts or updates a user session.
	SaveUser(user *models.UserSession) error

	// GetPrompt retrieves a prompt template by key. Returns (nil, nil) when absent.
	GetPrompt(key string) (*models.PromptTemplate, error)

	// ListStates returns all federative-unit reference rows.
	ListStates() ([]models.StateRef, error)

	// AddInteraction appends one interaction audit record.
	AddInteraction(i models.Interaction) error

	// GetInteractions returns all interaction records.
	GetInteractions() ([]models.Interaction, error)

	// Close releases the underlying resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports "postgres" for PostgreSQL-style connection strings
// and "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
