package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/campointeligente/chatbot/internal/models"
)

// scanUser scans a UserSession from a single sql.Row.
func scanUser(row *sql.Row) (*models.UserSession, error) {
	var u models.UserSession
	var stage string
	var contextJSON sql.NullString
	var lastActivity sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.City, &u.State, &stage, &contextJSON, &lastActivity, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Stage = models.ConversationState(stage)
	if lastActivity.Valid {
		u.LastActivity = lastActivity.Time
	}
	if contextJSON.Valid && contextJSON.String != "" {
		u.Context = make(map[string]string)
		if err := json.Unmarshal([]byte(contextJSON.String), &u.Context); err != nil {
			slog.Error("scanUser context unmarshal failed", "error", err, "id", u.ID)
			// Continue with empty map rather than failing
			u.Context = make(map[string]string)
		}
	}
	return &u, nil
}

// collectStates drains a states result set.
func collectStates(rows *sql.Rows) ([]models.StateRef, error) {
	var states []models.StateRef
	for rows.Next() {
		var st models.StateRef
		if err := rows.Scan(&st.Abbreviation, &st.Name); err != nil {
			return nil, fmt.Errorf("failed to scan state row: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate state rows: %w", err)
	}
	return states, nil
}

// collectInteractions drains an interactions result set.
func collectInteractions(rows *sql.Rows) ([]models.Interaction, error) {
	var interactions []models.Interaction
	for rows.Next() {
		var i models.Interaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.Message, &i.Reply, &i.Time); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		interactions = append(interactions, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}
	return interactions, nil
}

// seedReferenceData inserts the federative-unit table and the default prompt
// templates if absent. Existing rows are left untouched so operator edits to
// prompt texts survive restarts.
func seedReferenceData(db *sql.DB, dialect string) error {
	stateQuery := `INSERT OR IGNORE INTO states (abbreviation, name) VALUES (?, ?)`
	promptQuery := `INSERT OR IGNORE INTO prompts (key, text, description) VALUES (?, ?, ?)`
	if dialect == "postgres" {
		stateQuery = `INSERT INTO states (abbreviation, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		promptQuery = `INSERT INTO prompts (key, text, description) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	}
	for _, st := range DefaultStates() {
		if _, err := db.Exec(stateQuery, st.Abbreviation, st.Name); err != nil {
			return fmt.Errorf("failed to seed state %s: %w", st.Abbreviation, err)
		}
	}
	for _, p := range DefaultPrompts() {
		if _, err := db.Exec(promptQuery, p.Key, p.Text, p.Description); err != nil {
			return fmt.Errorf("failed to seed prompt %s: %w", p.Key, err)
		}
	}
	return nil
}
