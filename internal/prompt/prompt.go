// Package prompt resolves keyed reply templates from the store.
//
// Templates are managed externally; the resolver only reads them. A missing
// key degrades to a visible sentinel string instead of an error so the
// conversation engine never fails solely because a template is absent.
package prompt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/campointeligente/chatbot/internal/store"
)

// Resolver looks up prompt templates by key.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the template text for key. On a miss or store error it logs
// a warning and returns a sentinel naming the missing key.
func (r *Resolver) Resolve(key string) string {
	p, err := r.store.GetPrompt(key)
	if err != nil {
		slog.Warn("prompt.Resolve: store lookup failed", "key", key, "error", err)
		return missingSentinel(key)
	}
	if p == nil {
		slog.Warn("prompt.Resolve: prompt not configured", "key", key)
		return missingSentinel(key)
	}
	return p.Text
}

// ResolveWith resolves key and substitutes {placeholder} occurrences.
func (r *Resolver) ResolveWith(key string, vars map[string]string) string {
	return Render(r.Resolve(key), vars)
}

// Render substitutes {placeholder} occurrences in text with the given values.
// Unknown placeholders are left as-is.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func missingSentinel(key string) string {
	return fmt.Sprintf("Prompt '%s' não configurado.", key)
}
