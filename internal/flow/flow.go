// Package flow implements the conversation engine: the state machine that
// takes one inbound message and decides the reply text and the next state.
package flow

import (
	"context"

	"github.com/campointeligente/chatbot/internal/models"
	"github.com/campointeligente/chatbot/internal/openweather"
)

// Inbound is the normalized tuple extracted by an inbound adapter
// (webhook or web-chat handler) for one user event.
type Inbound struct {
	UserID   string
	Text     string
	PushName string
	Channel  models.Channel
	Location *models.Location
}

// PromptResolver resolves reply templates by key. A miss degrades to a
// sentinel string, never an error.
type PromptResolver interface {
	Resolve(key string) string
	ResolveWith(key string, vars map[string]string) string
}

// WeatherService provides the weather and geocoding lookups the engine needs.
type WeatherService interface {
	CurrentWeather(ctx context.Context, city string) (*openweather.Weather, error)
	ForwardGeocode(ctx context.Context, city string) (*openweather.Place, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*openweather.Place, error)
}
