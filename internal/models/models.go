// Package models defines the core data structures for the Campo Inteligente chatbot.
//
// It includes types for user sessions, prompt templates, interaction records,
// and the API response envelope shared across modules.
package models

import (
	"errors"
	"time"
)

// Channel identifies the transport an inbound message arrived on.
type Channel string

const (
	// ChannelWhatsApp is the Evolution API messaging channel.
	ChannelWhatsApp Channel = "whatsapp"
	// ChannelWebChat is the web-chat frontend channel.
	ChannelWebChat Channel = "webchat"
)

// WebChatIDPrefix namespaces web session identifiers so they cannot collide
// with phone-number identifiers from the messaging channel.
const WebChatIDPrefix = "webchat_"

// ConversationState is the single explicit state of a user's dialogue flow.
// It replaces the loose awaiting_* flag map of earlier revisions: exactly one
// state is active at a time by construction.
type ConversationState string

const (
	// StateIdle means no flow is in progress; the main menu governs routing.
	StateIdle ConversationState = ""
	// StateAwaitingName means onboarding is waiting for the user's display name.
	StateAwaitingName ConversationState = "awaiting_initial_name"
	// StateAwaitingLocation means onboarding is waiting for a location share or city text.
	StateAwaitingLocation ConversationState = "awaiting_location"
	// StateAwaitingWeatherChoice means the weather submenu is waiting for a stored-vs-new city choice.
	StateAwaitingWeatherChoice ConversationState = "awaiting_weather_location_choice"
	// StateAwaitingWeatherCity means the weather flow is waiting for a city name.
	StateAwaitingWeatherCity ConversationState = "awaiting_weather_location"
	// StateAwaitingWeatherFollowup means the weather flow is waiting for "another city?" confirmation.
	StateAwaitingWeatherFollowup ConversationState = "awaiting_weather_followup"
)

// IsValidConversationState checks if the given state is one of the known states.
func IsValidConversationState(s ConversationState) bool {
	switch s {
	case StateIdle, StateAwaitingName, StateAwaitingLocation,
		StateAwaitingWeatherChoice, StateAwaitingWeatherCity, StateAwaitingWeatherFollowup:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrEmptyUserID  = errors.New("user identifier cannot be empty")
	ErrEmptyMessage = errors.New("message body cannot be empty")
)

// UserSession is the persisted per-identifier conversation record.
// The identifier is channel-qualified: raw phone digits for the messaging
// channel, or a prefixed web session id for webchat.
type UserSession struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	City         string            `json:"city,omitempty"`
	State        string            `json:"state,omitempty"` // two-letter federative unit code
	Stage        ConversationState `json:"stage,omitempty"`
	Context      map[string]string `json:"context,omitempty"` // free-form key-value blob
	LastActivity time.Time         `json:"last_activity,omitempty"`
	CreatedAt    time.Time         `json:"created_at,omitempty"`
}

// PromptTemplate is a keyed reply text managed outside the engine.
// Text may contain {placeholder} substitution points.
type PromptTemplate struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// StateRef is a Brazilian federative unit used for city/state parsing.
type StateRef struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

// Interaction is the audit record written once per processed inbound event.
type Interaction struct {
	ID      int64     `json:"id,omitempty"`
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	Time    time.Time `json:"time"`
}

// Location carries geographic coordinates from a native location share.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WebChatRequest is the inbound payload of the web-chat endpoint.
type WebChatRequest struct {
	SessionID string   `json:"session_id"`
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// WebChatResponse is the reply payload of the web-chat endpoint.
type WebChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusIgnored indicates an inbound event was acknowledged but not processed.
	APIStatusIgnored APIStatus = "ignored"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Ignored creates an acknowledged-but-ignored API response with a message.
func Ignored(message string) APIResponse {
	return APIResponse{Status: string(APIStatusIgnored), Message: message}
}
