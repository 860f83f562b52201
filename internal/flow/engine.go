package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/campointeligente/chatbot/internal/messaging"
	"github.com/campointeligente/chatbot/internal/models"
	"github.com/campointeligente/chatbot/internal/store"
)

// SessionIdleTimeout is how long a conversation stays fresh. Past it the next
// inbound event restarts from the welcome-back greeting.
const SessionIdleTimeout = time.Hour

// Engine is the conversation state machine. One Handle call processes exactly
// one inbound event end-to-end; concurrent events for the same identifier are
// serialized by a per-user lock.
type Engine struct {
	store   store.Store
	prompts PromptResolver
	weather WeatherService
	sender  messaging.Sender
	now     func() time.Time

	// Federative-unit lookups, loaded from the store at construction and
	// refreshable via ReloadStates.
	statesMu      sync.RWMutex
	abbreviations map[string]bool
	nameToAbbr    map[string]string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewEngine creates an Engine and loads the federative-unit table from the store.
func NewEngine(st store.Store, prompts PromptResolver, weather WeatherService, sender messaging.Sender) (*Engine, error) {
	e := &Engine{
		store:   st,
		prompts: prompts,
		weather: weather,
		sender:  sender,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
	if err := e.ReloadStates(); err != nil {
		return nil, fmt.Errorf("failed to load state table: %w", err)
	}
	return e, nil
}

// SetClock overrides the engine's time source (used by tests).
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// ReloadStates rebuilds the federative-unit lookup tables from the store.
func (e *Engine) ReloadStates() error {
	states, err := e.store.ListStates()
	if err != nil {
		return err
	}
	abbreviations := make(map[string]bool, len(states))
	nameToAbbr := make(map[string]string, len(states))
	for _, st := range states {
		abbreviations[strings.ToUpper(st.Abbreviation)] = true
		nameToAbbr[strings.ToLower(st.Name)] = strings.ToUpper(st.Abbreviation)
	}
	e.statesMu.Lock()
	e.abbreviations = abbreviations
	e.nameToAbbr = nameToAbbr
	e.statesMu.Unlock()
	slog.Debug("Engine.ReloadStates: state table loaded", "count", len(states))
	return nil
}

// Handle processes one inbound event and returns the reply text. Exactly one
// interaction record is written per call, whatever happened during
// processing, as long as a user session could be resolved.
func (e *Engine) Handle(ctx context.Context, in Inbound) (reply string, err error) {
	if in.UserID == "" {
		return "", models.ErrEmptyUserID
	}
	unlock := e.lockUser(in.UserID)
	defer unlock()

	slog.Debug("Engine.Handle: processing inbound event",
		"user_id", in.UserID, "channel", in.Channel, "push_name", in.PushName,
		"has_location", in.Location != nil, "body_length", len(in.Text))

	user, err := e.store.GetUser(in.UserID)
	if err != nil {
		slog.Error("Engine.Handle: failed to load user", "error", err, "user_id", in.UserID)
		return "", fmt.Errorf("failed to load user %s: %w", in.UserID, err)
	}
	now := e.now()
	if user == nil {
		// Onboarding collects the name on both channels, so the push name is
		// kept out of the session record.
		user = &models.UserSession{ID: in.UserID, Context: map[string]string{}, CreatedAt: now}
		slog.Info("Engine.Handle: new user session created", "user_id", in.UserID, "channel", in.Channel)
	}
	lastActivity := user.LastActivity

	// The audit trail survives whatever happens during dispatch, including a
	// panic unwinding through here.
	defer func() {
		if recErr := e.store.AddInteraction(models.Interaction{
			UserID:  user.ID,
			Message: in.Text,
			Reply:   reply,
			Time:    e.now(),
		}); recErr != nil {
			slog.Error("Engine.Handle: failed to record interaction", "error", recErr, "user_id", user.ID)
		}
	}()

	reply = e.dispatch(ctx, user, in, lastActivity, now)

	user.LastActivity = now
	if saveErr := e.store.SaveUser(user); saveErr != nil {
		slog.Error("Engine.Handle: failed to persist user session", "error", saveErr, "user_id", user.ID)
	}
	slog.Debug("Engine.Handle: reply computed", "user_id", user.ID, "stage", user.Stage, "reply_length", len(reply))
	return reply, nil
}

// dispatch runs the state machine for one event, mutating the session in place.
func (e *Engine) dispatch(ctx context.Context, user *models.UserSession, in Inbound, lastActivity, now time.Time) string {
	msg := normalize(in.Text)

	// Global commands win over any state.
	switch msg {
	case "reiniciar", "recomeçar", "inicio":
		slog.Info("Engine.dispatch: restart command", "user_id", user.ID)
		user.Name = ""
		user.Context = map[string]string{}
		return e.beginOnboarding(user)
	case "menu":
		user.Stage = models.StateIdle
		if user.Name != "" {
			return e.prompts.Resolve("main_menu_v2")
		}
		return e.beginOnboarding(user)
	}

	// Welcome an onboarded user back after an idle gap, dropping whatever
	// flow was in progress.
	if user.Name != "" && sessionExpired(lastActivity, now) {
		slog.Info("Engine.dispatch: session expired, greeting user again", "user_id", user.ID, "last_activity", lastActivity)
		user.Stage = models.StateIdle
		welcome := e.prompts.ResolveWith("welcome_back", map[string]string{"user_nome": firstName(user.Name)})
		return welcome + "\n\n" + e.prompts.Resolve("main_menu_v2")
	}

	switch user.Stage {
	case models.StateAwaitingName:
		return e.handleName(user, in)
	case models.StateAwaitingLocation:
		return e.handleLocation(ctx, user, in)
	case models.StateAwaitingWeatherChoice:
		return e.handleWeatherChoice(ctx, user, msg)
	case models.StateAwaitingWeatherCity:
		return e.handleWeatherCity(ctx, user, in.Text)
	case models.StateAwaitingWeatherFollowup:
		return e.handleWeatherFollowup(user, msg)
	default:
		if user.Name == "" {
			return e.beginOnboarding(user)
		}
		return e.routeMenu(user, msg)
	}
}

// beginOnboarding arms the ask-name state and returns the opening prompt.
// Restart handling falls through here directly instead of re-invoking Handle.
func (e *Engine) beginOnboarding(user *models.UserSession) string {
	user.Stage = models.StateAwaitingName
	return e.prompts.Resolve("welcome_ask_name")
}

func (e *Engine) handleName(user *models.UserSession, in Inbound) string {
	name := strings.TrimSpace(in.Text)
	if name == "" {
		return e.prompts.Resolve("welcome_ask_name")
	}
	user.Name = titleCaseName(name)
	user.Stage = models.StateAwaitingLocation

	key := "welcome_ask_location_web"
	if in.Channel == models.ChannelWhatsApp {
		key = "welcome_ask_location_whatsapp"
	}
	return e.prompts.ResolveWith(key, map[string]string{"user_nome": user.Name})
}

func (e *Engine) handleLocation(ctx context.Context, user *models.UserSession, in Inbound) string {
	switch {
	case in.Channel == models.ChannelWhatsApp && in.Location != nil:
		place, err := e.weather.ReverseGeocode(ctx, in.Location.Latitude, in.Location.Longitude)
		if err != nil {
			slog.Warn("Engine.handleLocation: reverse geocode failed", "error", err, "user_id", user.ID)
		}
		if place == nil {
			return e.prompts.Resolve("location_error")
		}
		user.City = place.Name
		user.State = e.stateAbbr(place.State)
		user.Stage = models.StateIdle

		thanks := e.prompts.ResolveWith("location_received_whatsapp", map[string]string{"user_nome": user.Name})
		// Persist before the out-of-band send so a delivery failure cannot
		// lose the location.
		if err := e.store.SaveUser(user); err != nil {
			slog.Error("Engine.handleLocation: failed to persist session before send", "error", err, "user_id", user.ID)
		}
		if err := e.sender.SendText(ctx, user.ID, thanks); err != nil {
			slog.Error("Engine.handleLocation: thank-you delivery failed", "error", err, "user_id", user.ID)
		}
		return e.prompts.Resolve("main_menu_v2")

	case in.Channel == models.ChannelWebChat && strings.TrimSpace(in.Text) != "":
		city := e.parseCity(in.Text)
		place, err := e.weather.ForwardGeocode(ctx, city)
		if err != nil {
			slog.Warn("Engine.handleLocation: forward geocode failed", "error", err, "user_id", user.ID, "city", city)
		}
		if place == nil {
			// Same state stays armed so the user can try again.
			return e.prompts.ResolveWith("location_not_found", map[string]string{"cidade": city})
		}
		user.City = place.Name
		user.State = e.stateAbbr(place.State)
		user.Stage = models.StateIdle

		thanks := e.prompts.ResolveWith("location_received_web", map[string]string{
			"cidade":    user.City,
			"user_nome": user.Name,
		})
		return thanks + "\n\n" + e.prompts.Resolve("main_menu_v2")

	default:
		return e.prompts.Resolve("location_error")
	}
}

func (e *Engine) handleWeatherChoice(ctx context.Context, user *models.UserSession, msg string) string {
	user.Stage = models.StateIdle
	switch {
	case containsAny(msg, "1", "minha", "atual"):
		if user.City == "" {
			user.Stage = models.StateAwaitingLocation
			return e.prompts.Resolve("weather_location_not_found")
		}
		report, ok := e.weatherReport(ctx, user.City)
		if ok {
			user.Stage = models.StateAwaitingWeatherFollowup
		}
		return report
	case containsAny(msg, "2", "outra"):
		user.Stage = models.StateAwaitingWeatherCity
		return e.prompts.Resolve("weather_ask_another_city")
	default:
		user.Stage = models.StateAwaitingWeatherChoice
		return e.prompts.Resolve("weather_choice_invalid")
	}
}

func (e *Engine) handleWeatherCity(ctx context.Context, user *models.UserSession, text string) string {
	report, ok := e.weatherReport(ctx, text)
	if ok {
		user.Stage = models.StateAwaitingWeatherFollowup
	} else {
		user.Stage = models.StateAwaitingWeatherCity
	}
	return report
}

func (e *Engine) handleWeatherFollowup(user *models.UserSession, msg string) string {
	user.Stage = models.StateIdle
	if containsAny(msg, "sim", "outra", "cidade") {
		user.Stage = models.StateAwaitingWeatherCity
		return e.prompts.Resolve("weather_ask_another_city")
	}
	return e.prompts.Resolve("main_menu_v2")
}

func (e *Engine) routeMenu(user *models.UserSession, msg string) string {
	switch {
	case containsAny(msg, "1", "clima"):
		user.Stage = models.StateAwaitingWeatherChoice
		return e.prompts.Resolve("weather_submenu_choice")
	case containsAny(msg, "2", "plantio"):
		return e.prompts.Resolve("feature_planting_wip")
	case containsAny(msg, "3", "preços"):
		return e.prompts.Resolve("feature_prices_wip")
	case containsAny(msg, "4", "relatórios"):
		return e.prompts.Resolve("feature_reports_wip")
	case containsAny(msg, "5", "safra"):
		return e.prompts.Resolve("feature_harvest_wip")
	default:
		fallback := e.prompts.ResolveWith("default_fallback", map[string]string{"user_nome": firstName(user.Name)})
		return fallback + "\n\n" + e.prompts.Resolve("main_menu_v2")
	}
}

// weatherReport fetches and formats the current weather for a raw city input.
// The boolean reports lookup success.
func (e *Engine) weatherReport(ctx context.Context, rawCity string) (string, bool) {
	city := e.parseCity(rawCity)
	w, err := e.weather.CurrentWeather(ctx, city)
	if err != nil {
		slog.Warn("Engine.weatherReport: weather lookup failed", "error", err, "city", city)
	}
	if w == nil {
		return e.prompts.ResolveWith("weather_not_found", map[string]string{"cidade": city}), false
	}
	return e.prompts.ResolveWith("weather_report", map[string]string{
		"cidade":      w.City,
		"descricao":   capitalize(w.Description),
		"temperatura": strconv.FormatFloat(w.Temp, 'f', 1, 64),
		"sensacao":    strconv.FormatFloat(w.FeelsLike, 'f', 1, 64),
		"umidade":     strconv.Itoa(w.Humidity),
	}), true
}

func (e *Engine) parseCity(text string) string {
	e.statesMu.RLock()
	defer e.statesMu.RUnlock()
	return parseCityFromInput(text, e.abbreviations)
}

func (e *Engine) stateAbbr(fullName string) string {
	e.statesMu.RLock()
	defer e.statesMu.RUnlock()
	return e.nameToAbbr[strings.ToLower(fullName)]
}

// sessionExpired reports whether a conversation went stale: never seen
// before, idle past the timeout, or a calendar-date change.
func sessionExpired(lastActivity, now time.Time) bool {
	if lastActivity.IsZero() {
		return true
	}
	if now.Sub(lastActivity) > SessionIdleTimeout {
		return true
	}
	ly, lm, ld := lastActivity.Date()
	ny, nm, nd := now.Date()
	return ly != ny || lm != nm || ld != nd
}

// lockUser serializes Handle calls per identifier, so concurrent events for
// the same user cannot race on the session record.
func (e *Engine) lockUser(id string) func() {
	e.locksMu.Lock()
	mu, ok := e.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[id] = mu
	}
	e.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
