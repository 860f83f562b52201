// Package openweather wraps the OpenWeatherMap current-weather and geocoding
// APIs used by the conversation engine.
//
// All lookups carry a fixed Brazil country bias and first-result-only
// semantics. A lookup with zero upstream matches returns (nil, nil) so callers
// can distinguish "not found" from a transport failure.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Constants for OpenWeatherMap client configuration
const (
	// DefaultBaseURL is the OpenWeatherMap API root.
	DefaultBaseURL = "http://api.openweathermap.org"
	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 10 * time.Second
	// countrySuffix biases city queries to Brazil.
	countrySuffix = ",BR"
)

// Weather is the subset of a current-weather report the engine formats.
type Weather struct {
	City        string
	Description string
	Temp        float64
	FeelsLike   float64
	Humidity    int
}

// Place is a geocoding result, forward or reverse.
type Place struct {
	Name  string
	State string // full federative-unit name as reported upstream
	Lat   float64
	Lon   float64
}

// Opts holds configuration options for the client.
type Opts struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// Option defines a configuration option for the client.
type Option func(*Opts)

// WithAPIKey sets the OpenWeatherMap API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(u string) Option {
	return func(o *Opts) {
		o.BaseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.Client = c
	}
}

// Client calls the OpenWeatherMap APIs over a shared HTTP client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a client, applying any provided options.
func NewClient(opts ...Option) *Client {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultTimeout}
	}
	slog.Debug("openweather.NewClient: client created", "base_url", cfg.BaseURL, "api_key_set", cfg.APIKey != "")
	return &Client{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, http: cfg.Client}
}

type weatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Cod json.Number `json:"cod"`
}

type geocodeResult struct {
	Name  string  `json:"name"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// CurrentWeather fetches the current weather for a Brazilian city.
// Returns (nil, nil) when the city is unknown upstream.
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Weather, error) {
	q := url.Values{}
	q.Set("q", city+countrySuffix)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "pt_br")

	resp, err := c.get(ctx, "/data/2.5/weather", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("openweather.CurrentWeather: city not found", "city", city, "status", resp.StatusCode)
		return nil, nil
	}

	var wr weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	w := &Weather{
		City:      wr.Name,
		Temp:      wr.Main.Temp,
		FeelsLike: wr.Main.FeelsLike,
		Humidity:  wr.Main.Humidity,
	}
	if w.City == "" {
		w.City = city
	}
	if len(wr.Weather) > 0 {
		w.Description = wr.Weather[0].Description
	}
	slog.Debug("openweather.CurrentWeather: succeeded", "city", w.City, "temp", w.Temp)
	return w, nil
}

// ForwardGeocode resolves a Brazilian city name to a place.
// Returns (nil, nil) when the upstream has zero matches.
func (c *Client) ForwardGeocode(ctx context.Context, city string) (*Place, error) {
	q := url.Values{}
	q.Set("q", city+countrySuffix)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)
	return c.geocode(ctx, "/geo/1.0/direct", q)
}

// ReverseGeocode resolves coordinates to a place.
// Returns (nil, nil) when the upstream has zero matches.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)
	return c.geocode(ctx, "/geo/1.0/reverse", q)
}

func (c *Client) geocode(ctx context.Context, path string, q url.Values) (*Place, error) {
	resp, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("openweather.geocode: non-OK status", "path", path, "status", resp.StatusCode)
		return nil, nil
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		slog.Debug("openweather.geocode: no matches", "path", path)
		return nil, nil
	}
	first := results[0]
	return &Place{Name: first.Name, State: first.State, Lat: first.Lat, Lon: first.Lon}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("openweather request failed", "path", path, "error", err)
		return nil, fmt.Errorf("openweather request to %s failed: %w", path, err)
	}
	return resp, nil
}
