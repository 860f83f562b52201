package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCurrentWeather(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("request path = %q, want /data/2.5/weather", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":     q.Get("q"),
			"appid": q.Get("appid"),
			"units": q.Get("units"),
			"lang":  q.Get("lang"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Recife","weather":[{"description":"céu limpo"}],"main":{"temp":28.4,"feels_like":30.1,"humidity":70},"cod":200}`))
	}))
	defer server.Close()

	client := NewClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
	w, err := client.CurrentWeather(context.Background(), "Recife")
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}
	if w == nil {
		t.Fatal("CurrentWeather() = nil, want report")
	}

	if gotQuery["q"] != "Recife,BR" {
		t.Errorf("query q = %q, want %q", gotQuery["q"], "Recife,BR")
	}
	if gotQuery["appid"] != "test-key" {
		t.Errorf("query appid = %q, want %q", gotQuery["appid"], "test-key")
	}
	if gotQuery["units"] != "metric" || gotQuery["lang"] != "pt_br" {
		t.Errorf("query units/lang = %q/%q, want metric/pt_br", gotQuery["units"], gotQuery["lang"])
	}

	if w.City != "Recife" || w.Description != "céu limpo" {
		t.Errorf("weather = %+v, want Recife / céu limpo", w)
	}
	if w.Temp != 28.4 || w.FeelsLike != 30.1 || w.Humidity != 70 {
		t.Errorf("weather numbers = %v/%v/%v, want 28.4/30.1/70", w.Temp, w.FeelsLike, w.Humidity)
	}
}

func TestCurrentWeatherCityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	w, err := client.CurrentWeather(context.Background(), "Atlântida")
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v, want nil on upstream 404", err)
	}
	if w != nil {
		t.Errorf("CurrentWeather() = %+v, want nil for unknown city", w)
	}
}

func TestCurrentWeatherTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(WithBaseURL(server.URL))
	if _, err := client.CurrentWeather(context.Background(), "Recife"); err == nil {
		t.Error("CurrentWeather() error = nil, want transport error surfaced")
	}
}

func TestForwardGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/1.0/direct" {
			t.Errorf("request path = %q, want /geo/1.0/direct", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Recife,BR" {
			t.Errorf("query q = %q, want %q", got, "Recife,BR")
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("query limit = %q, want 1", got)
		}
		w.Write([]byte(`[{"name":"Recife","state":"Pernambuco","lat":-8.05,"lon":-34.9}]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	p, err := client.ForwardGeocode(context.Background(), "Recife")
	if err != nil {
		t.Fatalf("ForwardGeocode() error = %v", err)
	}
	if p == nil {
		t.Fatal("ForwardGeocode() = nil, want place")
	}
	if p.Name != "Recife" || p.State != "Pernambuco" {
		t.Errorf("place = %+v, want Recife/Pernambuco", p)
	}
}

func TestForwardGeocodeNoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	p, err := client.ForwardGeocode(context.Background(), "Atlântida")
	if err != nil {
		t.Fatalf("ForwardGeocode() error = %v, want nil on empty result", err)
	}
	if p != nil {
		t.Errorf("ForwardGeocode() = %+v, want nil for zero matches", p)
	}
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/1.0/reverse" {
			t.Errorf("request path = %q, want /geo/1.0/reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Error("lat/lon query params missing")
		}
		w.Write([]byte(`[{"name":"Petrolina","state":"Pernambuco","lat":-9.39,"lon":-40.5}]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	p, err := client.ReverseGeocode(context.Background(), -9.39, -40.5)
	if err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}
	if p == nil || p.Name != "Petrolina" {
		t.Errorf("ReverseGeocode() = %+v, want Petrolina", p)
	}
}
