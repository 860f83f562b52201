package api

import (
	"encoding/json"
	"testing"
)

func TestEvolutionEventSenderID(t *testing.T) {
	tests := []struct {
		jid  string
		want string
	}{
		{"5581999990000@s.whatsapp.net", "5581999990000"},
		{"5581999990000", "5581999990000"},
		{"+55 81 99999-0000@s.whatsapp.net", "5581999990000"},
		{"", ""},
	}
	for _, tt := range tests {
		var ev evolutionEvent
		ev.Data.Key.RemoteJid = tt.jid
		if got := ev.senderID(); got != tt.want {
			t.Errorf("senderID(%q) = %q, want %q", tt.jid, got, tt.want)
		}
	}
}

func TestEvolutionEventMessageText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"conversation", `{"data":{"message":{"conversation":"oi"}}}`, "oi"},
		{"extended text", `{"data":{"message":{"extendedTextMessage":{"text":"olá"}}}}`, "olá"},
		{"legacy text message", `{"data":{"message":{"textMessage":{"text":"bom dia"}}}}`, "bom dia"},
		{"no text", `{"data":{"message":{}}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev evolutionEvent
			if err := json.Unmarshal([]byte(tt.raw), &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := ev.messageText(); got != tt.want {
				t.Errorf("messageText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvolutionEventLocation(t *testing.T) {
	raw := `{"data":{"message":{"locationMessage":{"degreesLatitude":-8.05,"degreesLongitude":-34.9}}}}`
	var ev evolutionEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	loc := ev.location()
	if loc == nil {
		t.Fatal("location() = nil, want coordinates")
	}
	if loc.Latitude != -8.05 || loc.Longitude != -34.9 {
		t.Errorf("location() = %+v, want -8.05/-34.9", loc)
	}

	var empty evolutionEvent
	if empty.location() != nil {
		t.Error("location() on event without locationMessage, want nil")
	}
}
