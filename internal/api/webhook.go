package api

import (
	"strings"

	"github.com/campointeligente/chatbot/internal/models"
)

// evolutionEvent is the provider-shaped webhook envelope. Only the fields the
// engine boundary cares about are mapped; everything else is ignored.
type evolutionEvent struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
			ID        string `json:"id"`
		} `json:"key"`
		PushName    string `json:"pushName"`
		MessageType string `json:"messageType"`
		Message     struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage *struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
			TextMessage *struct {
				Text string `json:"text"`
			} `json:"textMessage"`
			LocationMessage *struct {
				DegreesLatitude  float64 `json:"degreesLatitude"`
				DegreesLongitude float64 `json:"degreesLongitude"`
			} `json:"locationMessage"`
		} `json:"message"`
	} `json:"data"`
}

// senderID extracts the raw phone digits from the remoteJid
// ("55ddnnnnnnnn@s.whatsapp.net" -> "55ddnnnnnnnn").
func (ev *evolutionEvent) senderID() string {
	jid := ev.Data.Key.RemoteJid
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		jid = jid[:i]
	}
	var b strings.Builder
	for _, r := range jid {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// messageText returns the text content of the event, checking the message
// shapes Evolution has used across versions.
func (ev *evolutionEvent) messageText() string {
	m := ev.Data.Message
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedTextMessage != nil {
		return m.ExtendedTextMessage.Text
	}
	if m.TextMessage != nil {
		return m.TextMessage.Text
	}
	return ""
}

// location returns the shared coordinates, if the event carries any.
func (ev *evolutionEvent) location() *models.Location {
	if ev.Data.Message.LocationMessage == nil {
		return nil
	}
	return &models.Location{
		Latitude:  ev.Data.Message.LocationMessage.DegreesLatitude,
		Longitude: ev.Data.Message.LocationMessage.DegreesLongitude,
	}
}
