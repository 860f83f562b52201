// Package api provides HTTP handlers for the chatbot endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/campointeligente/chatbot/internal/flow"
	"github.com/campointeligente/chatbot/internal/models"
)

// genericApology is returned to end users when processing fails internally.
const genericApology = "Desculpe, ocorreu um erro no nosso servidor ao processar sua mensagem."

// webchatHandler handles POST /webchat/message.
func (s *Server) webchatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.WebChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.webchatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: session_id"))
		return
	}

	in := flow.Inbound{
		UserID:   models.WebChatIDPrefix + req.SessionID,
		Text:     req.Message,
		PushName: "Visitante",
		Channel:  models.ChannelWebChat,
	}
	if req.Latitude != nil && req.Longitude != nil {
		in.Location = &models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	reply, err := s.engine.Handle(r.Context(), in)
	if err != nil {
		slog.Error("Server.webchatHandler: engine failed", "error", err, "user_id", in.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(genericApology))
		return
	}

	slog.Info("Server.webchatHandler: message processed", "user_id", in.UserID)
	writeJSONResponse(w, http.StatusOK, models.WebChatResponse{Response: reply, SessionID: req.SessionID})
}

// webhookHandler handles POST /webhook/evolution. Provider retries are only
// stopped by a 2xx, so every decodable event is acknowledged with 200, even
// when processing failed internally.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	var ev evolutionEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		slog.Warn("Server.webhookHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	slog.Debug("Server.webhookHandler: event received", "event", ev.Event, "instance", ev.Instance, "message_type", ev.Data.MessageType)

	if ev.Data.Key.FromMe {
		slog.Debug("Server.webhookHandler: discarding bot echo", "remote_jid", ev.Data.Key.RemoteJid)
		writeJSONResponse(w, http.StatusOK, models.Ignored("Own message echo discarded"))
		return
	}

	text := ev.messageText()
	location := ev.location()
	if text == "" && location == nil {
		slog.Info("Server.webhookHandler: unsupported message type", "message_type", ev.Data.MessageType)
		writeJSONResponse(w, http.StatusOK, models.Ignored("Unsupported message type"))
		return
	}

	userID := ev.senderID()
	if userID == "" {
		slog.Warn("Server.webhookHandler: missing sender identifier", "remote_jid", ev.Data.Key.RemoteJid)
		writeJSONResponse(w, http.StatusOK, models.Ignored("Missing sender identifier"))
		return
	}

	in := flow.Inbound{
		UserID:   userID,
		Text:     text,
		PushName: ev.Data.PushName,
		Channel:  models.ChannelWhatsApp,
		Location: location,
	}

	reply, err := s.engine.Handle(r.Context(), in)
	if err != nil {
		slog.Error("Server.webhookHandler: engine failed", "error", err, "user_id", userID)
		reply = genericApology
	}

	if sendErr := s.sender.SendText(r.Context(), userID, reply); sendErr != nil {
		// Delivery failures are logged and swallowed; the provider already
		// got its acknowledgement path.
		slog.Error("Server.webhookHandler: reply delivery failed", "error", sendErr, "user_id", userID)
	}

	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Webhook message processed", nil))
}

// statsHandler handles GET /interactions/stats.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	interactions, err := s.st.GetInteractions()
	if err != nil {
		slog.Error("Server.statsHandler: failed to fetch interactions", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch interactions"))
		return
	}
	total := len(interactions)
	perUser := make(map[string]int)
	var sumLen int
	for _, i := range interactions {
		perUser[i.UserID]++
		sumLen += len(i.Reply)
	}
	avgLen := 0.0
	if total > 0 {
		avgLen = float64(sumLen) / float64(total)
	}
	stats := map[string]interface{}{
		"total_interactions":    total,
		"interactions_per_user": perUser,
		"avg_reply_length":      avgLen,
	}
	slog.Debug("Server.statsHandler: stats computed", "total_interactions", total)
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// healthHandler provides a liveness probe with a store reachability check.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK
	if _, err := s.st.ListStates(); err != nil {
		slog.Warn("Server.healthHandler: store check failed", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Store unreachable"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, healthData)
}
