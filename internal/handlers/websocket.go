package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"social-chat-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// wsConn serializes writes; gorilla connections do not allow
// concurrent WriteMessage calls.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// clientFrame is the shape of messages clients send over the socket.
type clientFrame struct {
	Event      string `json:"event"`
	ReceiverID string `json:"receiver_id"`
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.Hub
	userService *services.UserService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.Hub, userService *services.UserService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, userService: userService}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	// Validate token
	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Upgrade connection
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn := &wsConn{conn: raw}
	defer conn.Close()

	h.hub.Connect(userID, conn)
	defer h.hub.Disconnect(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// Handle messages
	for {
		_, messageBytes, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(messageBytes, &frame); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			continue
		}

		h.handleFrame(userID, frame)
	}
}

// handleFrame processes incoming WebSocket messages
func (h *WebSocketHandler) handleFrame(userID string, frame clientFrame) {
	switch frame.Event {
	case services.EventTyping, services.EventStopTyping:
		if frame.ReceiverID == "" {
			return
		}
		h.hub.PushToUser(frame.ReceiverID, frame.Event, userID)
	default:
		log.Debug().Str("user_id", userID).Str("event", frame.Event).Msg("Unknown WebSocket event")
	}
}
