package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"diorama/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// authWait is how long a freshly upgraded connection has to present its auth
// frame before the server hangs up.
const authWait = 10 * time.Second

// authFrame is the first frame every client must send after the upgrade.
type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WebsocketHandler handles WebSocket connections for the live-update
// channel. Authentication is in-band: the upgrade succeeds for anyone, but
// the first client frame must be {"type":"auth","token":...} carrying a
// valid JWT. Connections that fail or stall the handshake are closed without
// ever being registered with the hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userID, ok := s.performAuthHandshake(conn)
		if !ok {
			_ = conn.Close()
			return
		}

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		log.Printf("WebSocket: User %d (%s) connected", userID, user.Username)

		// Frames after the handshake are ignored; the channel is
		// server-to-client only.
		client.IncomingHandler = nil

		// Handshake acknowledgement
		welcome := map[string]interface{}{
			"type":    "connected",
			"payload": map[string]interface{}{"user_id": userID, "username": user.Username},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// performAuthHandshake reads and validates the auth frame. Returns the
// authenticated user ID, or ok=false after writing an error frame.
func (s *Server) performAuthHandshake(conn *websocket.Conn) (uint, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(authWait))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}

	var frame authFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "auth" || frame.Token == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"auth frame required"}`))
		return 0, false
	}

	userID, err := s.validateToken(context.Background(), frame.Token)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"unauthorized"}`))
		return 0, false
	}
	return userID, true
}
