package handlers

import (
	"net/http"

	"collab-app/internal/auth"
	"collab-app/internal/collab"
	"collab-app/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	hub         *collab.Hub
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, hub *collab.Hub) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Identity on the realtime channel is asserted by the client via
	// presence-online, not verified here. A token, when supplied, is
	// only used to log who connected.
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" {
		if user, err := h.authService.GetUserFromToken(r.Context(), tokenStr); err == nil {
			logger.Debug("WebSocket connect by %s (%s)", user.Name, user.ID)
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := collab.NewClient(h.hub, conn, r.RemoteAddr)

	go client.WritePump()
	go client.ReadPump()
}
