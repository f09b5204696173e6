package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/postboard/internal/api/respond"
	"github.com/dom/postboard/internal/service"
	"github.com/dom/postboard/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

// Handle upgrades to the post change feed. Browsers cannot set headers on a
// websocket handshake, so the token comes from the query string.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respond.Message(w, r, http.StatusUnauthorized, "Token required")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		respond.Error(w, r, "ws.Handle", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
