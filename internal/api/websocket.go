package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"parlor/internal/notify"
	"parlor/internal/service"
	"parlor/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *notify.Hub
	users    *service.UsersService
	channels *service.ChannelsService
}

func NewWebSocketHandler(hub *notify.Hub, users *service.UsersService, channels *service.ChannelsService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, users: users, channels: channels}
}

// GET /ws?token=
//
// Websocket mirror of the SSE stream, for clients that prefer a socket.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorized(w, "Missing token")
		return
	}

	user, err := h.users.Authenticate(r.Context(), token)
	if err != nil {
		serviceError(w, err)
		return
	}

	joined, err := h.channels.ListJoined(r.Context(), user.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	channelIDs := make([]string, 0, len(joined))
	for _, c := range joined {
		channelIDs = append(channelIDs, c.ID)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe(user.ID, channelIDs)
	client := ws.NewClient(h.hub, sub, conn)

	go client.WritePump()
	go client.ReadPump()
}
