package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parlor/internal/notify"
	"parlor/internal/service"
)

const sseKeepAliveInterval = 30 * time.Second

type EventsHandler struct {
	hub      *notify.Hub
	channels *service.ChannelsService
}

func NewEventsHandler(hub *notify.Hub, channels *service.ChannelsService) *EventsHandler {
	return &EventsHandler{hub: hub, channels: channels}
}

// GET /api/v1/channels/listen
//
// Streams new messages in the caller's channels as server-sent events.
// The set of visible channels is snapshotted at connect time; clients
// reconnect after joining a channel to see its traffic.
func (h *EventsHandler) Listen(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		internalError(w)
		return
	}

	user := RequestUser(r)
	joined, err := h.channels.ListJoined(r.Context(), user.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	channelIDs := make([]string, 0, len(joined))
	for _, c := range joined {
		channelIDs = append(channelIDs, c.ID)
	}

	sub := h.hub.Subscribe(user.ID, channelIDs)
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case event, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
