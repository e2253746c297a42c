package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"parlor/internal/service"
)

type MessageHandler struct {
	channels *service.ChannelsService
}

func NewMessageHandler(channels *service.ChannelsService) *MessageHandler {
	return &MessageHandler{channels: channels}
}

type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// GET /api/v1/channels/{channelID}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.channels.ListMessages(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// POST /api/v1/channels/{channelID}/messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	message, err := h.channels.CreateMessage(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID, req.Content)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
