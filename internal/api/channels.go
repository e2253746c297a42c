package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"parlor/internal/service"
)

type ChannelHandler struct {
	channels *service.ChannelsService
}

func NewChannelHandler(channels *service.ChannelsService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

type CreateChannelRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	IsPublic bool   `json:"isPublic"`
}

type CreateChannelResponse struct {
	ChannelID string `json:"channelId"`
}

// POST /api/v1/channels
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	channelID, err := h.channels.Create(r.Context(), req.Name, RequestUser(r).ID, req.IsPublic)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateChannelResponse{ChannelID: channelID})
}

// GET /api/v1/channels/{channelID}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.channels.Get(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// GET /api/v1/channels
func (h *ChannelHandler) ListJoined(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.ListJoined(r.Context(), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

// GET /api/v1/channels/search?name=
func (h *ChannelHandler) Search(w http.ResponseWriter, r *http.Request) {
	nameFilter := strings.TrimSpace(r.URL.Query().Get("name"))

	channels, err := h.channels.Search(r.Context(), nameFilter)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

// POST /api/v1/channels/{channelID}/join
func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	err := h.channels.JoinPublic(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined channel"})
}

// DELETE /api/v1/channels/{channelID}/members
func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	err := h.channels.Leave(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left channel"})
}
