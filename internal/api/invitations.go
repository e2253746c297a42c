package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"parlor/internal/models"
	"parlor/internal/service"
)

type InvitationHandler struct {
	channels *service.ChannelsService
}

func NewInvitationHandler(channels *service.ChannelsService) *InvitationHandler {
	return &InvitationHandler{channels: channels}
}

type CreateInvitationRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Role     string `json:"role" validate:"required"`
}

type CreateInvitationResponse struct {
	InvitationID string `json:"invitationId"`
}

// POST /api/v1/channels/{channelID}/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		badRequest(w, "role must be one of: owner, member, viewer")
		return
	}

	invitationID, err := h.channels.CreateInvitation(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID, req.Username, role)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateInvitationResponse{InvitationID: invitationID})
}

// POST /api/v1/channels/{channelID}/invitations/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	err := h.channels.AcceptInvitation(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation accepted"})
}

// POST /api/v1/channels/{channelID}/invitations/decline
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	err := h.channels.DeclineInvitation(r.Context(), chi.URLParam(r, "channelID"), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation declined"})
}

// GET /api/v1/invitations
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.channels.ListInvitations(r.Context(), RequestUser(r).ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invitations)
}
