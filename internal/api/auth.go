package api

import (
	"net/http"
	"time"

	"parlor/internal/models"
	"parlor/internal/service"
)

type AuthHandler struct {
	users *service.UsersService
}

func NewAuthHandler(users *service.UsersService) *AuthHandler {
	return &AuthHandler{users: users}
}

type RegisterRequest struct {
	InvitationCode string `json:"invitationCode" validate:"required"`
	Username       string `json:"username" validate:"required,max=64"`
	Password       string `json:"password" validate:"required,max=128"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

// POST /api/v1/users
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	userID, err := h.users.Register(r.Context(), req.InvitationCode, req.Username, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{UserID: userID})
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User      *models.User `json:"user"`
	AuthToken string       `json:"authToken"`
}

// POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	session, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "authToken",
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{
		User:      session.User,
		AuthToken: session.Token,
	})
}

// POST /api/v1/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), RequestToken(r)); err != nil {
		serviceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "authToken",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

type InviteResponse struct {
	InvitationCode string `json:"invitationCode"`
}

// POST /api/v1/invite
func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)

	code, err := h.users.CreateRegistrationInvitation(r.Context(), &user.ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, InviteResponse{InvitationCode: code})
}
