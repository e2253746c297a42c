package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"parlor/internal/service"
)

const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeInvitationNotValid  = "INVITATION_NOT_VALID"
	ErrCodeUsernameNotValid    = "USERNAME_NOT_VALID"
	ErrCodePasswordNotSafe     = "PASSWORD_NOT_SAFE"
	ErrCodeChannelNameNotValid = "CHANNEL_NAME_NOT_VALID"
	ErrCodeMessageEmpty        = "MESSAGE_EMPTY"
	ErrCodeNotMember           = "NOT_MEMBER"
	ErrCodeNotAuthorized       = "NOT_AUTHORIZED_TO_WRITE"
	ErrCodeForbiddenRole       = "FORBIDDEN_ROLE"
	ErrCodeNotPublic           = "CHANNEL_NOT_PUBLIC"
	ErrCodeUserIsOwner         = "USER_IS_OWNER"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, message)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred")
}

// serviceError maps every expected business failure to a stable
// machine-readable code. Anything unmatched is an infrastructure
// failure: logged, surfaced as a generic 500.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameNotValid):
		writeError(w, http.StatusBadRequest, ErrCodeUsernameNotValid, "Username must be at least 4 characters")
	case errors.Is(err, service.ErrPasswordNotSafe):
		writeError(w, http.StatusBadRequest, ErrCodePasswordNotSafe, "Password must be at least 8 characters with a letter and a digit")
	case errors.Is(err, service.ErrInvitationNotValid):
		writeError(w, http.StatusBadRequest, ErrCodeInvitationNotValid, "Invitation code is not valid")
	case errors.Is(err, service.ErrChannelNameNotValid):
		writeError(w, http.StatusBadRequest, ErrCodeChannelNameNotValid, "Channel name must be 4-64 alphanumeric characters")
	case errors.Is(err, service.ErrMessageEmpty):
		writeError(w, http.StatusBadRequest, ErrCodeMessageEmpty, "Message content is empty")

	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token")

	case errors.Is(err, service.ErrChannelNotPublic):
		writeError(w, http.StatusForbidden, ErrCodeNotPublic, "Channel is not public")
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrInviterNotMember):
		writeError(w, http.StatusForbidden, ErrCodeNotMember, "User is not a member of the channel")
	case errors.Is(err, service.ErrNotAuthorizedToWrite):
		writeError(w, http.StatusForbidden, ErrCodeNotAuthorized, "Viewers cannot post messages")
	case errors.Is(err, service.ErrForbiddenRole):
		writeError(w, http.StatusForbidden, ErrCodeForbiddenRole, "Role cannot be granted")
	case errors.Is(err, service.ErrUserIsOwner):
		writeError(w, http.StatusForbidden, ErrCodeUserIsOwner, "Channel owner cannot leave")

	case errors.Is(err, service.ErrChannelNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Channel not found")
	case errors.Is(err, service.ErrInviteeNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Invitee not found")
	case errors.Is(err, service.ErrInvitationNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Invitation not found")

	case errors.Is(err, service.ErrUsernameExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "Username already taken")
	case errors.Is(err, service.ErrChannelNameExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "Channel name already taken")
	case errors.Is(err, service.ErrAlreadyMember):
		writeError(w, http.StatusConflict, ErrCodeConflict, "User is already a member")
	case errors.Is(err, service.ErrInvitationExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "Invitation already exists")

	default:
		slog.Error("unexpected service error", "error", err)
		internalError(w)
	}
}
