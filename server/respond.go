package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"team-chat/errors"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to HTTP status codes. Anything unknown is a
// 500 with a generic body so internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors

	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case stderrors.As(err, &validationErrs),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrChannelNameRequired),
		stderrors.Is(err, errors.ErrEmptyMessage),
		stderrors.Is(err, errors.ErrAvatarTooLarge),
		stderrors.Is(err, errors.ErrUnsupportedAvatarType):
		status = http.StatusBadRequest
		message = err.Error()
	case stderrors.Is(err, errors.ErrInvalidCredentials),
		stderrors.Is(err, errors.ErrMissingToken),
		stderrors.Is(err, errors.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = err.Error()
	case stderrors.Is(err, errors.ErrNotChannelMember),
		stderrors.Is(err, errors.ErrPrivateChannel):
		status = http.StatusForbidden
		message = err.Error()
	case stderrors.Is(err, errors.ErrUserNotFound),
		stderrors.Is(err, errors.ErrChannelNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case stderrors.Is(err, errors.ErrUserAlreadyExists),
		stderrors.Is(err, errors.ErrChannelNameTaken):
		status = http.StatusConflict
		message = err.Error()
	}

	writeJSON(w, status, errorResponse{Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
