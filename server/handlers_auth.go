package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"team-chat/domain"
	"team-chat/errors"
	"team-chat/services"
)

// maxAvatarBytes caps uploaded avatar size at 1 MiB.
const maxAvatarBytes = 1 << 20

var allowedAvatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

type sessionResponse struct {
	User  userView       `json:"user"`
	Token services.Token `json:"token"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, token, err := h.auth.Register(req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("User registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusCreated, sessionResponse{User: viewOf(user), Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: viewOf(user), Token: token})
}

func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]userView{"user": viewOf(user)})
}

// HandleSetAvatar accepts a multipart upload under the "avatar" field,
// sniffs the real content type and stores the image when it is one of the
// allowed formats.
func (h *Handlers) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "missing avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		badRequest(w, "unreadable avatar file")
		return
	}
	if len(data) > maxAvatarBytes {
		writeError(w, errors.ErrAvatarTooLarge)
		return
	}

	// The client's declared content type is ignored; only the sniffed one
	// counts.
	detected := mimetype.Detect(data)
	allowed := false
	for _, contentType := range allowedAvatarTypes {
		if detected.Is(contentType) {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, errors.ErrUnsupportedAvatarType)
		return
	}

	userID := UserID(r.Context())
	if err := h.users.SetAvatar(userID, data, detected.String()); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Me(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]userView{"user": viewOf(user)})
}

func (h *Handlers) HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.users.GetAvatar(r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}
