package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/storage"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

const maxAvatarBytes = 5 << 20
const formFieldAvatar = "avatar"

// UserHandler provides member profile endpoints.
type UserHandler struct {
	userService *services.UserService
	storage     *storage.Storage
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, objects *storage.Storage) *UserHandler {
	return &UserHandler{userService: userService, storage: objects}
}

// UserRouter registers profile routes on the given router.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	objects *storage.Storage,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, objects)

	r.With(authMiddleware, WithPrincipal(userService)).Put("/me", handler.UpdateProfile)
	r.With(authMiddleware, WithPrincipal(userService)).Post("/me/avatar", handler.UploadAvatar)
	r.Get("/{username}", handler.GetProfile)
	r.Get("/{username}/avatar", handler.GetAvatar)
}

// GetProfile returns the public profile of a member.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, profileOf(user))
}

// UpdateProfile updates the caller's own profile fields.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	user.Name = req.Name
	user.Headline = strings.TrimSpace(req.Headline)
	user.Bio = strings.TrimSpace(req.Bio)
	user.Region = strings.TrimSpace(req.Region)

	updated, err := h.userService.UpdateProfile(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// UploadAvatar stores a new profile picture and records its object key.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	key := avatarKey(userID, header.Filename)
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	previous := user.AvatarKey
	user.AvatarKey = key
	updated, err := h.userService.UpdateProfile(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	// The old object is unreferenced once the key is swapped.
	if previous != "" {
		_ = h.storage.Delete(r.Context(), previous)
	}

	writeJSON(w, http.StatusOK, updated)
}

// GetAvatar streams a member's profile picture.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if user.AvatarKey == "" {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}

	object, contentType, err := h.storage.Get(r.Context(), user.AvatarKey)
	if err != nil {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}
	defer object.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object)
}

// ProfileResponse is the public view of a member account.
type ProfileResponse struct {
	ID              int          `json:"id"`
	Username        string       `json:"username"`
	Name            string       `json:"name"`
	Headline        string       `json:"headline"`
	Bio             string       `json:"bio"`
	Region          string       `json:"region"`
	Roles           []types.Role `json:"roles"`
	StudentVerified bool         `json:"student_verified"`
	MentorVerified  bool         `json:"mentor_verified"`
	CreatedAt       time.Time    `json:"created_at"`
}

func profileOf(user types.User) ProfileResponse {
	return ProfileResponse{
		ID:              user.ID,
		Username:        user.Username,
		Name:            user.Name,
		Headline:        user.Headline,
		Bio:             user.Bio,
		Region:          user.Region,
		Roles:           user.Roles,
		StudentVerified: user.StudentVerified,
		MentorVerified:  user.MentorVerified,
		CreatedAt:       user.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Bio      string `json:"bio"`
	Region   string `json:"region"`
}

func avatarKey(userID int, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), ext)
}
