package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/storage"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

const maxDocumentBytes = 20 << 20

const (
	formFieldTrack    = "track"
	formFieldDocument = "document"
	formFieldMetadata = "metadata"
)

// VerificationHandler provides identity verification endpoints.
type VerificationHandler struct {
	verificationService *services.VerificationService
	storage             *storage.Storage
}

// NewVerificationHandler constructs a handler with the provided dependencies.
func NewVerificationHandler(verificationService *services.VerificationService, objects *storage.Storage) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService, storage: objects}
}

// VerificationRouter registers verification routes on the given router.
// Review operations require the manager tier.
func VerificationRouter(
	r chi.Router,
	verificationService *services.VerificationService,
	userService *services.UserService,
	objects *storage.Storage,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewVerificationHandler(verificationService, objects)

	member := RequireRoles(userService, types.RoleStudent, types.RoleProfessional, types.RoleMentor)
	reviewer := RequireRoles(userService, types.RoleManager)

	r.With(authMiddleware, member).Post("/", handler.Submit)
	r.With(authMiddleware, WithPrincipal(userService)).Get("/me", handler.MyStatus)

	r.With(authMiddleware, reviewer).Get("/pending", handler.ListPending)
	r.Route("/{requestID}", func(r chi.Router) {
		r.With(authMiddleware, reviewer).Post("/review", handler.Review)
		r.With(authMiddleware, reviewer).Get("/document", handler.GetDocument)
	})
}

// Submit opens a verification request on one track. Student-track
// submissions carry a supporting document in the multipart form.
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	track := types.VerificationTrack(strings.TrimSpace(r.FormValue(formFieldTrack)))
	if !track.Valid() {
		writeError(w, http.StatusBadRequest, "track must be student or mentor")
		return
	}

	var metadata map[string]string
	if raw := strings.TrimSpace(r.FormValue(formFieldMetadata)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			writeError(w, http.StatusBadRequest, "invalid metadata")
			return
		}
	}

	documentKey, err := h.storeDocument(r, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.verificationService.Submit(r.Context(), userID, track, documentKey, metadata)
	if err != nil {
		if documentKey != "" {
			_ = h.storage.Delete(r.Context(), documentKey)
		}
		switch {
		case errors.Is(err, services.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// MyStatus returns the caller's derived verification state and request
// history.
func (h *VerificationHandler) MyStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, history, err := h.verificationService.StatusFor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load verification status")
		return
	}

	writeJSON(w, http.StatusOK, VerificationStatusResponse{State: state, History: history})
}

// ListPending returns the review queue, oldest first.
func (h *VerificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.verificationService.ListPending(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	writeJSON(w, http.StatusOK, VerificationListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// Review decides a pending request.
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	requestID, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reviewerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Approve == nil {
		writeError(w, http.StatusBadRequest, "approve is required")
		return
	}
	if !*req.Approve && strings.TrimSpace(req.Comment) == "" {
		writeError(w, http.StatusBadRequest, "a comment is required when rejecting")
		return
	}

	request, err := h.verificationService.Review(r.Context(), requestID, *req.Approve, reviewerID, strings.TrimSpace(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to review request")
		}
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// GetDocument streams the supporting document of a request for review.
func (h *VerificationHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	requestID, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.verificationService.Get(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "request not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch request")
		return
	}
	if request.DocumentKey == "" {
		writeError(w, http.StatusNotFound, "request has no document")
		return
	}

	object, contentType, err := h.storage.Get(r.Context(), request.DocumentKey)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	defer object.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, object)
}

func (h *VerificationHandler) storeDocument(r *http.Request, userID int) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	files := r.MultipartForm.File[formFieldDocument]
	if len(files) == 0 {
		return "", nil
	}
	if len(files) > 1 {
		return "", errors.New("only one document is allowed")
	}

	header := files[0]
	if header.Size > maxDocumentBytes {
		return "", errors.New("document too large")
	}

	file, err := header.Open()
	if err != nil {
		return "", errors.New("failed to read document")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key := documentKey(userID, header.Filename)
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		return "", errors.New("failed to store document")
	}
	return key, nil
}

func documentKey(userID int, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("verification/%d/%s%s", userID, uuid.NewString(), ext)
}

// VerificationStatusResponse carries the derived state and the full
// request history.
type VerificationStatusResponse struct {
	State   types.VerificationState     `json:"state"`
	History []types.VerificationRequest `json:"history"`
}

// VerificationListResponse is the paginated review queue payload.
type VerificationListResponse struct {
	Items []types.VerificationRequest `json:"items"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
	Total int                         `json:"total"`
}

type ReviewRequest struct {
	Approve *bool  `json:"approve"`
	Comment string `json:"comment"`
}
