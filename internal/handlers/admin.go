package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// AdminHandler provides staff account management endpoints.
type AdminHandler struct {
	userService         *services.UserService
	verificationService *services.VerificationService
}

// NewAdminHandler constructs a handler with the provided dependencies.
func NewAdminHandler(userService *services.UserService, verificationService *services.VerificationService) *AdminHandler {
	return &AdminHandler{userService: userService, verificationService: verificationService}
}

// AdminRouter registers staff routes on the given router. Listing
// accounts takes the moderator tier, deactivation the manager tier, and
// role changes the admin tier.
func AdminRouter(
	r chi.Router,
	userService *services.UserService,
	verificationService *services.VerificationService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAdminHandler(userService, verificationService)

	moderator := RequireRoles(userService, types.RoleModerator)
	manager := RequireRoles(userService, types.RoleManager)
	admin := RequireRoles(userService, types.RoleAdmin)

	r.With(authMiddleware, moderator).Get("/users", handler.ListUsers)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.With(authMiddleware, admin).Put("/roles", handler.SetRoles)
		r.With(authMiddleware, manager).Put("/active", handler.SetActive)
		r.With(authMiddleware, manager).Post("/reconcile", handler.ReconcileUser)
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.userService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// SetRoles replaces a member's role set.
func (h *AdminHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	for _, role := range req.Roles {
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role "+string(role))
			return
		}
	}

	if err := h.userService.SetRoles(r.Context(), userID, req.Roles); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to set roles")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetActive deactivates or reactivates an account. Staff cannot
// deactivate themselves.
func (h *AdminHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actorID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if actorID == userID {
		writeError(w, http.StatusBadRequest, "cannot change your own account state")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}

	if err := h.userService.SetActive(r.Context(), userID, *req.Active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReconcileUser recomputes a member's derived verification fields from
// the request history. Used by support when a snapshot looks stale.
func (h *AdminHandler) ReconcileUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.verificationService.Reconcile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reconcile user")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

type SetRolesRequest struct {
	Roles []types.Role `json:"roles"`
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// UserListResponse is the paginated account listing payload.
type UserListResponse struct {
	Items []types.User `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}
