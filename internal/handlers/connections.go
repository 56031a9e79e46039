package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// ConnectionHandler provides connection and mentorship endpoints.
type ConnectionHandler struct {
	connectionService *services.ConnectionService
}

// NewConnectionHandler constructs a handler with the provided service.
func NewConnectionHandler(connectionService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// ConnectionRouter registers connection routes on the given router.
func ConnectionRouter(
	r chi.Router,
	connectionService *services.ConnectionService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewConnectionHandler(connectionService)

	r.Use(authMiddleware, WithPrincipal(userService))

	r.Get("/", handler.ListConnections)
	r.Post("/", handler.RequestConnection)
	r.Post("/{connectionID}/respond", handler.Respond)
}

func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := types.ConnectionStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", types.ConnectionPending, types.ConnectionAccepted, types.ConnectionDeclined:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	connections, err := h.connectionService.ListForUser(r.Context(), userID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}

	writeJSON(w, http.StatusOK, ConnectionListResponse{Items: connections})
}

// RequestConnection opens a connection or mentorship request to another
// member.
func (h *ConnectionHandler) RequestConnection(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.AddresseeID < 1 {
		writeError(w, http.StatusBadRequest, "addressee_id is required")
		return
	}

	kind := types.ConnectionKind(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = types.KindConnection
	}

	connection, err := h.connectionService.Request(r.Context(), userID, req.AddresseeID, kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "addressee not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, connection)
}

// Respond accepts or declines a pending request. Only the addressee may
// respond.
func (h *ConnectionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	connectionID, err := parseIDParam(r, "connectionID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Accept == nil {
		writeError(w, http.StatusBadRequest, "accept is required")
		return
	}

	connection, err := h.connectionService.Respond(r.Context(), userID, connectionID, *req.Accept)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "connection not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "only the addressee can respond")
		case errors.Is(err, services.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to respond")
		}
		return
	}

	writeJSON(w, http.StatusOK, connection)
}

type ConnectionRequest struct {
	AddresseeID int    `json:"addressee_id"`
	Kind        string `json:"kind"`
}

type RespondRequest struct {
	Accept *bool `json:"accept"`
}

// ConnectionListResponse lists the caller's connections.
type ConnectionListResponse struct {
	Items []types.Connection `json:"items"`
}
