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

// MessageHandler provides direct messaging endpoints.
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler constructs a handler with the provided service.
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRouter registers messaging routes on the given router.
func MessageRouter(
	r chi.Router,
	messageService *services.MessageService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewMessageHandler(messageService)

	r.Use(authMiddleware, WithPrincipal(userService))

	r.Get("/conversations", handler.ListConversations)
	r.Get("/conversations/{conversationID}/messages", handler.ListMessages)
	r.Post("/", handler.Send)
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conversations, err := h.messageService.ListConversations(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, ConversationListResponse{Items: conversations})
}

// ListMessages returns a page of the thread, newest first, and marks the
// counterpart's messages read.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conversationID, err := parseIDParam(r, "conversationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, total, err := h.messageService.ListMessages(r.Context(), userID, conversationID, offset, limit)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		case errors.Is(err, services.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "not a conversation participant")
		default:
			writeError(w, http.StatusInternalServerError, "failed to list messages")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageListResponse{
		Items: messages,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// Send delivers a direct message, opening the conversation on first
// contact.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.RecipientID < 1 {
		writeError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}

	message, err := h.messageService.Send(r.Context(), userID, req.RecipientID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotConnected):
			writeError(w, http.StatusForbidden, "users are not connected")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipient not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

type SendMessageRequest struct {
	RecipientID int    `json:"recipient_id"`
	Body        string `json:"body"`
}

// ConversationListResponse lists the caller's threads, most recently
// active first.
type ConversationListResponse struct {
	Items []types.Conversation `json:"items"`
}

// MessageListResponse is the paginated thread payload.
type MessageListResponse struct {
	Items []types.Message `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}
