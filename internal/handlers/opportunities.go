package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/authz"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/services"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// OpportunityHandler provides opportunity board endpoints.
type OpportunityHandler struct {
	opportunityService *services.OpportunityService
}

// NewOpportunityHandler constructs a handler with the provided service.
func NewOpportunityHandler(opportunityService *services.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{opportunityService: opportunityService}
}

// OpportunityRouter registers board routes on the given router. Listings
// are publicly readable; creating one takes a professional, mentor, or
// staff account, and updates are owner-or-staff.
func OpportunityRouter(
	r chi.Router,
	opportunityService *services.OpportunityService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewOpportunityHandler(opportunityService)
	member := WithPrincipal(userService)
	poster := RequireRoles(userService, types.RoleProfessional, types.RoleMentor, types.RoleModerator)

	r.Get("/", handler.ListOpportunities)
	r.With(authMiddleware, poster).Post("/", handler.CreateOpportunity)
	r.Route("/{opportunityID}", func(r chi.Router) {
		r.Get("/", handler.GetOpportunity)
		r.With(authMiddleware, member).Put("/", handler.UpdateOpportunity)
		r.With(authMiddleware, member).Delete("/", handler.DeleteOpportunity)
	})
}

func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.OpportunityFilter{
		Region:   strings.TrimSpace(r.URL.Query().Get("region")),
		OpenOnly: strings.TrimSpace(r.URL.Query().Get("include_closed")) == "",
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		kind := types.OpportunityKind(raw)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "invalid kind filter")
			return
		}
		filter.Kind = kind
	}

	items, total, err := h.opportunityService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	writeJSON(w, http.StatusOK, OpportunityListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *OpportunityHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "opportunityID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunity, err := h.opportunityService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "opportunity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch opportunity")
		return
	}

	writeJSON(w, http.StatusOK, opportunity)
}

func (h *OpportunityHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req OpportunityUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.opportunityService.Create(r.Context(), types.Opportunity{
		PostedBy:    userID,
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		Region:      strings.TrimSpace(req.Region),
		Kind:        types.OpportunityKind(strings.TrimSpace(req.Kind)),
		Description: strings.TrimSpace(req.Description),
		ApplyURL:    strings.TrimSpace(req.ApplyURL),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *OpportunityHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "opportunityID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req OpportunityUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	isOpen := true
	if req.IsOpen != nil {
		isOpen = *req.IsOpen
	}

	updated, err := h.opportunityService.Update(r.Context(), userID, types.Opportunity{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		Region:      strings.TrimSpace(req.Region),
		Kind:        types.OpportunityKind(strings.TrimSpace(req.Kind)),
		Description: strings.TrimSpace(req.Description),
		ApplyURL:    strings.TrimSpace(req.ApplyURL),
		IsOpen:      isOpen,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "opportunity not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "not the listing author")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *OpportunityHandler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "opportunityID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	override := false
	if principal := principalFromContext(r.Context()); principal != nil {
		override = authz.HasRole(*principal, types.RoleModerator)
	}

	if err := h.opportunityService.Delete(r.Context(), userID, id, override); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "opportunity not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "not the listing author")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete opportunity")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type OpportunityUpsertRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Region      string `json:"region"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	ApplyURL    string `json:"apply_url"`
	IsOpen      *bool  `json:"is_open"`
}

// OpportunityListResponse is the paginated board payload.
type OpportunityListResponse struct {
	Items []types.Opportunity `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
}
