package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rajesharora27/dap-sub001/internal/observability"
	"github.com/rajesharora27/dap-sub001/internal/platform/httpx"
	"github.com/rajesharora27/dap-sub001/internal/shared"
)

// Handler exposes the engine over JSON for the calling user: point
// checks, batch checks, accessible-set queries, and "what can I do"
// level queries.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metrics,
	}
}

// MountRoutes registers the authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check", h.check)
	r.Post("/check-batch", h.checkBatch)
	r.Get("/accessible", h.accessible)
	r.Get("/level", h.level)
}

type checkRequest struct {
	ResourceType string `json:"resourceType" validate:"required,oneof=PRODUCT SOLUTION CUSTOMER"`
	ResourceID   string `json:"resourceId"`
	Level        string `json:"level" validate:"required,oneof=READ WRITE ADMIN"`
}

type checkResponse struct {
	Allowed bool `json:"allowed"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	allowed, err := h.service.CanAccess(r.Context(), ResourceType(req.ResourceType), req.ResourceID, Level(req.Level))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.observe(ResourceType(req.ResourceType), allowed)
	httpx.JSON(w, http.StatusOK, checkResponse{Allowed: allowed})
}

type checkBatchRequest struct {
	ResourceType string   `json:"resourceType" validate:"required,oneof=PRODUCT SOLUTION CUSTOMER"`
	ResourceIDs  []string `json:"resourceIds" validate:"required,min=1,dive,required"`
	Level        string   `json:"level" validate:"required,oneof=READ WRITE ADMIN"`
}

type checkBatchResponse struct {
	Results map[string]bool `json:"results"`
}

func (h *Handler) checkBatch(w http.ResponseWriter, r *http.Request) {
	caller := shared.CallerFromContext(r.Context())
	if caller == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req checkBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	results, err := h.service.CheckResources(r.Context(), caller.UserID, ResourceType(req.ResourceType), req.ResourceIDs, Level(req.Level))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checkBatchResponse{Results: results})
}

type accessibleResponse struct {
	All bool     `json:"all"`
	IDs []string `json:"ids"`
}

func (h *Handler) accessible(w http.ResponseWriter, r *http.Request) {
	caller := shared.CallerFromContext(r.Context())
	if caller == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	rt, ok := ParseResourceType(r.URL.Query().Get("resourceType"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown resource type")
		return
	}
	level, ok := ParseLevel(r.URL.Query().Get("level"))
	if !ok {
		level = LevelRead
	}
	set, err := h.service.AccessibleResources(r.Context(), caller.UserID, rt, level)
	if err != nil {
		h.respondError(w, err)
		return
	}
	resp := accessibleResponse{IDs: []string{}}
	switch set.Kind {
	case AccessAll:
		resp.All = true
	case AccessSome:
		resp.IDs = set.IDs
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type levelResponse struct {
	Level *string `json:"level"`
}

func (h *Handler) level(w http.ResponseWriter, r *http.Request) {
	caller := shared.CallerFromContext(r.Context())
	if caller == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	rt, ok := ParseResourceType(r.URL.Query().Get("resourceType"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown resource type")
		return
	}
	level, found, err := h.service.PermissionLevelFor(r.Context(), caller.UserID, rt, r.URL.Query().Get("resourceId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	var resp levelResponse
	if found {
		value := string(level)
		resp.Level = &value
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &forbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", forbidden.Error())
	default:
		h.logger.Error("authz query", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) observe(rt ResourceType, allowed bool) {
	if h.metrics != nil {
		h.metrics.ObserveDecision(string(rt), allowed)
	}
}
