package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/domains/tenants/be/service"
	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	platformlogging "github.com/fixbay/fixbay-backend/platform/go/logging"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Handler wires the tenants service to HTTP. These routes are
// platform-level: they are mounted behind an admin role guard and outside
// the tenant-required route class.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the tenant registry endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tenants", h.create)
	r.Get("/tenants", h.list)
	r.Get("/tenants/{tenantID}", h.get)
	r.Post("/tenants/{tenantID}/suspend", h.suspend)
	r.Post("/tenants/{tenantID}/activate", h.activate)
}

type createRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type tenantResponse struct {
	ID          tenant.ID `json:"id"`
	DisplayName string    `json:"displayName"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  service.FieldErrors `json:"fields,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "invalid_body",
			Message: "request body must be valid JSON",
		})
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		ID:          body.ID,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		h.writeError(w, r, err, "tenantsCreate")
		return
	}

	w.Header().Set("Location", "/api/v1/admin/tenants/"+created.ID.String())
	writeJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, r, err, "tenantsGet")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(found))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "tenantsList")
		return
	}

	items := make([]tenantResponse, 0, len(tenants))
	for _, record := range tenants {
		items = append(items, toResponse(record))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Suspend(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, r, err, "tenantsSuspend")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.Activate(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.writeError(w, r, err, "tenantsActivate")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger := h.loggerFrom(r)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected", zap.String("operation", op), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: "one or more fields are invalid",
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		logger.Info("tenant not found", zap.String("operation", op))
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    "not_found",
			Message: "tenant not found",
		})
	case errors.Is(err, service.ErrConflict):
		logger.Warn("tenant conflict", zap.String("operation", op))
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "conflict",
			Message: "tenant already registered",
		})
	default:
		logger.Warn("operation failed", zap.String("operation", op), zap.Error(err))
		apperr.Write(w, err)
	}
}

func (h *Handler) loggerFrom(r *http.Request) *zap.Logger {
	if logger, ok := platformlogging.FromContext(r.Context()); ok {
		return logger
	}
	return h.logger
}

func toResponse(record service.Tenant) tenantResponse {
	return tenantResponse(record)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
