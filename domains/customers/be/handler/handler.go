package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/domains/customers/be/service"
	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	platformauth "github.com/fixbay/fixbay-backend/platform/go/auth"
	platformlogging "github.com/fixbay/fixbay-backend/platform/go/logging"
)

// Handler wires the customers service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("customers service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the customer endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/customers", h.create)
	r.Get("/customers", h.list)
	r.Get("/customers/me", h.me)
	r.Get("/customers/{customerID}", h.get)
}

type createRequest struct {
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone,omitempty"`
}

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
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

	input := service.CreateInput{
		Email:    body.Email,
		FullName: body.FullName,
		Phone:    body.Phone,
	}
	// A customer registering themselves gets linked to their identity.
	if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil && creds.ID != "" {
		input.AuthSubject = &creds.ID
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, "customersCreate")
		return
	}

	w.Header().Set("Location", "/api/v1/customers/"+created.ID.String())
	writeJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, "customersGet")
		return
	}

	found, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "customersGet")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(found))
}

// me resolves the caller's own profile by joining the authenticated
// subject with the request tenant scope.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	creds, ok := platformauth.UserFromContext(r.Context())
	if !ok || creds == nil || creds.ID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Code:    "unauthorized",
			Message: "authentication required",
		})
		return
	}

	found, err := h.svc.GetSelf(r.Context(), creds.ID)
	if err != nil {
		h.writeError(w, r, err, "customersMe")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(found))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "customersList")
		return
	}

	items := make([]customerResponse, 0, len(customers))
	for _, customer := range customers {
		items = append(items, toResponse(customer))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
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
		logger.Info("customer not found", zap.String("operation", op))
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    "not_found",
			Message: "customer not found",
		})
	case errors.Is(err, service.ErrConflict):
		logger.Warn("customer conflict", zap.String("operation", op))
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "conflict",
			Message: "customer email already registered",
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

func toResponse(customer service.Customer) customerResponse {
	return customerResponse(customer)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
