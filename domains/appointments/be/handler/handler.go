package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/domains/appointments/be/service"
	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	platformlogging "github.com/fixbay/fixbay-backend/platform/go/logging"
)

// Handler wires the appointments service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("appointments service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the appointment endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/appointments", h.book)
	r.Get("/appointments", h.list)
	r.Get("/appointments/{appointmentID}", h.get)
	r.Delete("/appointments/{appointmentID}", h.cancel)
}

type bookRequest struct {
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	VehiclePlate string     `json:"vehiclePlate"`
	TechnicianID string     `json:"technicianId"`
	StartsAt     time.Time  `json:"startsAt"`
	EndsAt       time.Time  `json:"endsAt"`
	Notes        *string    `json:"notes,omitempty"`
}

type appointmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	VehiclePlate string     `json:"vehiclePlate"`
	TechnicianID string     `json:"technicianId"`
	StartsAt     time.Time  `json:"startsAt"`
	EndsAt       time.Time  `json:"endsAt"`
	Status       string     `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type validationResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  service.FieldErrors `json:"fields,omitempty"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var body bookRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Code:    "invalid_body",
			Message: "request body must be valid JSON",
		})
		return
	}

	booked, err := h.svc.Book(r.Context(), service.BookInput{
		CustomerID:   body.CustomerID,
		VehiclePlate: body.VehiclePlate,
		TechnicianID: body.TechnicianID,
		StartsAt:     body.StartsAt,
		EndsAt:       body.EndsAt,
		Notes:        body.Notes,
	})
	if err != nil {
		h.writeError(w, r, err, "appointmentsBook")
		return
	}

	w.Header().Set("Location", "/api/v1/appointments/"+booked.ID.String())
	writeJSON(w, http.StatusCreated, toResponse(booked))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, "appointmentsGet")
		return
	}

	found, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "appointmentsGet")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(found))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	input, err := parseListInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Code:    "invalid_query",
			Message: err.Error(),
		})
		return
	}

	appointments, err := h.svc.List(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, "appointmentsList")
		return
	}

	items := make([]appointmentResponse, 0, len(appointments))
	for _, appointment := range appointments {
		items = append(items, toResponse(appointment))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, "appointmentsCancel")
		return
	}

	cancelled, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "appointmentsCancel")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cancelled))
}

// parseListInput reads either a single `date` (one calendar day, UTC) or
// an explicit `from`/`to` RFC 3339 pair.
func parseListInput(r *http.Request) (service.ListInput, error) {
	query := r.URL.Query()

	if date := query.Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return service.ListInput{}, errors.New("date must be formatted YYYY-MM-DD")
		}
		return service.ListInput{From: day}, nil
	}

	rawFrom := query.Get("from")
	if rawFrom == "" {
		return service.ListInput{}, errors.New("either date or from is required")
	}
	from, err := time.Parse(time.RFC3339, rawFrom)
	if err != nil {
		return service.ListInput{}, errors.New("from must be an RFC 3339 timestamp")
	}

	input := service.ListInput{From: from}
	if rawTo := query.Get("to"); rawTo != "" {
		to, err := time.Parse(time.RFC3339, rawTo)
		if err != nil {
			return service.ListInput{}, errors.New("to must be an RFC 3339 timestamp")
		}
		input.To = to
	}
	return input, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger := h.loggerFrom(r)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected", zap.String("operation", op), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Code:    "validation_failed",
			Message: "one or more fields are invalid",
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		logger.Info("appointment not found", zap.String("operation", op))
		writeJSON(w, http.StatusNotFound, validationResponse{
			Code:    "not_found",
			Message: "appointment not found",
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

func toResponse(appointment service.Appointment) appointmentResponse {
	return appointmentResponse(appointment)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
