// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/admission"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/log"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/notify"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/service"
)

// EventHandler holds all HTTP handlers for the seminar registration API.
type EventHandler struct {
	events     *service.EventService
	ledger     *service.Ledger
	identity   IdentityProvider
	translator notify.Translator
	now        func() time.Time
}

// NewEventHandler constructs an EventHandler. A nil clock means time.Now.
func NewEventHandler(events *service.EventService, ledger *service.Ledger, identity IdentityProvider, translator notify.Translator, now func() time.Time) *EventHandler {
	if now == nil {
		now = time.Now
	}
	return &EventHandler{
		events:     events,
		ledger:     ledger,
		identity:   identity,
		translator: translator,
		now:        now,
	}
}

// rejectionResponse is the 409 body of a refused registration.
type rejectionResponse struct {
	model.ErrorResponse
	Missing []model.TopicRef `json:"missing,omitempty"`
}

// decisionResponse is the body of a dry-run decision.
type decisionResponse struct {
	model.AdmissionResult
	Message string `json:"message"`
}

type decisionRequest struct {
	Seats int `json:"seats"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *EventHandler) registrant(w http.ResponseWriter, r *http.Request) (model.Registrant, bool) {
	registrant, err := h.identity.Identify(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return model.Registrant{}, false
	}
	return registrant, true
}

// writeServiceError maps service and repository errors onto HTTP statuses.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var rejected *service.AdmissionRejectedError
	switch {
	case errors.As(err, &rejected):
		res := rejected.Result
		writeJSON(w, http.StatusConflict, rejectionResponse{
			ErrorResponse: model.ErrorResponse{
				Error:      h.translator.Text(res.MessageKey),
				Reason:     res.Reason,
				MessageKey: res.MessageKey,
			},
			Missing: res.Missing,
		})
	// unknown topics and requirements wrap both, and are bad input
	case errors.Is(err, service.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:     "the event changed concurrently, please retry",
			Retryable: true,
		})
	default:
		logger := log.WithContext(r.Context(), log.WithComponent("http"))
		logger.Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /events/{id}
// Returns the event together with its vacancies.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.events.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// MissingRequirements handles GET /events/{id}/requirements
// Lists the required topics the caller has not attended.
func (h *EventHandler) MissingRequirements(w http.ResponseWriter, r *http.Request) {
	registrant, ok := h.registrant(w, r)
	if !ok {
		return
	}
	missing, err := h.events.MissingRequirements(r.Context(), chi.URLParam(r, "id"), registrant.ID)
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}
	if missing == nil {
		missing = []model.TopicRef{}
	}
	writeJSON(w, http.StatusOK, missing)
}

// Decide handles POST /events/{id}/decision
// Evaluates a registration for the caller without committing it.
func (h *EventHandler) Decide(w http.ResponseWriter, r *http.Request) {
	registrant, ok := h.registrant(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.ledger.Decide(r.Context(), chi.URLParam(r, "id"), registrant, req.Seats)
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{
		AdmissionResult: res,
		Message:         h.translator.Text(res.MessageKey),
	})
}

// Register handles POST /events/{id}/registrations
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	registrant, ok := h.registrant(w, r)
	if !ok {
		return
	}
	var req model.RegisterRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.ledger.Register(r.Context(), chi.URLParam(r, "id"), registrant, req)
	if err != nil {
		h.writeServiceError(w, r, err, "event not found")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// GetRegistration handles GET /registrations/{id}
func (h *EventHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.events.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "registration not found")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// Unregister handles DELETE /registrations/{id}
// Only the registrant may remove a registration, and only while the event
// still allows unregistration. Removing twice succeeds.
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	registrant, ok := h.registrant(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	reg, err := h.events.GetRegistration(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "registration not found")
		return
	}
	if reg.RegistrantID != registrant.ID {
		writeError(w, http.StatusForbidden, "registration belongs to another registrant")
		return
	}
	if reg.IsActive() {
		event, err := h.events.GetEvent(r.Context(), reg.EventID)
		if err != nil {
			h.writeServiceError(w, r, err, "event not found")
			return
		}
		if !admission.CanUnregister(&event.Event, h.now()) {
			writeJSON(w, http.StatusConflict, model.ErrorResponse{
				Error:      h.translator.Text(admission.MsgUnregistrationClosed),
				Reason:     model.ReasonClosed,
				MessageKey: admission.MsgUnregistrationClosed,
			})
			return
		}
	}

	if err := h.ledger.Unregister(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "registration not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
