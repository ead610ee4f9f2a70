package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/enclaveops/enclave-console-backend/attestation"
	"github.com/enclaveops/enclave-console-backend/enclave"
	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/logs"
)

const (
	// maxBodySize is the maximum allowed request body size (64KB). Action
	// bodies are tiny; anything bigger is malformed or hostile.
	maxBodySize = 64 * 1024

	// maxLogLimit caps the limit query parameter.
	maxLogLimit = 1000
)

// Handler processes the console's HTTP requests. It owns no business logic;
// it parses, delegates and maps errors to status codes.
type Handler struct {
	controller  *enclave.Controller
	aggregator  *logs.Aggregator
	attestation *attestation.Service
	log         *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(controller *enclave.Controller, aggregator *logs.Aggregator, attestationSvc *attestation.Service, log *slog.Logger) *Handler {
	return &Handler{
		controller:  controller,
		aggregator:  aggregator,
		attestation: attestationSvc,
		log:         log,
	}
}

// HandleAction executes a lifecycle transition.
//
// Request: POST /api/enclaves/{enclave_id}/action with an ActionRequest body.
// Response: the updated enclave record as JSON.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewEnclaveID(chi.URLParam(r, "enclave_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req ActionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	action, err := interfaces.ParseAction(req.Action)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller, err := interfaces.ParseOwnerAddress(req.Caller)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.controller.RequestTransition(r.Context(), id, action, caller)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if updated.Status.Transitional() {
		w.Header().Set("Retry-After", strconv.Itoa(pollIntervalSeconds))
	}
	h.writeJSON(w, updated)
}

// HandleLogs serves the aggregated log view.
//
// Request: GET /api/enclaves/{enclave_id}/logs?type=all&limit=100
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewEnclaveID(chi.URLParam(r, "enclave_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := interfaces.ParseSourceFilter(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := logs.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if limit > maxLogLimit {
			limit = maxLogLimit
		}
	}

	bundle, err := h.aggregator.FetchLogs(r.Context(), id, filter, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, bundle)
}

// HandlePCRs serves the raw measurement map.
//
// Request: GET /api/enclaves/{enclave_id}/pcrs
func (h *Handler) HandlePCRs(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewEnclaveID(chi.URLParam(r, "enclave_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	measurements, err := h.attestation.ExtractMeasurements(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, measurements)
}

// HandleAttestation serves the composed attestation summary. Enclaves that
// are not DEPLOYED yield 400 with the current status in the body.
//
// Request: GET /api/enclaves/{enclave_id}/attestation
func (h *Handler) HandleAttestation(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.NewEnclaveID(chi.URLParam(r, "enclave_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.attestation.ComposeAttestation(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, summary)
}

// writeError maps the error taxonomy to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *interfaces.ValidationError
		conflictErr    *interfaces.ConflictError
		notDeployedErr *interfaces.NotDeployedError
	)

	switch {
	case errors.Is(err, interfaces.ErrEnclaveNotFound):
		http.Error(w, "Enclave not found", http.StatusNotFound)
	case errors.Is(err, interfaces.ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &validationErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &conflictErr):
		h.writeJSONError(w, http.StatusBadRequest, ErrorResponse{
			Error:  err.Error(),
			Status: conflictErr.Current,
		})
	case errors.As(err, &notDeployedErr):
		h.writeJSONError(w, http.StatusBadRequest, ErrorResponse{
			Error:  err.Error(),
			Status: notDeployedErr.Current,
		})
	default:
		h.log.Error("Request failed", slog.String("path", r.URL.Path), "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode error response", "err", err)
	}
}
