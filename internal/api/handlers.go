package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/delivery"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// classifyError maps an operation error onto a status and error code
func classifyError(err error) (int, *apiError) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &apiError{Code: "validation_error", Message: verr.Error(), Details: verr.Issues}
	case errors.Is(err, catalog.ErrUnknownLanguage):
		return http.StatusBadRequest, &apiError{Code: "unknown_language", Message: err.Error()}
	case errors.Is(err, delivery.ErrDeliveryFailed):
		return http.StatusBadGateway, &apiError{Code: "delivery_failed", Message: err.Error()}
	default:
		return http.StatusInternalServerError, &apiError{Code: "internal_error", Message: "internal server error"}
	}
}

// respondOperationError writes err; details, when set, replaces the error's own details
func respondOperationError(w http.ResponseWriter, r *http.Request, op string, err error, details any) {
	status, apiErr := classifyError(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err, "request_id", requestID(r))
	}
	if details != nil {
		apiErr.Details = details
	}
	respondErrorDetails(w, status, apiErr.Code, apiErr.Message, apiErr.Details)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// requestLanguage fills an empty body language from the negotiated one
func requestLanguage(r *http.Request, lang string) string {
	if strings.TrimSpace(lang) != "" {
		return lang
	}
	return string(LanguageFromContext(r.Context()))
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	readiness := s.registry.Readiness(r.Context())

	if !readiness.Ready {
		for _, name := range readiness.Failed() {
			slog.Warn("readiness check failed", "provider", name, "error", readiness.Checks[name].Error)
		}
		respondErrorDetails(w, http.StatusServiceUnavailable, "not_ready", "service not ready", readiness.Checks)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": readiness.Checks,
	})
}

// Assessment handlers

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Language = requestLanguage(r, req.Language)

	result, err := s.delivery.Submit(r.Context(), req)
	if err != nil {
		var details any
		if result != nil {
			details = result.Deliveries
		}
		respondOperationError(w, r, "submit assessment", err, details)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Language = requestLanguage(r, req.Language)

	artifact, err := s.delivery.GenerateReport(r.Context(), req)
	if err != nil {
		respondOperationError(w, r, "generate report", err, nil)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Debug("failed to write report", "error", err, "request_id", requestID(r))
	}
}

func (s *Server) handleBookConsultation(w http.ResponseWriter, r *http.Request) {
	var req models.Consultation
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.delivery.BookConsultation(r.Context(), req)
	if err != nil {
		var details any
		if result != nil {
			details = result.Deliveries
		}
		respondOperationError(w, r, "book consultation", err, details)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
