/**
 * @description
 * This file contains the HTTP handlers for the payment-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/bryzn-microservice-project/payment-service/internal/app"
	"github.com/bryzn-microservice-project/payment-service/internal/domain"
	"github.com/bryzn-microservice-project/payment-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentService is the slice of the application service the handlers need.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.Payment, domain.PaymentStatus, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	ListPayments(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error)
	DeletePayment(ctx context.Context, paymentID uuid.UUID) error
}

// PaymentHandlers holds the application service that handlers will use.
type PaymentHandlers struct {
	service PaymentService
}

// NewPaymentHandlers creates a new instance of PaymentHandlers.
func NewPaymentHandlers(service PaymentService) *PaymentHandlers {
	return &PaymentHandlers{service: service}
}

// ProcessTopicHandler is the payment entry point. It accepts a PaymentRequest
// topic message, runs the orchestration, and answers with a PaymentResponse
// on commit or a plain error string with status 500 when the store rejected
// the record. The correlation id is echoed unchanged on every path.
func (h *PaymentHandlers) ProcessTopicHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	if req.TopicName != "" && req.TopicName != "PaymentRequest" {
		h.writeError(w, http.StatusBadRequest, "Unsupported topic: "+req.TopicName)
		return
	}

	record, status, err := h.service.ProcessPayment(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidPaymentAmount), errors.Is(err, app.ErrMissingEmail):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrRateLimited):
			h.writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			log.Printf("level=error component=api endpoint=process_topic outcome=failed correlation_id=%d err=%v", req.CorrelationID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not process payment.")
		}
		return
	}

	if status == domain.StatusFailed || record == nil {
		// The store returned no identifier. Plain error string by contract.
		http.Error(w, "Internal Error: failed to process PaymentRequest", http.StatusInternalServerError)
		return
	}

	response := domain.PaymentResponse{
		TopicName:     "PaymentResponse",
		PaymentAmount: req.PaymentAmount,
		Email:         req.Email,
		CreditCard:    req.CreditCard,
		CorrelationID: req.CorrelationID,
		Status:        status,
	}
	h.writeJSON(w, http.StatusOK, response)
}

// ListPaymentsHandler lists persisted payments, optionally filtered by email.
func (h *PaymentHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)

	payments, err := h.service.ListPayments(r.Context(), email, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_payments outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not retrieve payments.")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	h.writeJSON(w, http.StatusOK, payments)
}

// GetPaymentByIDHandler fetches a single payment record by its ID.
func (h *PaymentHandlers) GetPaymentByIDHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	payment, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Payment not found.")
			return
		}
		log.Printf("level=error component=api endpoint=get_payment outcome=failed payment_id=%s err=%v", paymentID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not retrieve payment.")
		return
	}

	h.writeJSON(w, http.StatusOK, payment)
}

// DeletePaymentHandler removes a payment record by its ID.
func (h *PaymentHandlers) DeletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	if err := h.service.DeletePayment(r.Context(), paymentID); err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Payment not found.")
			return
		}
		log.Printf("level=error component=api endpoint=delete_payment outcome=failed payment_id=%s err=%v", paymentID, err)
		h.writeError(w, http.StatusInternalServerError, "Could not delete payment.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// writeJSON is a helper for writing JSON responses.
func (h *PaymentHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *PaymentHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
