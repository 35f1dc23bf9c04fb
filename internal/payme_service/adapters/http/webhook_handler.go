package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chi_middleware "github.com/go-chi/chi/v5/middleware" // For GetReqID
	"github.com/go-playground/validator/v10"

	"github.com/uzshop/payme-merchant/internal/payme_service/app"
	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
	"github.com/uzshop/payme-merchant/internal/payme_service/repository"
)

const MaxRequestBodySize = 1 << 20 // 1 MB

// WebhookRoute is the endpoint path registered for the gateway in the Payme
// business cabinet.
const WebhookRoute = "/payments/payme/webhook"

// PaymeDispatcher is the application-service surface the handler routes to.
// An interface so tests can substitute a mock.
type PaymeDispatcher interface {
	CheckPerformTransaction(ctx context.Context, params app.Params) (*app.CheckPerformTransactionResult, error)
	CreateTransaction(ctx context.Context, params app.Params) (*app.CreateTransactionResult, error)
	PerformTransaction(ctx context.Context, params app.Params) (*app.PerformTransactionResult, error)
	CancelTransaction(ctx context.Context, params app.Params) (*app.CancelTransactionResult, error)
	CheckTransaction(ctx context.Context, params app.Params) (*app.CheckTransactionResult, error)
	GetStatement(ctx context.Context, params app.Params) (*app.GetStatementResult, error)
}

// Authorizer validates the Authorization header of a webhook call.
type Authorizer interface {
	Authorize(header string) error
}

type WebhookHandler struct {
	service  PaymeDispatcher
	auth     Authorizer
	validate *validator.Validate
	logger   *slog.Logger
}

func NewWebhookHandler(service PaymeDispatcher, auth Authorizer, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:  service,
		auth:     auth,
		validate: validator.New(),
		logger:   logger.With("component", "payme_webhook_handler"),
	}
}

// HandleWebhook receives a Payme merchant API call, authenticates it, routes
// the method to its handler and serializes the protocol response. Every
// failure becomes a protocol error object; only authentication failures also
// get a non-200 status.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)
	start := time.Now()

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "Method not allowed for webhook", "method", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Authentication short-circuits before the envelope is even parsed.
	if err := h.auth.Authorize(r.Header.Get("Authorization")); err != nil {
		logger.WarnContext(ctx, "Webhook authentication failed", "remote_addr", r.RemoteAddr)
		perr := translateProtocolError(err)
		h.writeResponse(ctx, w, http.StatusUnauthorized, WebhookResponse{Error: &ErrorObject{Code: perr.Code, Message: perr.Message}})
		webhookRequestsCounter.WithLabelValues("unauthenticated", "error").Inc()
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var envelope WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		logger.ErrorContext(ctx, "Failed to decode webhook envelope", "error", err)
		h.writeResponse(ctx, w, http.StatusOK, WebhookResponse{Error: &ErrorObject{
			Code: domain.CodeInternalServiceError, Message: "Error processing webhook: malformed request body",
		}})
		webhookRequestsCounter.WithLabelValues("malformed", "error").Inc()
		return
	}
	if err := h.validate.Struct(&envelope); err != nil {
		logger.ErrorContext(ctx, "Webhook envelope missing method or params", "error", err)
		h.writeResponse(ctx, w, http.StatusOK, WebhookResponse{ID: envelope.ID, Error: &ErrorObject{
			Code: domain.CodeInternalServiceError, Message: "Error processing webhook: method and params are required",
		}})
		webhookRequestsCounter.WithLabelValues("malformed", "error").Inc()
		return
	}

	var params app.Params
	if err := json.Unmarshal(envelope.Params, &params); err != nil {
		logger.ErrorContext(ctx, "Failed to decode webhook params", "method", envelope.Method, "error", err)
		h.writeResponse(ctx, w, http.StatusOK, WebhookResponse{ID: envelope.ID, Error: &ErrorObject{
			Code: domain.CodeInternalServiceError, Message: "Invalid parameters received.",
		}})
		webhookRequestsCounter.WithLabelValues("malformed", "error").Inc()
		return
	}

	methodLabel := envelope.Method
	var result any
	var err error
	switch envelope.Method {
	case "CheckPerformTransaction":
		result, err = h.service.CheckPerformTransaction(ctx, params)
	case "CreateTransaction":
		result, err = h.service.CreateTransaction(ctx, params)
	case "PerformTransaction":
		result, err = h.service.PerformTransaction(ctx, params)
	case "CancelTransaction":
		result, err = h.service.CancelTransaction(ctx, params)
	case "CheckTransaction":
		result, err = h.service.CheckTransaction(ctx, params)
	case "GetStatement":
		result, err = h.service.GetStatement(ctx, params)
	default:
		methodLabel = "unknown"
		err = domain.NewMethodNotFound("Method not supported yet!")
	}

	webhookDurationHist.WithLabelValues(methodLabel).Observe(time.Since(start).Seconds())

	if err != nil {
		perr := h.mapHandlerError(ctx, logger, envelope.Method, params, err)
		h.writeResponse(ctx, w, http.StatusOK, WebhookResponse{ID: envelope.ID, Error: &ErrorObject{Code: perr.Code, Message: perr.Message}})
		webhookRequestsCounter.WithLabelValues(methodLabel, "error").Inc()
		return
	}

	h.writeResponse(ctx, w, http.StatusOK, WebhookResponse{ID: envelope.ID, Result: result})
	webhookRequestsCounter.WithLabelValues(methodLabel, "success").Inc()
}

// mapHandlerError is the uniform error-translation boundary: protocol errors
// pass through, repository misses become AccountDoesNotExist, anything else
// is logged with full context and reduced to a generic internal error.
func (h *WebhookHandler) mapHandlerError(ctx context.Context, logger *slog.Logger, method string, params app.Params, err error) *domain.ProtocolError {
	var perr *domain.ProtocolError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, repository.ErrTransactionNotFound) {
		logger.ErrorContext(ctx, "Transaction does not exist", "method", method, "transaction_id", params.ID)
		return domain.NewAccountDoesNotExist("Transaction does not exist")
	}
	logger.ErrorContext(ctx, "Unexpected error processing webhook",
		"method", method, "params", params, "error", err)
	return domain.NewInternalServiceError("Internal service error")
}

func (h *WebhookHandler) writeResponse(ctx context.Context, w http.ResponseWriter, status int, resp WebhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WarnContext(ctx, "Failed to write webhook response", "error", err)
	}
}

func translateProtocolError(err error) *domain.ProtocolError {
	var perr *domain.ProtocolError
	if errors.As(err, &perr) {
		return perr
	}
	return domain.NewPermissionDenied("Permission denied")
}
