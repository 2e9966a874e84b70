package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/service/klarna"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/json"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/logger"
)

// SessionService is the session orchestration surface this handler fronts.
type SessionService interface {
	TransactionInitializeSession(ctx context.Context, event *saleor.TransactionEvent) (*klarna.SessionResponse, error)
}

// ErrorResponse is the error body returned to the webhook dispatcher.
type ErrorResponse struct {
	Message string `json:"message"`
	Errors  []any  `json:"errors,omitempty"`
}

// TransactionInitializeSessionHandler handles the platform's
// TRANSACTION_INITIALIZE_SESSION webhook. The envelope arrives already
// authenticated; this handler decodes the event, runs one session and writes
// the platform's expected response shape.
func TransactionInitializeSessionHandler(log *zap.Logger, sessions SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var event saleor.TransactionEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			log.Error("Failed to decode transaction event", zap.Error(err))
			writeError(w, http.StatusBadRequest, ErrorResponse{Message: "invalid JSON"})
			return
		}

		ctx := logger.WithCorrelationID(r.Context(), uuid.NewString())
		response, err := sessions.TransactionInitializeSession(ctx, &event)
		if err != nil {
			status, body := mapSessionError(err)
			writeError(w, status, body)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error("Failed to encode session response", zap.Error(err))
		}
	}
}

// mapSessionError translates the session error taxonomy onto HTTP statuses:
// malformed events and missing preconditions are the caller's fault, provider
// rejections are a bad gateway, configuration problems are ours.
func mapSessionError(err error) (int, ErrorResponse) {
	var httpErr *errors.HTTPClientError
	if stderrors.As(err, &httpErr) {
		return http.StatusBadGateway, ErrorResponse{Message: httpErr.StatusText, Errors: httpErr.Errors}
	}
	if errors.IsAny(err, errors.ErrInvariantViolation, errors.ErrMissingCountry, errors.ErrUnsupportedCurrency) {
		return http.StatusBadRequest, ErrorResponse{Message: err.Error()}
	}
	if errors.IsAny(err, errors.ErrConfigurationMissing, errors.ErrConfigurationInvalid) {
		return http.StatusInternalServerError, ErrorResponse{Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Message: "internal error"}
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
