package klarna

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/service/appconfig"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/logger"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/metrics"
)

// SessionResult is the platform's expected session outcome marker.
type SessionResult string

const (
	ResultAuthorizationActionRequired SessionResult = "AUTHORIZATION_ACTION_REQUIRED"
	ResultChargeActionRequired        SessionResult = "CHARGE_ACTION_REQUIRED"
)

// HppResponse carries the hosted-payment-page redirect for the storefront.
// RedirectURL stays empty until the provider's confirmation flow is read back;
// extension point, not a bug.
type HppResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// SessionResponseData is the data blob the storefront receives.
type SessionResponseData struct {
	KlarnaHppResponse HppResponse `json:"klarnaHppResponse"`
}

// SessionResponse is the platform's transaction-initialize-session response
// shape.
type SessionResponse struct {
	Data         SessionResponseData `json:"data"`
	Result       SessionResult       `json:"result"`
	Actions      []string            `json:"actions"`
	Amount       int64               `json:"amount"`
	PSPReference string              `json:"pspReference,omitempty"`
	Message      string              `json:"message,omitempty"`
	ExternalURL  string              `json:"externalUrl,omitempty"`
}

// ProviderClient is the outbound surface the session handler needs; satisfied
// by *Client and substituted in tests.
type ProviderClient interface {
	CreateCheckoutOrder(ctx context.Context, order *CheckoutOrder) (*CreateCheckoutOrderResponse, error)
	Environment() string
}

// ClientFactory builds a provider client for a channel's credentials.
type ClientFactory func(cfg ClientConfig, log *zap.Logger) ProviderClient

// SessionHandlerOptions carry the process-level inputs of session handling.
type SessionHandlerOptions struct {
	AppBaseURL      string
	SaleorAPIURL    string
	Locale          string
	MerchantURLs    MerchantURLs
	ProviderTimeout time.Duration
}

// SessionHandler orchestrates one transaction-initialize-session invocation:
// resolve configuration, assemble the order, make exactly one provider call,
// translate the outcome. Provider clients are cached per credential set so
// their circuit breakers accumulate failures across invocations.
type SessionHandler struct {
	log       *zap.Logger
	configs   appconfig.Resolver
	opts      SessionHandlerOptions
	newClient ClientFactory

	mu      sync.Mutex
	clients map[string]ProviderClient
}

// NewSessionHandler wires a session handler with the real provider client.
func NewSessionHandler(log *zap.Logger, configs appconfig.Resolver, opts SessionHandlerOptions) *SessionHandler {
	return &SessionHandler{
		log:     log,
		configs: configs,
		opts:    opts,
		newClient: func(cfg ClientConfig, log *zap.Logger) ProviderClient {
			return NewClient(cfg, log)
		},
		clients: make(map[string]ProviderClient),
	}
}

// WithClientFactory overrides the provider client construction. Used by tests.
func (h *SessionHandler) WithClientFactory(factory ClientFactory) *SessionHandler {
	h.newClient = factory
	h.clients = make(map[string]ProviderClient)
	return h
}

// clientFor returns the cached provider client for a credential set, building
// one on first use. Credentials are channel-scoped; a rotated password yields
// a fresh client and breaker.
func (h *SessionHandler) clientFor(cfg ClientConfig) ProviderClient {
	key := cfg.APIURL + "\x00" + cfg.Username + "\x00" + cfg.Password
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[key]; ok {
		return client
	}
	client := h.newClient(cfg, h.log)
	h.clients[key] = client
	return client
}

// TransactionInitializeSession handles one webhook event. Failures bubble up
// whole: a failed mapping never produces a partial payload, and no retries
// happen at this layer.
func (h *SessionHandler) TransactionInitializeSession(ctx context.Context, event *saleor.TransactionEvent) (*SessionResponse, error) {
	log := logger.FromContext(ctx, h.log).With(
		zap.String("transaction_id", event.Transaction.ID),
		zap.String("source_type", string(event.SourceObject.Typename)),
		zap.String("source_id", event.SourceObject.ID),
		zap.String("channel_id", event.SourceObject.Channel.ID),
	)
	log.Debug("Received transaction initialize session event",
		zap.String("currency", event.Action.Currency),
		zap.String("action_type", string(event.Action.ActionType)),
		zap.String("merchant_reference", event.MerchantReference),
	)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	response, secret, err := h.handle(ctx, log, event)
	var httpErr *errors.HTTPClientError
	switch {
	case err == nil:
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case stderrors.As(err, &httpErr):
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		log.Error("Provider rejected checkout order", zap.String("error", errors.Redact(err, secret)))
	default:
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		log.Error("Session failed", zap.String("error", errors.Redact(err, secret)))
	}
	return response, err
}

// handle runs the session flow. The returned secret is the channel password,
// handed back so the caller can redact it from error logs.
func (h *SessionHandler) handle(ctx context.Context, log *zap.Logger, event *saleor.TransactionEvent) (*SessionResponse, string, error) {
	if event.Recipient == nil {
		return nil, "", errors.Invariant("missing event recipient")
	}
	// A JSON-null data field decodes to the literal bytes "null".
	if len(event.Data) == 0 || string(event.Data) == "null" {
		return nil, "", errors.Invariant("missing event data")
	}

	channelID := event.SourceObject.Channel.ID
	channelConfig, err := h.configs.GetConfigurationForChannel(ctx, channelID)
	if err != nil {
		return nil, "", err
	}
	secret := channelConfig.Password

	client := h.clientFor(ClientConfig{
		APIURL:   channelConfig.APIURL,
		Username: channelConfig.Username,
		Password: channelConfig.Password,
		Timeout:  h.opts.ProviderTimeout,
	})
	log.Debug("Resolved provider configuration",
		zap.String("configuration_id", channelConfig.ConfigurationID),
		zap.String("environment", client.Environment()),
	)

	assembled, err := Assemble(event, AssembleParams{
		Locale:       h.opts.Locale,
		MerchantURLs: h.opts.MerchantURLs,
		AppBaseURL:   h.opts.AppBaseURL,
		SaleorAPIURL: h.opts.SaleorAPIURL,
	})
	if err != nil {
		return nil, secret, err
	}
	log.Info("Authorization callback prepared", zap.String("url", assembled.AuthorizationCallbackURL))
	log.Debug("Provider order payload assembled",
		zap.Int64("order_amount", assembled.Order.OrderAmount),
		zap.Int64("order_tax_amount", assembled.Order.OrderTaxAmount),
		zap.Int("order_lines", len(assembled.Order.OrderLines)),
	)

	providerResponse, err := client.CreateCheckoutOrder(ctx, assembled.Order)
	if err != nil {
		return nil, secret, err
	}
	log.Debug("Provider checkout order created",
		zap.String("order_id", providerResponse.OrderID),
		zap.String("status", providerResponse.Status),
	)

	result := ResultAuthorizationActionRequired
	if event.Action.ActionType == saleor.FlowCharge {
		result = ResultChargeActionRequired
	}

	return &SessionResponse{
		Data: SessionResponseData{
			KlarnaHppResponse: HppResponse{
				// Redirect URL is not read back from the provider yet.
				RedirectURL: "",
			},
		},
		Result:       result,
		Actions:      []string{},
		Amount:       assembled.Order.OrderAmount,
		PSPReference: providerResponse.OrderID,
	}, secret, nil
}
