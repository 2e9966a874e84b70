package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/config"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/server/handlers"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/metrics"
)

// New builds the HTTP server: the transaction-initialize webhook, liveness
// and the Prometheus scrape endpoint.
func New(log *zap.Logger, cfg *config.Config, sessions handlers.SessionService) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/webhooks/saleor/transaction-initialize-session", handlers.TransactionInitializeSessionHandler(log, sessions))
	mux.HandleFunc("/healthz", handlers.HealthHandler(cfg.AppEnv))
	mux.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // Mitigate Slowloris
	}
}
