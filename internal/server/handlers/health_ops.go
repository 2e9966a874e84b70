package handlers

import (
	"net/http"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/json"
)

// HealthHandler reports process liveness.
func HealthHandler(appEnv string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":      "ok",
			"environment": appEnv,
		})
	}
}
