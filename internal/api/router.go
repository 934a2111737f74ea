package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rulerace/rulerace-server/internal/api/handler"
	"github.com/rulerace/rulerace-server/internal/middleware"
	"github.com/rulerace/rulerace-server/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Hub         *ws.Hub
	DailyAnswer *handler.DailyAnswerHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	// The websocket route bypasses the middleware chain: the logging
	// wrapper hides http.Hijacker, which the upgrade needs.
	r.HandleFunc("/ws", cfg.Hub.ServeWS)

	web := r.PathPrefix("/").Subrouter()
	web.Use(recoveryMiddleware)
	web.Use(loggingMiddleware)

	web.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	web.HandleFunc("/api/v1/daily-answer", cfg.DailyAnswer.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
