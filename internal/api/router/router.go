package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ascendia-dental/frontdesk/internal/http/handlers"
	httpmiddleware "github.com/ascendia-dental/frontdesk/internal/http/middleware"
	"github.com/ascendia-dental/frontdesk/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	AgentHandler   *handlers.AgentHandler
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AgentHandler != nil {
		r.Route("/v1/agent", func(r chi.Router) {
			r.Post("/utterance", cfg.AgentHandler.HandleUtterance)
			r.Get("/conversations/{conversationID}/log", cfg.AgentHandler.ConversationLog)
		})
	}

	return r
}
