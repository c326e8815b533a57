package transfers_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/app/transfers"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
}

func RegisterRoutes(r chi.Router, s transfers.TransferService, cfg RouterConfig, l *zap.Logger) error {
	validator, err := NewRequestValidator()
	if err != nil {
		return err
	}
	handler := NewTransferHandler(s, validator, l.With(zap.String("component", "TransferHTTPHandler")))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", HealthHandler(cfg.ServiceName, l))

	r.Route("/v1/transfer", func(r chi.Router) {
		r.Post("/bulk", handler.BulkTransferHandler)
	})

	r.NotFound(NotFoundHandler(l))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, l, http.StatusMethodNotAllowed, ErrorResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Error:      http.StatusText(http.StatusMethodNotAllowed),
			Message:    http.StatusText(http.StatusMethodNotAllowed),
		})
	})
	return nil
}
