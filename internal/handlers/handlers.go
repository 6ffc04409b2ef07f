package handlers

import (
	"context"
	"net/http"

	"BizCard/internal/config"
	"BizCard/internal/middleware"
	"BizCard/internal/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Extractor распознаёт визитку по картинке (data URI или голый base64).
type Extractor interface {
	Extract(ctx context.Context, base64Image string) (model.Extraction, error)
	Configured() bool
	Model() string
}

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	extractor Extractor,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	extractHandler := NewExtractHandler(extractor, logger, config)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.Post("/api/extract", extractHandler.Extract)
	r.Get("/api/health", extractHandler.Health)

	return &Handler{Router: r}
}
