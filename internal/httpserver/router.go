package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/httpserver/handlers"
)

const APIBasePath = "/api/v1/etl"
const HealthPath = "/api/v1" + "/health"

func NewRouter(ingest handlers.IngestRunner, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	h := handlers.NewStatusHandler()
	etl := &handlers.ETLHandler{Ingest: ingest, Log: log}

	initHealthRoutes(r, h)
	initETLRoutes(r, etl)

	return r
}

func initHealthRoutes(r *chi.Mux, h *handlers.StatusHandler) {
	r.Get(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		h.Health(w)
	})
}

func initETLRoutes(r *chi.Mux, etl *handlers.ETLHandler) {
	r.Route(APIBasePath, func(r chi.Router) {
		r.Post("/ingest", etl.TriggerIngest)
	})
}
