package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, wsOpts ws.Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts))
	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(h, log.Named("httpapi")))
		r.Get("/{code}/snapshot", Snapshot(h))
		r.Get("/{code}/stats", Stats(h))
	})

	return cors.New(cors.Options{
		AllowedOrigins: wsOpts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}
