package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter wires the API routes, middleware, metrics endpoint and the
// static SPA shell.
func NewRouter(h *Handler, promReg *prometheus.Registry, staticDir string, log zerolog.Logger) *chi.Mux {
	corsMW := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	})

	router := chi.NewRouter()
	router.Use(RequestID)
	router.Use(RequestLogger(log, "/api/health", "/internal/metrics"))
	router.Use(corsMW)

	router.Route("/api", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/health", h.Health)
	})
	router.Route("/internal", func(r chi.Router) {
		r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	})

	if staticDir != "" {
		router.NotFound(spaHandler(staticDir))
	}

	return router
}

// spaHandler serves files from the static directory, falling back to
// index.html so client-side routes resolve.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
