package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured.
// metricsHandler may be nil, in which case /metrics is not served.
func NewRouter(documentHandler *DocumentHandler, metricsHandler http.Handler, middlewares ...mux.MiddlewareFunc) http.Handler {
	router := mux.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"doc-analyzer"}`))
	}).Methods("GET")

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	// Single form upload endpoint kept for existing clients.
	router.HandleFunc("/upload", documentHandler.UploadDocument).Methods("POST")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/documents", documentHandler.GetDocuments).Methods("GET")
	api.HandleFunc("/documents", documentHandler.UploadDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", documentHandler.GetDocument).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			requestIDHeader,
		},
		ExposedHeaders: []string{
			requestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
