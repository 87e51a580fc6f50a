package api

import (
	"net/http"

	"dokomiru/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	searchHandler *handlers.SearchHandler,
	translateHandler *handlers.TranslateHandler,
	chatHandler *handlers.ChatHandler,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet, http.MethodOptions)

	apiRouter.HandleFunc("/search", searchHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/translate", translateHandler.Translate).Methods(http.MethodPost, http.MethodOptions)

	apiRouter.HandleFunc("/chat/{movieId}/messages", chatHandler.PostMessage).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/chat/{movieId}/messages", chatHandler.ListMessages).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/comments/latest", chatHandler.LatestComments).Methods(http.MethodGet, http.MethodOptions)
}
