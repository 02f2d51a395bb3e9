package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter configures the queue routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/queue", handler.Enqueue).Methods("POST")
	r.HandleFunc("/api/queue", handler.ListItems).Methods("GET")
	r.HandleFunc("/api/queue", handler.Clear).Methods("DELETE")
	r.HandleFunc("/api/queue/snapshot", handler.Snapshot).Methods("GET")
	r.HandleFunc("/api/queue/export", handler.Export).Methods("GET")
	r.HandleFunc("/api/queue/process", handler.Process).Methods("POST")
	r.HandleFunc("/api/queue/stop", handler.Stop).Methods("POST")
	r.HandleFunc("/api/queue/items/{id}", handler.GetItem).Methods("GET")
	r.HandleFunc("/api/queue/items/{id}/retry", handler.Retry).Methods("POST")
	r.HandleFunc("/api/search", handler.Search).Methods("GET")
	return r
}

// NewServer returns the router wrapped with CORS for browser dashboards
func NewServer(handler *Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	})
	return c.Handler(NewRouter(handler))
}
