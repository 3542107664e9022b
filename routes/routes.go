package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up the top-level routes for the application
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/", welcomeHandler).Methods("GET")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Mindclone matching server"})
}
