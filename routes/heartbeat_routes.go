package routes

import (
	"mindclone_server/controllers"
	"mindclone_server/services"

	"github.com/gorilla/mux"
)

// RegisterHeartbeatRoutes sets up the operator trigger for heartbeat ticks
func RegisterHeartbeatRoutes(r *mux.Router, heartbeatService *services.HeartbeatService) {
	controller := controllers.NewHeartbeatController(heartbeatService)

	heartbeatRouter := r.PathPrefix("/api/heartbeat").Subrouter()

	heartbeatRouter.HandleFunc("/run", controller.RunTick).Methods("POST")
}
