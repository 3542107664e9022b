package routes

import (
	"mindclone_server/controllers"
	"mindclone_server/services"

	"github.com/gorilla/mux"
)

// RegisterProfileRoutes sets up routes for matching-profile operations under /api/profiles
func RegisterProfileRoutes(r *mux.Router, profileService *services.ProfileService, authService *services.AuthService) {
	controller := controllers.NewProfileController(profileService, authService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()

	profileRouter.HandleFunc("", controller.PutProfile).Methods("PUT")
	profileRouter.HandleFunc("/me", controller.GetMyProfile).Methods("GET")
	profileRouter.HandleFunc("/me/preferences", controller.UpdatePreferences).Methods("PATCH")
}
