package routes

import (
	"mindclone_server/controllers"
	"mindclone_server/services"

	"github.com/gorilla/mux"
)

// RegisterDocumentRoutes sets up routes for knowledge-document uploads under /api/documents
func RegisterDocumentRoutes(r *mux.Router, profileService *services.ProfileService, authService *services.AuthService) {
	controller := controllers.NewDocumentController(profileService, authService)

	documentRouter := r.PathPrefix("/api/documents").Subrouter()

	documentRouter.HandleFunc("/upload-url", controller.GetUploadURL).Methods("GET")
	documentRouter.HandleFunc("/confirm", controller.ConfirmUpload).Methods("POST")
	documentRouter.HandleFunc("/read-url", controller.GetReadURL).Methods("GET")
}
