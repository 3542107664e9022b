package routes

import (
	"mindclone_server/controllers"
	"mindclone_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match and notification reads under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, conversationService *services.ConversationService, notificationService *services.NotificationService, authService *services.AuthService) {
	controller := controllers.NewMatchController(matchService, conversationService, notificationService, authService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()

	matchRouter.HandleFunc("", controller.GetMyMatches).Methods("GET")
	matchRouter.HandleFunc("/notifications", controller.GetMyNotifications).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/conversation", controller.GetMatchConversation).Methods("GET")
}
