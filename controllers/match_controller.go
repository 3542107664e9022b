package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"mindclone_server/models"
	"mindclone_server/services"
)

// MatchController exposes read access to the caller's mutual matches.
// Matches that ended in a mindclone rejection are never returned: from the
// user's point of view they simply never happened.
type MatchController struct {
	MatchService        *services.MatchService
	ConversationService *services.ConversationService
	NotificationService *services.NotificationService
	AuthService         *services.AuthService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService, conversationService *services.ConversationService, notificationService *services.NotificationService, authService *services.AuthService) *MatchController {
	return &MatchController{
		MatchService:        matchService,
		ConversationService: conversationService,
		NotificationService: notificationService,
		AuthService:         authService,
	}
}

// GetMyMatches returns the caller's approved matches
func (mc *MatchController) GetMyMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := mc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	matches, err := mc.MatchService.GetMatchesForUser(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch matches: %v", err), http.StatusInternalServerError)
		return
	}

	// Only mutually approved matches are visible to users.
	approved := []models.MindcloneMatch{}
	for _, match := range matches {
		if match.Status == models.MatchStatusApproved {
			approved = append(approved, match)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matches": approved,
	})
}

// GetMatchConversation returns the mindclone conversation transcript for one
// of the caller's approved matches.
func (mc *MatchController) GetMatchConversation(w http.ResponseWriter, r *http.Request) {
	userID, err := mc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	matchID := mux.Vars(r)["matchId"]
	if matchID == "" {
		http.Error(w, "matchId is required", http.StatusBadRequest)
		return
	}

	match, err := mc.MatchService.GetMatch(r.Context(), matchID)
	if err != nil {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	// Participants only, and never a rejected or still-running conversation.
	if !match.Involves(userID) || match.Status != models.MatchStatusApproved {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	conversation, err := mc.ConversationService.GetConversation(r.Context(), match.ConversationID)
	if err != nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"match":        match,
		"conversation": conversation,
	})
}

// GetMyNotifications returns match notifications for the caller
func (mc *MatchController) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := mc.AuthService.AuthenticateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	notifications, err := mc.NotificationService.GetNotificationsForUser(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch notifications: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
	})
}
